package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laolaw-rag/internal/model"
)

type fakeStore struct {
	entries []model.QAHistory
	err     error
}

func (s *fakeStore) Create(_ context.Context, entry *model.QAHistory) error {
	if s.err != nil {
		return s.err
	}
	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}

func TestHistoryPersistWorker_Handle(t *testing.T) {
	store := &fakeStore{}
	inv := &fakeInvalidator{}
	w := NewHistoryPersistWorker(nil, store, inv, "qa.history.persist")

	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	body, err := json.Marshal(model.QAHistory{
		ID:        99,
		Question:  "ສິດຂອງຜູ້ອອກແຮງງານ?",
		Answer:    "ຕາມມາດຕາ 5 ...",
		Citations: []string{"labour.docx (ມາດຕາ 5)"},
		CreatedAt: created,
	})
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), body))
	require.Len(t, store.entries, 1)
	assert.Equal(t, uint(1), store.entries[0].ID)
	assert.Equal(t, []string{"labour.docx (ມາດຕາ 5)"}, store.entries[0].Citations)
	assert.True(t, created.Equal(store.entries[0].CreatedAt))
	assert.Equal(t, 1, inv.calls)
}

type fakeDelivery struct {
	acks    int
	nacks   int
	requeue bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acks++
	return nil
}

func (d *fakeDelivery) Nack(_ bool, requeue bool) error {
	d.nacks++
	d.requeue = requeue
	return nil
}

func TestHistoryPersistWorker_HandleErrors(t *testing.T) {
	store := &fakeStore{}
	inv := &fakeInvalidator{}
	w := NewHistoryPersistWorker(nil, store, inv, "q")

	assert.ErrorIs(t, w.handle(context.Background(), []byte("{not json")), errUndecodable)

	store.err = errors.New("create qa history failed: db down")
	err := w.handle(context.Background(), []byte(`{"question":"q","answer":"a"}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errUndecodable)
	assert.Zero(t, inv.calls)
}

func TestHistoryPersistWorker_ProcessSettlesDelivery(t *testing.T) {
	store := &fakeStore{}
	w := NewHistoryPersistWorker(nil, store, nil, "q")
	w.retryDelay = time.Millisecond
	ctx := context.Background()

	ok := &fakeDelivery{}
	w.process(ctx, ok, []byte(`{"question":"q","answer":"a"}`))
	assert.Equal(t, 1, ok.acks)
	assert.Zero(t, ok.nacks)

	garbage := &fakeDelivery{}
	w.process(ctx, garbage, []byte("{not json"))
	assert.Equal(t, 1, garbage.nacks)
	assert.False(t, garbage.requeue)

	store.err = errors.New("create qa history failed: db down")
	failed := &fakeDelivery{}
	w.process(ctx, failed, []byte(`{"question":"q","answer":"a"}`))
	assert.Zero(t, failed.acks)
	assert.Equal(t, 1, failed.nacks)
	assert.True(t, failed.requeue)
}

type ctxStore struct{ err error }

func (s *ctxStore) Create(ctx context.Context, _ *model.QAHistory) error {
	s.err = ctx.Err()
	return s.err
}

func TestHistoryPersistWorker_StoreOutlivesShutdown(t *testing.T) {
	store := &ctxStore{}
	w := NewHistoryPersistWorker(nil, store, nil, "q")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDelivery{}
	w.process(ctx, d, []byte(`{"question":"q","answer":"a"}`))

	assert.NoError(t, store.err)
	assert.Equal(t, 1, d.acks)
}

func TestHistoryPersistWorker_CloseWithoutStart(t *testing.T) {
	w := NewHistoryPersistWorker(nil, &fakeStore{}, nil, "q")
	w.Close()
}
