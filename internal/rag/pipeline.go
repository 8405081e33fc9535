package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const defaultMaxHistoryTurns = 5

// Answer is the result of one answered question.
type Answer struct {
	Question  string    `json:"question"`
	Text      string    `json:"answer"`
	Citations []string  `json:"citations"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder appends answered questions to the history store.
type Recorder interface {
	Record(ctx context.Context, answer Answer) error
}

// Pipeline wires retrieval, prompting and synthesis for answering questions.
// It is built once at startup and is safe for concurrent use.
type Pipeline struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	recorder    Recorder
	maxHistory  int
	now         func() time.Time
}

type PipelineOption func(*Pipeline)

// WithRecorder sets where successful answers are recorded.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = r }
}

// WithMaxHistoryTurns caps how many earlier turns are placed in the prompt.
func WithMaxHistoryTurns(n int) PipelineOption {
	return func(p *Pipeline) {
		if n >= 0 {
			p.maxHistory = n
		}
	}
}

func withClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(retriever *Retriever, synthesizer *Synthesizer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		retriever:   retriever,
		synthesizer: synthesizer,
		maxHistory:  defaultMaxHistoryTurns,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AnswerQuestion retrieves context for question, asks the generation backend
// and records the answer. Retrieval and generation failures are returned as
// ErrRetrieval / ErrGeneration and nothing is recorded. Lack of evidence is a
// successful answer carrying InsufficientEvidencePhrase and no citations.
func (p *Pipeline) AnswerQuestion(ctx context.Context, question string, history []Turn) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}

	matches, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(question, p.recentTurns(history), matches)
	synthesis, err := p.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		return nil, err
	}

	citations := AggregateCitations(matches)
	if synthesis.Fallback || strings.Contains(synthesis.Text, InsufficientEvidencePhrase) {
		citations = []string{}
	}

	answer := &Answer{
		Question:  question,
		Text:      synthesis.Text,
		Citations: citations,
		CreatedAt: p.now().UTC(),
	}
	if p.recorder != nil {
		if err := p.recorder.Record(ctx, *answer); err != nil {
			log.Printf("record answer failed: %v", err)
		}
	}
	return answer, nil
}

func (p *Pipeline) recentTurns(history []Turn) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Question) == "" || strings.TrimSpace(t.Answer) == "" {
			continue
		}
		turns = append(turns, t)
	}
	if len(turns) > p.maxHistory {
		turns = turns[len(turns)-p.maxHistory:]
	}
	return turns
}
