package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"laolaw-rag/internal/ai"
	"laolaw-rag/internal/app"
	"laolaw-rag/internal/cache"
	"laolaw-rag/internal/config"
	"laolaw-rag/internal/model"
	mysqlClient "laolaw-rag/internal/platform/mysql"
	rabbitmqClient "laolaw-rag/internal/platform/rabbitmq"
	redisClient "laolaw-rag/internal/platform/redis"
	"laolaw-rag/internal/rag"
	"laolaw-rag/internal/repository"
	"laolaw-rag/internal/transport/http/handler"
	"laolaw-rag/internal/worker"
)

// App holds every long-lived dependency of the server. It is built once in
// main and passed explicitly; nothing is kept in package globals.
type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Publisher     *rabbitmqClient.HistoryPublisher
	HistoryWorker *worker.HistoryPersistWorker

	Indexing *Indexing
	QA       *app.QAService
	History  *app.HistoryService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w: %w", rag.ErrConfiguration, err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Indexing, err = NewIndexing(cfg, a.MySQL)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	generator, err := ai.NewGenerator(ai.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
	}, &http.Client{Timeout: cfg.GenerationTimeout()})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	historyRepo := repository.NewQAHistoryRepository(a.MySQL)
	historyCache := cache.NewHistoryCache(a.Redis, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	a.Publisher = rabbitmqClient.NewHistoryPublisher(a.MQConn, cfg.RabbitMQ.HistoryPersistQueue)
	a.History = app.NewHistoryService(a.Publisher, historyRepo, historyCache)

	a.HistoryWorker = worker.NewHistoryPersistWorker(a.MQConn, historyRepo, historyCache, cfg.RabbitMQ.HistoryPersistQueue)
	if err := a.HistoryWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start history worker failed: %w", err)
	}

	pipeline := rag.NewPipeline(
		rag.NewRetriever(a.Indexing.Index, cfg.RAG.TopK, float32(cfg.RAG.MinScore)),
		rag.NewSynthesizer(generator, cfg.GenerationTimeout()),
		rag.WithRecorder(a.History),
		rag.WithMaxHistoryTurns(cfg.RAG.MaxHistoryTurns),
	)
	a.QA = app.NewQAService(pipeline, a.Indexing.Builder, cfg.RAG.SourceDir, cfg.RequestTimeout(), a.Indexing.QueryCache)

	stats, err := a.Indexing.Index.Stats(ctx)
	if err != nil {
		log.Printf("read index stats failed: %v", err)
	} else if stats.Count == 0 {
		log.Printf("index is empty; run the ingest command or POST /api/v1/index/build")
	} else {
		log.Printf("index loaded: records=%d dimension=%d backend=%s", stats.Count, stats.Dimension, cfg.Index.Backend)
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	var err error
	a.MySQL, err = mysqlClient.New(ctx, a.Config.MySQLDSN(),
		&model.QAHistory{}, &model.IndexBuild{}, &model.IndexRecord{})
	if err != nil {
		return err
	}
	a.Redis, err = redisClient.New(ctx, a.Config.Redis)
	if err != nil {
		return err
	}
	a.MQConn, err = rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL, a.Config.RabbitMQ.HistoryPersistQueue)
	return err
}

// HealthChecks returns the dependency probes reported by /healthz.
func (a *App) HealthChecks() map[string]handler.CheckFunc {
	return map[string]handler.CheckFunc{
		"mysql": func(ctx context.Context) error {
			return mysqlClient.Ping(ctx, a.MySQL)
		},
		"redis": func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if a.MQConn == nil || a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
		"index": func(ctx context.Context) error {
			_, err := a.Indexing.Index.Stats(ctx)
			return err
		},
	}
}

type closer struct {
	name  string
	close func() error
}

// closers lists the shutdown steps in order. Consumers stop before the
// clients they use.
func (a *App) closers() []closer {
	return []closer{
		{"history worker", func() error {
			if a.HistoryWorker != nil {
				a.HistoryWorker.Close()
			}
			return nil
		}},
		{"history publisher", func() error {
			if a.Publisher == nil {
				return nil
			}
			return a.Publisher.Close()
		}},
		{"redis", func() error {
			if a.Redis == nil {
				return nil
			}
			return a.Redis.Close()
		}},
		{"rabbitmq", func() error {
			if a.MQConn == nil {
				return nil
			}
			if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				return err
			}
			return nil
		}},
		{"mysql", func() error {
			if a.MySQL == nil {
				return nil
			}
			sqlDB, err := a.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}},
	}
}

func (a *App) Close() error {
	var closeErr error
	for _, c := range a.closers() {
		if err := c.close(); err != nil {
			log.Printf("close %s failed: %v", c.name, err)
			closeErr = err
		}
	}
	return closeErr
}
