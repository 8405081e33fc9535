package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laolaw-rag/internal/bootstrap"
	httptransport "laolaw-rag/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	if app.Config.RAG.BuildOnStart {
		go buildIfEmpty(ctx, app)
	}

	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           httptransport.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      app.Config.RequestTimeout() + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("server failed: %v", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
}

// buildIfEmpty indexes the source directory once when the server starts
// without a usable index.
func buildIfEmpty(ctx context.Context, app *bootstrap.App) {
	stats, err := app.Indexing.Index.Stats(ctx)
	if err != nil {
		log.Printf("read index stats failed: %v", err)
		return
	}
	if stats.Count > 0 {
		return
	}
	log.Printf("index is empty, building from %s", app.Config.RAG.SourceDir)
	report, err := app.QA.BuildIndex(ctx, "")
	if err != nil {
		log.Printf("startup index build failed: %v", err)
		return
	}
	log.Printf("startup index build done: files=%d chunks=%d skipped=%d", report.Files, report.Chunks, len(report.Skipped))
}
