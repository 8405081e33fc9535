// Command ingest builds the legal document index offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"laolaw-rag/internal/bootstrap"
	"laolaw-rag/internal/config"
	"laolaw-rag/internal/model"
	mysqlClient "laolaw-rag/internal/platform/mysql"
)

type options struct {
	configFile string
	dir        string
	backend    string
	indexPath  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ingest",
		Short: "Build the Lao legal document index",
		Long: `Reads every .pdf, .docx, .txt and .md file under the source directory,
splits it into articles and chunks, embeds the chunks and replaces the index.

Example:
  ingest build --dir ./legal_documents
  ingest build --backend mysql
  ingest stats`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.configFile != "" {
				_ = os.Setenv("CONFIG_FILE", opts.configFile)
			}
			if opts.backend != "" {
				_ = os.Setenv("INDEX_BACKEND", opts.backend)
			}
			if opts.indexPath != "" {
				_ = os.Setenv("INDEX_PATH", opts.indexPath)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: configs/config.toml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "index backend: file or mysql (overrides config)")
	root.PersistentFlags().StringVar(&opts.indexPath, "index-path", "", "directory of the file index (overrides config)")

	build := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the index from the source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	build.Flags().StringVar(&opts.dir, "dir", "", "source directory (default: rag.source_dir)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print the size and dimension of the current index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout())
		},
	}

	root.AddCommand(build, stats)
	return root
}

func openIndexing(ctx context.Context) (*config.Config, *bootstrap.Indexing, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config failed: %w", err)
	}

	var db *gorm.DB
	cleanup := func() {}
	if cfg.Index.Backend == config.IndexBackendMySQL {
		db, err = mysqlClient.New(ctx, cfg.MySQLDSN(), &model.IndexBuild{}, &model.IndexRecord{})
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}

	indexing, err := bootstrap.NewIndexing(cfg, db)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return cfg, indexing, cleanup, nil
}

func runBuild(ctx context.Context, opts *options, out io.Writer) error {
	cfg, indexing, cleanup, err := openIndexing(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	dir := opts.dir
	if dir == "" {
		dir = cfg.RAG.SourceDir
	}
	report, err := indexing.Builder.BuildIndex(ctx, dir)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runStats(ctx context.Context, out io.Writer) error {
	_, indexing, cleanup, err := openIndexing(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := indexing.Index.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "records: %d\ndimension: %d\n", stats.Count, stats.Dimension)
	return err
}
