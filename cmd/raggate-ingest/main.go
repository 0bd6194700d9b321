package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/config"
	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	logpkg "github.com/kailas-cloud/raggate/internal/logger"
	"github.com/kailas-cloud/raggate/internal/metrics"
	"github.com/kailas-cloud/raggate/internal/provider"
	"github.com/kailas-cloud/raggate/internal/usecase/ingest"
	"github.com/kailas-cloud/raggate/internal/version"
)

type options struct {
	env       string
	file      string
	batchSize int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "raggate-ingest",
		Short:         "Embed JSONL passages and write them into the configured vector index",
		Version:       version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "JSONL input, - for stdin")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "passages per embedding call (default from config)")
	return cmd
}

func run(ctx context.Context, opts options, stdin io.Reader, out io.Writer) error {
	cfg, err := config.Load(opts.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Register()

	in := stdin
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	items, err := ingest.ReadJSONL(in)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(out, "no documents")
		return nil
	}

	registry := provider.Builtin(cfg, logger)
	defer registry.Close()

	index, err := registry.VectorIndex(ctx, cfg.Providers.VectorIndex)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	embedder, err := registry.Embedding(ctx, cfg.Providers.Embedding)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	batchSize := cfg.Ingest.BatchSize
	if opts.batchSize > 0 {
		batchSize = opts.batchSize
	}
	svc := ingest.New(embedder, index, ingest.Options{BatchSize: batchSize, MaxItems: cfg.Ingest.MaxItems}, logger)

	var ok, failed int
	for group := range slices.Chunk(items, max(cfg.Ingest.MaxItems, 1)) {
		for _, r := range svc.Ingest(ctx, group) {
			if r.Status() == dombatch.StatusOK {
				ok++
				continue
			}
			failed++
			logger.Warn("Document rejected", zap.String("id", r.ID()), zap.Error(r.Err()))
		}
		if ctx.Err() != nil {
			break
		}
	}

	_, _ = fmt.Fprintf(out, "ingested %d, failed %d\n", ok, failed)
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}
