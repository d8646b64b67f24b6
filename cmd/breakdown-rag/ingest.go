package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/connector"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/converter"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/embedding"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/transfer"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

func newIngestCmd(a *app) *cobra.Command {
	var dryRun, full bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index breakdown records into the master and plant collections",
		Long: `Read every breakdown record, synthesize documents, and write the ones not yet
recorded in the progress ledger to the vector index. Interrupted runs resume
where they stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runIngest(cmd.Context(), transfer.PipelineOptions{
				Incremental: !full,
				DryRun:      dryRun,
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build and route documents, report pending counts, write nothing")
	cmd.Flags().BoolVar(&full, "full", false, "ignore the progress ledger and re-index every record")
	return cmd
}

func (a *app) runIngest(ctx context.Context, options transfer.PipelineOptions) error {
	cfg, logger, err := a.setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	reader, conn, err := connector.NewConnectorFactory(cfg.Source, logger).CreateRecordReader(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	normalizer := cleaner.NewPlantNormalizer(cfg.Plants)
	sanitizer, err := cleaner.NewRecordSanitizer(logger, normalizer)
	if err != nil {
		return fmt.Errorf("failed to create sanitizer: %w", err)
	}

	progress, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		return err
	}
	defer progress.Close()

	store := vectorstore.NewQdrantStore(*cfg.Qdrant, logger)
	embedder := embedding.NewOllamaService(*cfg.Embedding, logger)
	metrics := transfer.NewPipelineMetrics(reg, logger)
	gate := transfer.NewMemoryGate(cfg.MemoryThreshold, cfg.MemoryPollInterval, transfer.SystemMemoryProbe{}, logger)

	writer := transfer.NewBatchWriter(
		embedder,
		store,
		progress,
		gate,
		transfer.NewErrorHandler(logger),
		metrics,
		batchWriterConfig(cfg),
		logger,
	)

	pipeline := transfer.NewPipeline(
		reader,
		sanitizer,
		converter.NewDocumentConverter(logger, normalizer),
		transfer.NewRouter(cfg.Plants),
		progress,
		writer,
		logger,
	).WithOptions(options)

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if summary.DryRun {
		printPendingPlan(a.stdout, cfg.Plants, summary)
		return nil
	}
	fmt.Fprintln(a.stdout, metrics.GenerateMetricsReport())
	if report := summary.GenerateErrorReport(); report != "" {
		fmt.Fprintln(a.stdout, report)
	}

	if !summary.Success() {
		return fmt.Errorf("ingestion finished with %d failed batches; rerun to resume", summary.FailedBatches())
	}
	return nil
}

func batchWriterConfig(cfg *config.Config) transfer.BatchWriterConfig {
	return transfer.BatchWriterConfig{
		BatchSize: cfg.BatchSize,
		Retry: transfer.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       transfer.LinearBackoff(cfg.RetryDelay),
			ShouldRetry: vectorstore.IsRetryable,
		},
		BatchPause: cfg.BatchPause,
		Distance:   cfg.Qdrant.Distance,
		Tuning:     cfg.Qdrant.TuningOptions(),
	}
}

func printPendingPlan(w io.Writer, registry *config.PlantRegistry, summary *transfer.RunSummary) {
	fmt.Fprintf(w, "Dry run: %d records read, %d documents built, %d skipped\n",
		summary.RecordsRead, summary.DocumentsBuilt, summary.RecordsSkipped)
	for _, target := range registry.Targets() {
		collection, _ := registry.CollectionFor(target)
		fmt.Fprintf(w, "  %-22s pending=%d already_indexed=%d\n",
			collection, summary.Pending[target], summary.AlreadyIndexed[target])
	}
}

// serveMetrics exposes reg on addr until the returned stop function is called
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
