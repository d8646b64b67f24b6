// Package transfer moves breakdown records from the source store into the
// vector index: routing, batching, retries and progress tracking.
package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/converter"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/embedding"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// RecordSource returns every row of the breakdown table
type RecordSource interface {
	ReadAll(ctx context.Context) ([]model.SourceRecord, error)
}

// ProgressLedger is the durable record of committed (record, target) pairs
type ProgressLedger interface {
	ProgressMarker
	LoadState() (*ledger.State, error)
}

// PipelineOptions select how a run behaves
type PipelineOptions struct {
	// Incremental skips pairs already present in the ledger
	Incremental bool
	// DryRun stops after routing, nothing is embedded or written
	DryRun bool
}

// Pipeline orchestrates one ingestion run
type Pipeline struct {
	source    RecordSource
	sanitizer *cleaner.RecordSanitizer
	converter *converter.DocumentConverter
	router    *Router
	progress  ProgressLedger
	writer    *BatchWriter
	options   PipelineOptions
	logger    *zap.Logger
}

// NewPipeline creates a new pipeline. Runs are incremental unless changed with WithOptions.
func NewPipeline(
	source RecordSource,
	sanitizer *cleaner.RecordSanitizer,
	docConverter *converter.DocumentConverter,
	router *Router,
	progress ProgressLedger,
	writer *BatchWriter,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:    source,
		sanitizer: sanitizer,
		converter: docConverter,
		router:    router,
		progress:  progress,
		writer:    writer,
		options:   PipelineOptions{Incremental: true},
		logger:    logger.Named("pipeline"),
	}
}

// WithOptions sets the run options
func (p *Pipeline) WithOptions(options PipelineOptions) *Pipeline {
	p.options = options
	return p
}

// Metrics returns the metrics shared with the batch writer
func (p *Pipeline) Metrics() *PipelineMetrics {
	return p.writer.metrics
}

// ErrorHandler returns the error handler shared with the batch writer
func (p *Pipeline) ErrorHandler() *ErrorHandler {
	return p.writer.errorHandler
}

// Run executes the pipeline. Setup failures (source store, ledger, vector
// size probe) are returned; batch failures are recorded in the summary.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := NewRunSummary()
	summary.DryRun = p.options.DryRun
	summary.Incremental = p.options.Incremental
	metrics := p.Metrics()

	p.logger.Info("Starting pipeline run",
		zap.Bool("incremental", p.options.Incremental),
		zap.Bool("dryRun", p.options.DryRun))

	docs, err := p.PrepareDocuments(ctx, summary)
	if err != nil {
		return nil, err
	}

	var state ProgressState
	if p.options.Incremental {
		loaded, err := p.progress.LoadState()
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger state: %w", err)
		}
		state = loaded
	}

	plan := p.router.Route(docs, state, p.options.Incremental)
	for _, target := range plan.Order {
		summary.Pending[target] = plan.Pending(target)
		summary.AlreadyIndexed[target] = plan.Skipped[target]
		collection, _ := p.router.Collection(target)
		p.logger.Info("Routing plan",
			zap.String("target", target.String()),
			zap.String("collection", collection),
			zap.Int("pending", plan.Pending(target)),
			zap.Int("alreadyIndexed", plan.Skipped[target]))
	}

	if p.options.DryRun {
		p.logger.Info("Dry run, nothing written", zap.Int("pending", plan.TotalPending()))
		p.finish(summary)
		return summary, nil
	}

	if plan.TotalPending() == 0 {
		p.logger.Info("All records already indexed")
		p.finish(summary)
		return summary, nil
	}

	dim, err := embedding.ProbeDimension(ctx, p.writer.embedder)
	if err != nil {
		return nil, err
	}
	summary.Dimension = dim
	p.logger.Info("Embedding dimension determined",
		zap.String("model", p.writer.embedder.ModelName()),
		zap.Int("dimension", dim))

	for _, target := range plan.Order {
		pending := plan.Backlogs[target]
		if len(pending) == 0 {
			continue
		}

		collection, ok := p.router.Collection(target)
		if !ok {
			p.logger.Warn("No collection configured for target", zap.String("target", target.String()))
			continue
		}

		job := NewCollectionJob(target, collection, pending)
		metrics.StartCollection(target, collection, len(pending), plan.Skipped[target])
		result := p.writeCollection(ctx, job, dim)
		metrics.EndCollection(collection)
		summary.AddCollectionResult(result)

		if err := ctx.Err(); err != nil {
			p.finish(summary)
			return summary, fmt.Errorf("pipeline interrupted: %w", err)
		}
	}

	p.finish(summary)
	return summary, nil
}

// writeCollection ensures the collection exists and writes its backlog. A
// collection that cannot be created is recorded as failed and the run moves on.
func (p *Pipeline) writeCollection(ctx context.Context, job CollectionJob, dim int) *CollectionResult {
	if err := p.writer.EnsureCollection(ctx, job.Collection, dim); err != nil {
		result := NewCollectionResult(job)
		result.BatchesTotal = (len(job.Documents) + p.writer.config.BatchSize - 1) / p.writer.config.BatchSize
		record := NewErrorRecord(err, ErrorCategoryBatchLevel).WithCollection(job.Collection)
		p.writer.errorHandler.RecordError(record)
		p.writer.metrics.RecordError(ErrorCategoryBatchLevel)
		result.AddError(record)
		result.BatchesFailed = result.BatchesTotal
		result.Complete()
		return result
	}
	return p.writer.WriteCollection(ctx, job, dim)
}

// PrepareDocuments reads, sanitizes and converts every source row. Rows that
// fail are skipped and counted.
func (p *Pipeline) PrepareDocuments(ctx context.Context, summary *RunSummary) ([]*model.Document, error) {
	rows, err := p.source.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read source records: %w", err)
	}

	errorHandler := p.ErrorHandler()
	records := make([]*model.NormalizedRecord, 0, len(rows))
	skipped, cleaningOps := 0, 0

	for i, row := range rows {
		rec, ops, err := p.sanitizer.Sanitize(row)
		cleaningOps += len(ops)
		if err != nil {
			category := errorHandler.CategorizeError(err)
			errorHandler.RecordError(NewErrorRecord(err, category).WithRecord(fmt.Sprintf("row %d", i)))
			p.Metrics().RecordError(category)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	docs, convErrs := p.converter.ConvertAll(records)
	for range convErrs {
		p.Metrics().RecordError(ErrorCategoryRecordLevel)
	}
	skipped += len(convErrs)

	if summary != nil {
		summary.RecordsRead = len(rows)
		summary.RecordsSkipped = skipped
		summary.DocumentsBuilt = len(docs)
		summary.CleaningOps = cleaningOps
	}
	p.Metrics().RecordPreparation(len(rows), len(docs), skipped, cleaningOps)

	p.logger.Info("Records prepared",
		zap.Int("recordsRead", len(rows)),
		zap.Int("documentsBuilt", len(docs)),
		zap.Int("recordsSkipped", skipped),
		zap.Int("cleaningOps", cleaningOps))

	return docs, nil
}

// finish completes the summary and metrics and logs the run report
func (p *Pipeline) finish(summary *RunSummary) {
	errorHandler := p.ErrorHandler()
	summary.ErrorCategories = errorHandler.GetErrorSummary()
	summary.ErrorSamples = errorHandler.GetErrorSamples()
	summary.CollectionErrors = errorHandler.GetCollectionErrorCounts()
	summary.Complete()

	metrics := p.Metrics()
	metrics.Complete()
	if report, err := metrics.ToJSON(); err == nil {
		p.logger.Info("Run report", zap.ByteString("metrics", report))
	}
}
