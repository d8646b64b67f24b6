package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/embedding"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// Retried operations, used as metric labels
const (
	OperationEmbed  = "embed"
	OperationUpsert = "upsert"
	OperationEnsure = "ensure_collection"
)

// ProgressMarker records committed (record, target) pairs
type ProgressMarker interface {
	MarkBatch(recordIDs []string, target model.CollectionTarget) error
}

// BatchWriterConfig holds the tunables of the batch writer
type BatchWriterConfig struct {
	BatchSize  int
	Retry      RetryPolicy
	BatchPause time.Duration
	Distance   string
	Tuning     map[string]interface{}
}

// DefaultBatchWriterConfig returns the default tunables
func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize: 64,
		Retry: RetryPolicy{
			MaxAttempts: 3,
			Delay:       LinearBackoff(time.Second),
			ShouldRetry: vectorstore.IsRetryable,
		},
		BatchPause: 500 * time.Millisecond,
		Distance:   vectorstore.DistanceCosine,
	}
}

// BatchWriter embeds documents and writes them to one collection at a time
type BatchWriter struct {
	embedder     embedding.Service
	store        vectorstore.Store
	progress     ProgressMarker
	gate         *MemoryGate
	errorHandler *ErrorHandler
	metrics      *PipelineMetrics
	config       BatchWriterConfig
	logger       *zap.Logger

	// newPointID is replaceable in tests
	newPointID func() string
}

// NewBatchWriter creates a new batch writer. A nil gate disables memory back-pressure.
func NewBatchWriter(
	embedder embedding.Service,
	store vectorstore.Store,
	progress ProgressMarker,
	gate *MemoryGate,
	errorHandler *ErrorHandler,
	metrics *PipelineMetrics,
	config BatchWriterConfig,
	logger *zap.Logger,
) *BatchWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errorHandler == nil {
		errorHandler = NewErrorHandler(logger)
	}
	if metrics == nil {
		metrics = NewPipelineMetrics(nil, nil)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchWriterConfig().BatchSize
	}
	if config.Distance == "" {
		config.Distance = vectorstore.DistanceCosine
	}
	return &BatchWriter{
		embedder:     embedder,
		store:        store,
		progress:     progress,
		gate:         gate,
		errorHandler: errorHandler,
		metrics:      metrics,
		config:       config,
		logger:       logger.Named("batch-writer"),
		newPointID:   func() string { return uuid.New().String() },
	}
}

// policy returns the retry policy for op, counting every retry
func (w *BatchWriter) policy(op string, result *CollectionResult) RetryPolicy {
	p := w.config.Retry
	next := p.OnRetry
	p.OnRetry = func(attempt int, err error) {
		w.metrics.RecordRetry(op)
		if result != nil {
			result.Retries++
		}
		if next != nil {
			next(attempt, err)
		}
	}
	return p
}

// EnsureCollection creates the collection with dim-sized vectors when it does not exist
func (w *BatchWriter) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := RetryValue(ctx, w.policy(OperationEnsure, nil), w.logger, "check collection",
		func(ctx context.Context) (bool, error) {
			return w.store.CollectionExists(ctx, name)
		})
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if exists {
		w.logger.Debug("Collection exists", zap.String("collection", name))
		return nil
	}

	spec := vectorstore.CollectionSpec{
		Name:       name,
		VectorSize: dim,
		Distance:   w.config.Distance,
		Tuning:     w.config.Tuning,
	}
	err = Retry(ctx, w.policy(OperationEnsure, nil), w.logger, "create collection",
		func(ctx context.Context) error {
			return w.store.CreateCollection(ctx, spec)
		})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	w.logger.Info("Created collection",
		zap.String("collection", name),
		zap.Int("vectorSize", dim),
		zap.String("distance", w.config.Distance))
	return nil
}

// WriteCollection writes the job's documents batch by batch. A batch that
// still fails after its retries is logged and skipped; later batches run.
func (w *BatchWriter) WriteCollection(ctx context.Context, job CollectionJob, dim int) *CollectionResult {
	result := NewCollectionResult(job)
	size := w.config.BatchSize
	result.BatchesTotal = (len(job.Documents) + size - 1) / size

	logger := w.logger.With(zap.String("collection", job.Collection))
	logger.Info("Writing collection",
		zap.String("jobId", job.ID),
		zap.Int("pending", len(job.Documents)),
		zap.Int("batches", result.BatchesTotal),
		zap.Int("vectorSize", dim))

	for batchIndex := 0; batchIndex < result.BatchesTotal; batchIndex++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Collection write interrupted",
				zap.Int("nextBatch", batchIndex),
				zap.Error(err))
			break
		}

		start := batchIndex * size
		end := start + size
		if end > len(job.Documents) {
			end = len(job.Documents)
		}
		batch := job.Documents[start:end]

		if err := w.writeBatch(ctx, job, batch, result); err != nil {
			w.recordBatchFailure(job, result, batchIndex, err)
			if ctx.Err() != nil {
				break
			}
		} else {
			result.BatchesWritten++
			result.PointsWritten += int64(len(batch))
			w.metrics.RecordBatch(job.Collection, len(batch), true)
			logger.Debug("Batch written",
				zap.Int("batchIndex", batchIndex),
				zap.Int("points", len(batch)))
		}

		if batchIndex < result.BatchesTotal-1 {
			if err := sleepContext(ctx, w.config.BatchPause); err != nil {
				logger.Warn("Collection write interrupted",
					zap.Int("nextBatch", batchIndex+1),
					zap.Error(err))
				break
			}
		}
	}

	result.Complete()
	logger.Info("Collection written",
		zap.Int("batchesWritten", result.BatchesWritten),
		zap.Int("batchesFailed", result.BatchesFailed),
		zap.Int64("pointsWritten", result.PointsWritten),
		zap.Int("retries", result.Retries),
		zap.Duration("duration", result.Duration))
	return result
}

// writeBatch runs one batch: wait for memory, embed, upsert, then mark
func (w *BatchWriter) writeBatch(ctx context.Context, job CollectionJob, batch []*model.Document, result *CollectionResult) error {
	if w.gate != nil {
		waited, err := w.gate.Wait(ctx)
		result.MemoryWait += waited
		w.metrics.RecordMemoryWait(waited)
		if err != nil {
			return fmt.Errorf("memory wait interrupted: %w", err)
		}
	}

	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Content
	}

	embedStart := time.Now()
	vectors, err := RetryValue(ctx, w.policy(OperationEmbed, result), w.logger, "embed batch",
		func(ctx context.Context) ([][]float32, error) {
			return w.embedder.EmbedBatch(ctx, texts)
		})
	w.metrics.ObserveEmbedLatency(time.Since(embedStart))
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("failed to embed batch: got %d vectors for %d documents", len(vectors), len(batch))
	}

	points := make([]vectorstore.Point, len(batch))
	recordIDs := make([]string, len(batch))
	for i, doc := range batch {
		points[i] = vectorstore.Point{
			ID:      w.newPointID(),
			Vector:  vectors[i],
			Payload: payloadOf(doc),
		}
		recordIDs[i] = doc.RecordID
	}

	err = Retry(ctx, w.policy(OperationUpsert, result), w.logger, "upsert batch",
		func(ctx context.Context) error {
			return w.store.Upsert(ctx, job.Collection, points)
		})
	if err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}

	if err := w.progress.MarkBatch(recordIDs, job.Target); err != nil {
		return fmt.Errorf("failed to mark batch in ledger: %w", err)
	}
	return nil
}

// recordBatchFailure classifies, logs and counts a skipped batch
func (w *BatchWriter) recordBatchFailure(job CollectionJob, result *CollectionResult, batchIndex int, err error) {
	category := ErrorCategoryBatchLevel
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		category = ErrorCategoryFatal
	}

	record := NewErrorRecord(err, category).
		WithCollection(job.Collection).
		WithBatch(batchIndex)
	w.errorHandler.RecordError(record)
	w.metrics.RecordError(category)
	w.metrics.RecordBatch(job.Collection, 0, false)

	result.AddError(record)
	result.BatchesFailed++
}

// payloadOf copies a document's metadata into a point payload
func payloadOf(doc *model.Document) map[string]interface{} {
	payload := make(map[string]interface{}, len(doc.Metadata))
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	return payload
}
