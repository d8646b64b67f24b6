package transfer

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

const metricsNamespace = "breakdown_rag"

// Batch outcome labels
const (
	BatchStatusWritten = "written"
	BatchStatusFailed  = "failed"
)

// CollectionMetrics tracks metrics for a specific collection
type CollectionMetrics struct {
	Collection     string
	Target         model.CollectionTarget
	StartTime      time.Time
	EndTime        time.Time
	Pending        int
	AlreadyIndexed int
	BatchesWritten int
	BatchesFailed  int
	PointsWritten  int64
}

// Duration returns the time spent on the collection
func (cm *CollectionMetrics) Duration() time.Duration {
	if cm.EndTime.IsZero() {
		return time.Since(cm.StartTime)
	}
	return cm.EndTime.Sub(cm.StartTime)
}

// PipelineMetrics tracks one run. Counters are exported to Prometheus and
// mirrored in a summary used for the end-of-run report.
type PipelineMetrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	StartTime         time.Time
	EndTime           time.Time
	RecordsRead       int
	RecordsSkipped    int
	DocumentsBuilt    int
	CleaningOps       int
	PointsWritten     int64
	BatchesWritten    int
	BatchesFailed     int
	Retries           int
	MemoryWait        time.Duration
	PeakMemoryUsage   int64
	ErrorCounts       map[ErrorCategory]int
	CollectionMetrics map[string]*CollectionMetrics

	documentsBuilt prometheus.Counter
	recordsSkipped prometheus.Counter
	cleaningOps    prometheus.Counter
	pointsWritten  *prometheus.CounterVec
	batches        *prometheus.CounterVec
	retries        *prometheus.CounterVec
	embedLatency   prometheus.Histogram
	memoryWait     prometheus.Counter
}

// NewPipelineMetrics creates metrics registered on reg. A nil reg keeps the
// collectors unregistered.
func NewPipelineMetrics(reg prometheus.Registerer, logger *zap.Logger) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		logger:            logger,
		StartTime:         time.Now(),
		ErrorCounts:       make(map[ErrorCategory]int),
		CollectionMetrics: make(map[string]*CollectionMetrics),

		documentsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_built_total",
			Help:      "Documents synthesized from source records.",
		}),
		recordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_skipped_total",
			Help:      "Source records skipped by sanitization or synthesis.",
		}),
		cleaningOps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cleaning_operations_total",
			Help:      "Field changes made by the sanitizer.",
		}),
		pointsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_written_total",
			Help:      "Points upserted into the vector index.",
		}, []string{"collection"}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches processed by outcome.",
		}, []string{"collection", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retried service calls by operation.",
		}, []string{"operation"}),
		embedLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "embed_batch_seconds",
			Help:      "Latency of embedding one batch, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		memoryWait: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "memory_wait_seconds_total",
			Help:      "Time spent waiting for host memory to drop below the threshold.",
		}),
	}
}

// RecordPreparation records the outcome of reading and synthesizing records
func (pm *PipelineMetrics) RecordPreparation(read, built, skipped, cleaningOps int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.RecordsRead += read
	pm.DocumentsBuilt += built
	pm.RecordsSkipped += skipped
	pm.CleaningOps += cleaningOps

	pm.documentsBuilt.Add(float64(built))
	pm.recordsSkipped.Add(float64(skipped))
	pm.cleaningOps.Add(float64(cleaningOps))
}

// StartCollection begins tracking metrics for a collection
func (pm *PipelineMetrics) StartCollection(target model.CollectionTarget, collection string, pending, alreadyIndexed int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.CollectionMetrics[collection] = &CollectionMetrics{
		Collection:     collection,
		Target:         target,
		StartTime:      time.Now(),
		Pending:        pending,
		AlreadyIndexed: alreadyIndexed,
	}

	if pm.logger != nil {
		pm.logger.Info("Started collection",
			zap.String("collection", collection),
			zap.String("target", target.String()),
			zap.Int("pending", pending),
			zap.Int("alreadyIndexed", alreadyIndexed))
	}
}

// EndCollection completes tracking metrics for a collection
func (pm *PipelineMetrics) EndCollection(collection string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if cm, ok := pm.CollectionMetrics[collection]; ok {
		cm.EndTime = time.Now()

		if pm.logger != nil {
			pm.logger.Info("Completed collection",
				zap.String("collection", collection),
				zap.Duration("duration", cm.Duration()),
				zap.Int("batchesWritten", cm.BatchesWritten),
				zap.Int("batchesFailed", cm.BatchesFailed),
				zap.Int64("pointsWritten", cm.PointsWritten))
		}
	}
}

// RecordBatch records the outcome of one batch
func (pm *PipelineMetrics) RecordBatch(collection string, points int, success bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	cm := pm.CollectionMetrics[collection]
	if success {
		pm.BatchesWritten++
		pm.PointsWritten += int64(points)
		pm.batches.WithLabelValues(collection, BatchStatusWritten).Inc()
		pm.pointsWritten.WithLabelValues(collection).Add(float64(points))
		if cm != nil {
			cm.BatchesWritten++
			cm.PointsWritten += int64(points)
		}
	} else {
		pm.BatchesFailed++
		pm.batches.WithLabelValues(collection, BatchStatusFailed).Inc()
		if cm != nil {
			cm.BatchesFailed++
		}
	}

	pm.recordResourceUsage()
}

// RecordRetry counts a retried call of operation
func (pm *PipelineMetrics) RecordRetry(operation string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.Retries++
	pm.retries.WithLabelValues(operation).Inc()
}

// ObserveEmbedLatency records how long embedding a batch took
func (pm *PipelineMetrics) ObserveEmbedLatency(d time.Duration) {
	pm.embedLatency.Observe(d.Seconds())
}

// RecordMemoryWait adds time spent blocked on the memory gate
func (pm *PipelineMetrics) RecordMemoryWait(d time.Duration) {
	if d <= 0 {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.MemoryWait += d
	pm.memoryWait.Add(d.Seconds())
}

// RecordError increments the count for a specific error category
func (pm *PipelineMetrics) RecordError(category ErrorCategory) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ErrorCounts[category]++
}

// recordResourceUsage tracks peak heap allocation. Callers hold the lock.
func (pm *PipelineMetrics) recordResourceUsage() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	if usage := int64(memStats.Alloc); usage > pm.PeakMemoryUsage {
		pm.PeakMemoryUsage = usage
	}
}

// Complete marks the run as complete
func (pm *PipelineMetrics) Complete() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.EndTime = time.Now()
	pm.recordResourceUsage()

	if pm.logger != nil {
		pm.logger.Info("Pipeline run completed",
			zap.Duration("totalDuration", pm.duration()),
			zap.Int("documentsBuilt", pm.DocumentsBuilt),
			zap.Int("recordsSkipped", pm.RecordsSkipped),
			zap.Int64("pointsWritten", pm.PointsWritten),
			zap.Int("batchesFailed", pm.BatchesFailed),
			zap.Float64("throughput", pm.throughput()))
	}
}

// Duration returns the total duration of the run
func (pm *PipelineMetrics) Duration() time.Duration {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.duration()
}

func (pm *PipelineMetrics) duration() time.Duration {
	if pm.EndTime.IsZero() {
		return time.Since(pm.StartTime)
	}
	return pm.EndTime.Sub(pm.StartTime)
}

// throughput returns points written per second
func (pm *PipelineMetrics) throughput() float64 {
	seconds := pm.duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(pm.PointsWritten) / seconds
}

// collectionNames returns collection names in a stable order
func (pm *PipelineMetrics) collectionNames() []string {
	names := make([]string, 0, len(pm.CollectionMetrics))
	for name := range pm.CollectionMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatBytes converts bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// GenerateMetricsReport creates a human-readable run report
func (pm *PipelineMetrics) GenerateMetricsReport() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	totalBatches := pm.BatchesWritten + pm.BatchesFailed
	report := fmt.Sprintf(`
Pipeline Metrics Report
=======================
Duration:                %s
Start Time:              %s
End Time:                %s

Records
-------
Records Read:            %d
Documents Built:         %d
Records Skipped:         %d
Cleaning Ops:            %d

Indexing
--------
Batches Written:         %d (%.1f%%)
Batches Failed:          %d (%.1f%%)
Points Written:          %d
Retries:                 %d
Average Throughput:      %.2f points/sec

Resource Usage
--------------
Peak Memory Usage:       %s
Memory Wait:             %s
`,
		formatDuration(pm.duration()),
		pm.StartTime.Format(time.RFC3339),
		pm.EndTime.Format(time.RFC3339),

		pm.RecordsRead,
		pm.DocumentsBuilt,
		pm.RecordsSkipped,
		pm.CleaningOps,

		pm.BatchesWritten, getPercentage(float64(pm.BatchesWritten), float64(totalBatches)),
		pm.BatchesFailed, getPercentage(float64(pm.BatchesFailed), float64(totalBatches)),
		pm.PointsWritten,
		pm.Retries,
		pm.throughput(),

		formatBytes(pm.PeakMemoryUsage),
		formatDuration(pm.MemoryWait),
	)

	report += "\nCollection Details\n------------------\n"
	for _, name := range pm.collectionNames() {
		cm := pm.CollectionMetrics[name]
		report += fmt.Sprintf("- %s: %d pending, %d already indexed, %d points, %d failed batches, %s\n",
			name,
			cm.Pending,
			cm.AlreadyIndexed,
			cm.PointsWritten,
			cm.BatchesFailed,
			formatDuration(cm.Duration()))
	}

	if len(pm.ErrorCounts) > 0 {
		report += "\nError Distribution\n------------------\n"
		totalErrors := 0
		for _, count := range pm.ErrorCounts {
			totalErrors += count
		}
		for category, count := range pm.ErrorCounts {
			report += fmt.Sprintf("- %s: %d (%.1f%%)\n", category.String(), count,
				getPercentage(float64(count), float64(totalErrors)))
		}
	}

	return report
}

// ToJSON serializes the run metrics to JSON
func (pm *PipelineMetrics) ToJSON() ([]byte, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	collections := make(map[string]int64, len(pm.CollectionMetrics))
	for name, cm := range pm.CollectionMetrics {
		collections[name] = cm.PointsWritten
	}
	errorsByCategory := make(map[string]int, len(pm.ErrorCounts))
	for category, count := range pm.ErrorCounts {
		errorsByCategory[category.String()] = count
	}

	return json.Marshal(struct {
		Duration        string           `json:"duration"`
		RecordsRead     int              `json:"recordsRead"`
		DocumentsBuilt  int              `json:"documentsBuilt"`
		RecordsSkipped  int              `json:"recordsSkipped"`
		PointsWritten   int64            `json:"pointsWritten"`
		BatchesWritten  int              `json:"batchesWritten"`
		BatchesFailed   int              `json:"batchesFailed"`
		Retries         int              `json:"retries"`
		Throughput      float64          `json:"throughput"`
		PeakMemory      string           `json:"peakMemory"`
		MemoryWait      string           `json:"memoryWait"`
		Collections     map[string]int64 `json:"collections"`
		ErrorCategories map[string]int   `json:"errorCategories"`
	}{
		Duration:        formatDuration(pm.duration()),
		RecordsRead:     pm.RecordsRead,
		DocumentsBuilt:  pm.DocumentsBuilt,
		RecordsSkipped:  pm.RecordsSkipped,
		PointsWritten:   pm.PointsWritten,
		BatchesWritten:  pm.BatchesWritten,
		BatchesFailed:   pm.BatchesFailed,
		Retries:         pm.Retries,
		Throughput:      pm.throughput(),
		PeakMemory:      formatBytes(pm.PeakMemoryUsage),
		MemoryWait:      formatDuration(pm.MemoryWait),
		Collections:     collections,
		ErrorCategories: errorsByCategory,
	})
}
