package transfer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// CollectionJob is the pending work for one collection
type CollectionJob struct {
	ID         string                 // Unique job identifier
	Target     model.CollectionTarget // Logical target ("master" or a plant code)
	Collection string                 // Physical collection name
	Documents  []*model.Document      // Documents not yet committed to the target
	CreatedAt  time.Time
}

// NewCollectionJob creates a job for target with its pending documents
func NewCollectionJob(target model.CollectionTarget, collection string, docs []*model.Document) CollectionJob {
	return CollectionJob{
		ID:         uuid.New().String(),
		Target:     target,
		Collection: collection,
		Documents:  docs,
		CreatedAt:  time.Now(),
	}
}

// String returns a short description of the job
func (j CollectionJob) String() string {
	return fmt.Sprintf("%s (%s, %d pending)", j.Collection, j.Target, len(j.Documents))
}

// CollectionResult represents the outcome of writing one collection
type CollectionResult struct {
	JobID          string
	Target         model.CollectionTarget
	Collection     string
	Success        bool
	Pending        int
	BatchesTotal   int
	BatchesWritten int
	BatchesFailed  int
	PointsWritten  int64
	Retries        int
	MemoryWait     time.Duration
	Errors         []ErrorRecord
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// NewCollectionResult initializes a result for a job
func NewCollectionResult(job CollectionJob) *CollectionResult {
	return &CollectionResult{
		JobID:      job.ID,
		Target:     job.Target,
		Collection: job.Collection,
		Pending:    len(job.Documents),
		StartTime:  time.Now(),
		Errors:     make([]ErrorRecord, 0),
	}
}

// Complete marks the result as complete. A collection succeeds when every
// batch was written.
func (r *CollectionResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = r.BatchesFailed == 0 && len(r.Errors) == 0 && r.BatchesWritten == r.BatchesTotal
}

// AddError adds an error to the result
func (r *CollectionResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// HasErrors checks if any errors occurred
func (r *CollectionResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary is the outcome of one pipeline run
type RunSummary struct {
	DryRun          bool
	Incremental     bool
	Dimension       int
	RecordsRead     int
	RecordsSkipped  int
	DocumentsBuilt  int
	CleaningOps     int
	Pending         map[model.CollectionTarget]int
	AlreadyIndexed  map[model.CollectionTarget]int
	Collections     []*CollectionResult
	ErrorCategories  map[ErrorCategory]int
	ErrorSamples     map[ErrorCategory][]ErrorRecord
	CollectionErrors map[string]int
	StartTime        time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// NewRunSummary initializes a new run summary
func NewRunSummary() *RunSummary {
	return &RunSummary{
		Pending:         make(map[model.CollectionTarget]int),
		AlreadyIndexed:  make(map[model.CollectionTarget]int),
		Collections:     make([]*CollectionResult, 0),
		ErrorCategories:  make(map[ErrorCategory]int),
		ErrorSamples:     make(map[ErrorCategory][]ErrorRecord),
		CollectionErrors: make(map[string]int),
		StartTime:        time.Now(),
	}
}

// AddCollectionResult incorporates a collection result into the summary
func (s *RunSummary) AddCollectionResult(result *CollectionResult) {
	s.Collections = append(s.Collections, result)
}

// Complete marks the run as complete and calculates its duration
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// PointsWritten returns the number of points written across all collections
func (s *RunSummary) PointsWritten() int64 {
	var total int64
	for _, c := range s.Collections {
		total += c.PointsWritten
	}
	return total
}

// FailedBatches returns the number of batches skipped after exhausting retries
func (s *RunSummary) FailedBatches() int {
	total := 0
	for _, c := range s.Collections {
		total += c.BatchesFailed
	}
	return total
}

// Success reports whether every collection was written without a failed batch
func (s *RunSummary) Success() bool {
	for _, c := range s.Collections {
		if !c.Success {
			return false
		}
	}
	return true
}

// GenerateErrorReport lists the error count of each collection and the sampled
// errors of each category. It returns an empty string for a clean run.
func (s *RunSummary) GenerateErrorReport() string {
	if len(s.ErrorSamples) == 0 && len(s.CollectionErrors) == 0 {
		return ""
	}

	var sb strings.Builder
	if len(s.CollectionErrors) > 0 {
		sb.WriteString("\nErrors by Collection\n--------------------\n")
		names := make([]string, 0, len(s.CollectionErrors))
		for name := range s.CollectionErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", name, s.CollectionErrors[name]))
		}
	}

	if len(s.ErrorSamples) > 0 {
		sb.WriteString("\nError Samples\n-------------\n")
		categories := make([]ErrorCategory, 0, len(s.ErrorSamples))
		for category := range s.ErrorSamples {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] > categories[j] })
		for _, category := range categories {
			for _, record := range s.ErrorSamples[category] {
				sb.WriteString(fmt.Sprintf("- %s\n", record.String()))
			}
		}
	}
	return sb.String()
}
