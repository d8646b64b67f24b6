package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/converter"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// ErrorCategory defines categories of errors during a pipeline run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryParse
	ErrorCategoryRecordLevel
	ErrorCategoryTransient
	ErrorCategoryBatchLevel
	ErrorCategoryResource
	ErrorCategoryFatal
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryParse:
		return "Parse"
	case ErrorCategoryRecordLevel:
		return "RecordLevel"
	case ErrorCategoryTransient:
		return "Transient"
	case ErrorCategoryBatchLevel:
		return "BatchLevel"
	case ErrorCategoryResource:
		return "Resource"
	case ErrorCategoryFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category    ErrorCategory
	Collection  string
	RecordID    string
	BatchIndex  int
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		BatchIndex:  -1,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategoryFatal,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithCollection adds collection information to the error record
func (r ErrorRecord) WithCollection(collection string) ErrorRecord {
	r.Collection = collection
	return r
}

// WithRecord adds record information to the error record
func (r ErrorRecord) WithRecord(recordID string) ErrorRecord {
	r.RecordID = recordID
	return r
}

// WithBatch adds batch information to the error record
func (r ErrorRecord) WithBatch(batchIndex int) ErrorRecord {
	r.BatchIndex = batchIndex
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Collection != "" {
		sb.WriteString(fmt.Sprintf("Collection: %s ", r.Collection))
	}
	if r.BatchIndex >= 0 {
		sb.WriteString(fmt.Sprintf("Batch: %d ", r.BatchIndex))
	}
	if r.RecordID != "" {
		sb.WriteString(fmt.Sprintf("Record: %s ", r.RecordID))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// ErrorHandler counts and logs errors by category
type ErrorHandler struct {
	logger           *zap.Logger
	errorCounts      map[ErrorCategory]int
	sampleErrors     map[ErrorCategory][]ErrorRecord
	collectionErrors map[string]int
	mu               sync.Mutex
	maxSamples       int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:           logger,
		errorCounts:      make(map[ErrorCategory]int),
		sampleErrors:     make(map[ErrorCategory][]ErrorRecord),
		collectionErrors: make(map[string]int),
		maxSamples:       5, // Store up to 5 sample errors per category
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var category ErrorCategory
	var opErr *vectorstore.OperationError

	switch {
	case errors.Is(err, context.Canceled):
		category = ErrorCategoryFatal

	case errors.Is(err, cleaner.ErrMissingRecordID), errors.Is(err, converter.ErrInvalidRecord):
		category = ErrorCategoryRecordLevel

	case errors.As(err, &opErr):
		if opErr.Retryable() {
			category = ErrorCategoryTransient
		} else {
			category = ErrorCategoryBatchLevel
		}

	case errors.Is(err, ErrRetriesExhausted):
		category = ErrorCategoryBatchLevel

	case strings.Contains(err.Error(), "parse") ||
		strings.Contains(err.Error(), "convert"):
		category = ErrorCategoryParse

	case vectorstore.IsRetryable(err):
		category = ErrorCategoryTransient

	default:
		category = ErrorCategoryRecordLevel
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}

	return category
}

// RecordError saves an error occurrence and logs it at the category's level
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if record.Collection != "" {
		eh.collectionErrors[record.Collection]++
	}

	if eh.logger != nil {
		eh.logger.Log(categoryLevel(record.Category), "Pipeline error",
			zap.String("category", record.Category.String()),
			zap.String("collection", record.Collection),
			zap.String("recordId", record.RecordID),
			zap.Int("batchIndex", record.BatchIndex),
			zap.String("error", record.Message),
			zap.Bool("recoverable", record.Recoverable))
	}
}

func categoryLevel(category ErrorCategory) zapcore.Level {
	switch category {
	case ErrorCategoryWarning, ErrorCategoryParse, ErrorCategoryTransient:
		return zap.WarnLevel
	case ErrorCategoryResource:
		return zap.InfoLevel
	case ErrorCategoryRecordLevel, ErrorCategoryBatchLevel, ErrorCategoryFatal:
		return zap.ErrorLevel
	default:
		return zap.DebugLevel
	}
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int)
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord)
	for category, records := range eh.sampleErrors {
		categorySamples := make([]ErrorRecord, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}
	return samples
}

// GetCollectionErrorCounts returns error counts by collection
func (eh *ErrorHandler) GetCollectionErrorCounts() map[string]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	counts := make(map[string]int)
	for collection, count := range eh.collectionErrors {
		counts[collection] = count
	}
	return counts
}
