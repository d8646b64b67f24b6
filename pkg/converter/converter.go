// pkg/converter/converter.go
package converter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// ErrInvalidRecord is returned for records that cannot become a document
var ErrInvalidRecord = errors.New("invalid record")

// DocumentConverter turns normalized breakdown records into indexable documents
type DocumentConverter struct {
	logger *zap.Logger
	// Configuration options
	config DocumentConverterConfig

	normalizer *cleaner.PlantNormalizer
	reconciler *cleaner.DateTimeReconciler
}

// DocumentConverterConfig provides configuration options for document synthesis
type DocumentConverterConfig struct {
	// Values stripped from metadata before indexing
	Placeholders model.PlaceholderSet
	// Values that drop a line from the structured view
	StructuredPlaceholders model.PlaceholderSet
}

// DefaultConfig returns the default configuration
func DefaultConfig() DocumentConverterConfig {
	return DocumentConverterConfig{
		Placeholders: model.DefaultPlaceholders,
		StructuredPlaceholders: model.NewPlaceholderSet(
			"",
			model.Unknown,
			model.NoDetailsProvided,
			model.NoSolutionProvided,
		),
	}
}

// NewDocumentConverter creates a new DocumentConverter with default configuration
func NewDocumentConverter(logger *zap.Logger, normalizer *cleaner.PlantNormalizer) *DocumentConverter {
	return NewDocumentConverterWithConfig(logger, normalizer, DefaultConfig())
}

// NewDocumentConverterWithConfig creates a DocumentConverter with custom configuration
func NewDocumentConverterWithConfig(logger *zap.Logger, normalizer *cleaner.PlantNormalizer, config DocumentConverterConfig) *DocumentConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentConverter{
		logger:     logger,
		config:     config,
		normalizer: normalizer,
		reconciler: cleaner.NewDateTimeReconciler(logger),
	}
}

// timing holds the reconciled start and end timestamps of a record
type timing struct {
	start    cleaner.DateTimeTriple
	startOK  bool
	end      cleaner.DateTimeTriple
	endOK    bool
	recordID string
}

func (c *DocumentConverter) reconcile(rec *model.NormalizedRecord) timing {
	t := timing{recordID: rec.RecordID}
	t.start, t.startOK = c.reconciler.Reconcile(rec.RecordID, rec.StartDate, rec.StartTime)
	t.end, t.endOK = c.reconciler.Reconcile(rec.RecordID, rec.EndDate, rec.EndTime)
	return t
}

// displayName returns the site name of a plant code, or the code itself
func (c *DocumentConverter) displayName(code string) string {
	if c.normalizer == nil {
		return code
	}
	return c.normalizer.DisplayName(code)
}

// Convert builds the document of one record
func (c *DocumentConverter) Convert(rec *model.NormalizedRecord) (*model.Document, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if rec.RecordID == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, cleaner.ErrMissingRecordID)
	}

	t := c.reconcile(rec)
	narrative := c.buildNarrative(rec, t)
	structured := c.buildStructuredText(rec, t)

	return &model.Document{
		RecordID:       rec.RecordID,
		PlantCode:      rec.PlantCode,
		Content:        narrative,
		StructuredText: structured,
		Metadata:       c.buildMetadata(rec, t, narrative, structured),
	}, nil
}

// ConvertAll converts every record. Records that fail are logged and skipped;
// their errors are returned alongside the documents that succeeded.
func (c *DocumentConverter) ConvertAll(records []*model.NormalizedRecord) ([]*model.Document, []error) {
	docs := make([]*model.Document, 0, len(records))
	var errs []error

	for i, rec := range records {
		doc, err := c.convertSafely(rec)
		if err != nil {
			recordID := ""
			if rec != nil {
				recordID = rec.RecordID
			}
			c.logger.Error("Error processing record",
				zap.Int("index", i),
				zap.String("recordId", recordID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("record %q: %w", recordID, err))
			continue
		}
		docs = append(docs, doc)
	}

	c.logger.Info("Documents built",
		zap.Int("documents", len(docs)),
		zap.Int("skipped", len(errs)))

	return docs, errs
}

// convertSafely isolates a single record so one bad row never aborts the batch
func (c *DocumentConverter) convertSafely(rec *model.NormalizedRecord) (doc *model.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrInvalidRecord, r)
		}
	}()
	return c.Convert(rec)
}

// BuildNarrative renders the narrative view of a record
func (c *DocumentConverter) BuildNarrative(rec *model.NormalizedRecord) string {
	return c.buildNarrative(rec, c.reconcile(rec))
}

// BuildStructuredText renders the sectioned field view of a record
func (c *DocumentConverter) BuildStructuredText(rec *model.NormalizedRecord) string {
	return c.buildStructuredText(rec, c.reconcile(rec))
}

// BuildMetadata assembles the elided payload of a record
func (c *DocumentConverter) BuildMetadata(rec *model.NormalizedRecord) model.Metadata {
	t := c.reconcile(rec)
	narrative := c.buildNarrative(rec, t)
	return c.buildMetadata(rec, t, narrative, c.buildStructuredText(rec, t))
}
