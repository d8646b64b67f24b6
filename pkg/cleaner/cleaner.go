// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// ErrMissingRecordID is returned for rows without a usable identifier
var ErrMissingRecordID = errors.New("record has no Unique_ID_No or Unique_id")

// textColumns are trimmed and have null-like tokens mapped to ""
var textColumns = []string{
	model.ColMachineName, model.ColProblemType, model.ColReason, model.ColActualReason,
	model.ColDetails, model.ColShopName, model.ColModuleName, model.ColLineName,
	model.ColServiceType, model.ColClosureReason, model.ColBreakdownType, model.ColSubGroup,
	model.ColPhenomena, model.ColLoto, model.ColVendor, model.ColMaterial, model.ColPlantName,
	model.ColSapMachnCode, model.ColSapStatus, model.ColShiftName,
	model.ColUniqueIDNo, model.ColUniqueID, model.ColTypeID,
}

// textDefaults fill text columns that are empty after cleaning
var textDefaults = map[string]string{
	model.ColSapMachnCode:  model.Unknown,
	model.ColMachineName:   model.UnknownMachine,
	model.ColActualReason:  model.NoSolutionProvided,
	model.ColReason:        model.NoProblemProvided,
	model.ColProblemType:   model.Unknown,
	model.ColClosureReason: model.Unknown,
	model.ColPlantName:     model.Unknown,
	model.ColSapStatus:     model.Unknown,
	model.ColTypeID:        model.Unknown,
}

// dateColumns hold date-bearing values, timeColumns time-of-day values
var (
	dateColumns = []string{model.ColStartDate, model.ColEndDate}
	timeColumns = []string{model.ColStartTime, model.ColEndTime}
)

var declaredColumns = func() map[string]bool {
	m := make(map[string]bool)
	for _, c := range textColumns {
		m[c] = true
	}
	for _, c := range append(dateColumns, timeColumns...) {
		m[c] = true
	}
	m[model.ColMinutes] = true
	m[model.ColHours] = true
	return m
}()

// RecordSanitizer turns raw rows into NormalizedRecords using a static
// column-role table. It never mutates its input.
type RecordSanitizer struct {
	logger     *zap.Logger
	normalizer *PlantNormalizer
}

// NewRecordSanitizer creates a new RecordSanitizer
func NewRecordSanitizer(logger *zap.Logger, normalizer *PlantNormalizer) (*RecordSanitizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if normalizer == nil {
		return nil, errors.New("plant normalizer cannot be nil")
	}
	return &RecordSanitizer{
		logger:     logger,
		normalizer: normalizer,
	}, nil
}

// CleanText trims a value and maps null-like tokens (NULL, NAN, NONE, blank)
// to the empty string
func CleanText(v interface{}) string {
	if isNullToken(v) {
		return ""
	}
	return strings.TrimSpace(toString(v))
}

// Sanitize cleans one row. The returned operations describe every default
// applied or value coerced. Rows without an identifier are rejected.
func (s *RecordSanitizer) Sanitize(row model.SourceRecord) (*model.NormalizedRecord, []model.CleaningOperation, error) {
	text := make(map[string]string, len(textColumns))
	var operations []model.CleaningOperation

	for _, col := range textColumns {
		raw, present := row.Get(col)
		cleaned := CleanText(raw)
		if present && raw != nil && cleaned == "" && strings.TrimSpace(toString(raw)) != "" {
			operations = append(operations, model.CleaningOperation{
				ColumnName:        col,
				OriginalValue:     raw,
				NewValue:          "",
				CleaningOperation: model.OpNullToken,
				CleaningReason:    "null_like_token",
			})
		}
		text[col] = cleaned
	}

	recordID := text[model.ColUniqueIDNo]
	if recordID == "" {
		recordID = text[model.ColUniqueID]
	}
	if recordID == "" {
		return nil, nil, ErrMissingRecordID
	}
	if text[model.ColUniqueIDNo] == "" {
		text[model.ColUniqueIDNo] = model.Unknown
	}

	for col, def := range textDefaults {
		if text[col] != "" {
			continue
		}
		original, _ := row.Get(col)
		text[col] = def
		operations = append(operations, model.CleaningOperation{
			ColumnName:        col,
			OriginalValue:     original,
			NewValue:          def,
			CleaningOperation: model.OpDefaultFill,
			CleaningReason:    "missing_value",
		})
	}

	minutes, op := coerceMinutes(row)
	if op != nil {
		operations = append(operations, *op)
	}
	hours, op := coerceHours(row)
	if op != nil {
		operations = append(operations, *op)
	}

	plantCode := s.normalizer.Normalize(text[model.ColPlantName])
	if plantCode == model.Unknown && text[model.ColPlantName] != model.Unknown {
		operations = append(operations, model.CleaningOperation{
			ColumnName:        model.ColPlantName,
			OriginalValue:     text[model.ColPlantName],
			NewValue:          plantCode,
			CleaningOperation: model.OpPlantNormalize,
			CleaningReason:    "unresolved_plant_label",
		})
	}

	rec := &model.NormalizedRecord{
		RecordID:      recordID,
		UniqueIDNo:    text[model.ColUniqueIDNo],
		UniqueID:      text[model.ColUniqueID],
		TypeID:        text[model.ColTypeID],
		PlantName:     text[model.ColPlantName],
		PlantCode:     plantCode,
		ShopName:      text[model.ColShopName],
		ModuleName:    text[model.ColModuleName],
		LineName:      text[model.ColLineName],
		MachineName:   text[model.ColMachineName],
		SapMachnCode:  text[model.ColSapMachnCode],
		ServiceType:   text[model.ColServiceType],
		ProblemType:   text[model.ColProblemType],
		ShiftName:     text[model.ColShiftName],
		ClosureReason: text[model.ColClosureReason],
		ActualReason:  text[model.ColActualReason],
		Reason:        text[model.ColReason],
		Details:       text[model.ColDetails],
		BreakdownType: text[model.ColBreakdownType],
		SapStatus:     text[model.ColSapStatus],
		SubGroup:      text[model.ColSubGroup],
		Phenomena:     text[model.ColPhenomena],
		Loto:          text[model.ColLoto],
		Vendor:        text[model.ColVendor],
		Material:      text[model.ColMaterial],
		StartDate:     dateText(row[model.ColStartDate]),
		StartTime:     clockText(row[model.ColStartTime]),
		EndDate:       dateText(row[model.ColEndDate]),
		EndTime:       clockText(row[model.ColEndTime]),
		Minutes:       minutes,
		Hours:         hours,
		Extra:         passThrough(row),
	}

	now := time.Now()
	for i := range operations {
		operations[i].RowIdentifier = recordID
		operations[i].CleanedAt = now
	}

	if len(operations) > 0 {
		s.logger.Debug("Sanitized record",
			zap.String("recordId", recordID),
			zap.Int("cleaningOperations", len(operations)))
	}

	return rec, operations, nil
}

func coerceMinutes(row model.SourceRecord) (int64, *model.CleaningOperation) {
	raw, _ := row.Get(model.ColMinutes)
	v, err := toInt(raw)
	if err == nil {
		return v, nil
	}
	return 0, &model.CleaningOperation{
		ColumnName:        model.ColMinutes,
		OriginalValue:     raw,
		NewValue:          "0",
		CleaningOperation: model.OpNumericCoerce,
		CleaningReason:    err.Error(),
	}
}

func coerceHours(row model.SourceRecord) (float64, *model.CleaningOperation) {
	raw, _ := row.Get(model.ColHours)
	v, err := toFloat(raw)
	if err == nil {
		return v, nil
	}
	return 0, &model.CleaningOperation{
		ColumnName:        model.ColHours,
		OriginalValue:     raw,
		NewValue:          "0.0",
		CleaningOperation: model.OpNumericCoerce,
		CleaningReason:    err.Error(),
	}
}

// dateText renders a date column as text. Driver timestamps at midnight keep
// only the date so a separate time column can still supply the clock.
func dateText(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return CleanText(v)
}

// clockText renders a time column as text
func clockText(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("15:04:05")
	}
	return CleanText(v)
}

func passThrough(row model.SourceRecord) map[string]interface{} {
	extra := make(map[string]interface{})
	for k, v := range row {
		if !declaredColumns[k] {
			extra[k] = v
		}
	}
	return extra
}
