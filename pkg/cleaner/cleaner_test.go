package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

func newTestSanitizer(t *testing.T) *RecordSanitizer {
	t.Helper()
	s, err := NewRecordSanitizer(zap.NewNop(), newTestNormalizer())
	require.NoError(t, err)
	return s
}

func TestNewRecordSanitizer_RequiresDependencies(t *testing.T) {
	_, err := NewRecordSanitizer(nil, newTestNormalizer())
	assert.Error(t, err)

	_, err = NewRecordSanitizer(zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	for _, token := range []interface{}{nil, "", "   ", "NULL", "null", "NaN", "nan", "None", " NONE "} {
		assert.Equal(t, "", CleanText(token), "token %q", token)
	}

	assert.Equal(t, "Spindle jam", CleanText("  Spindle jam\t"))
	assert.Equal(t, "Nonexistent", CleanText("Nonexistent"))
	assert.Equal(t, "42", CleanText(42))
	assert.Equal(t, "123456", CleanText(123456.0))
	assert.Equal(t, "abc", CleanText([]byte(" abc ")))
}

func TestRecordSanitizer_Sanitize(t *testing.T) {
	s := newTestSanitizer(t)

	row := model.SourceRecord{
		model.ColUniqueIDNo:    int64(501),
		model.ColTypeID:        "7",
		model.ColPlantName:     " MYSORE == 1200 ",
		model.ColShopName:      "Assembly",
		model.ColMachineName:   "  OBJ Assy - 01 ",
		model.ColSapMachnCode:  float64(100234),
		model.ColProblemType:   "Electrical",
		model.ColReason:        "Sensor failure",
		model.ColActualReason:  "NULL",
		model.ColDetails:       "none",
		model.ColLoto:          "Yes",
		model.ColStartDate:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		model.ColStartTime:     "10:30:00",
		model.ColEndDate:       "2024-03-05",
		model.ColEndTime:       "11:15:00",
		model.ColMinutes:       "45",
		model.ColHours:         "0.75",
		"OperatorRemark":       "checked",
	}

	rec, ops, err := s.Sanitize(row)
	require.NoError(t, err)

	assert.Equal(t, "501", rec.RecordID)
	assert.Equal(t, "1200", rec.PlantCode)
	assert.Equal(t, "MYSORE == 1200", rec.PlantName)
	assert.Equal(t, "OBJ Assy - 01", rec.MachineName)
	assert.Equal(t, "100234", rec.SapMachnCode)
	assert.Equal(t, model.NoSolutionProvided, rec.ActualReason)
	assert.Equal(t, "", rec.Details)
	assert.Equal(t, model.Unknown, rec.ClosureReason)
	assert.Equal(t, model.Unknown, rec.SapStatus)
	assert.Equal(t, "2024-03-05", rec.StartDate)
	assert.Equal(t, "10:30:00", rec.StartTime)
	assert.Equal(t, int64(45), rec.Minutes)
	assert.Equal(t, 0.75, rec.Hours)
	assert.Equal(t, map[string]interface{}{"OperatorRemark": "checked"}, rec.Extra)

	require.NotEmpty(t, ops)
	for _, op := range ops {
		assert.Equal(t, "501", op.RowIdentifier)
	}

	// input row is untouched
	assert.Equal(t, "NULL", row[model.ColActualReason])
}

func TestRecordSanitizer_Defaults(t *testing.T) {
	s := newTestSanitizer(t)

	rec, ops, err := s.Sanitize(model.SourceRecord{
		model.ColUniqueID: "U-9",
		model.ColMinutes:  "n/a",
		model.ColHours:    nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "U-9", rec.RecordID)
	assert.Equal(t, model.Unknown, rec.UniqueIDNo)
	assert.Equal(t, model.UnknownMachine, rec.MachineName)
	assert.Equal(t, model.Unknown, rec.SapMachnCode)
	assert.Equal(t, model.NoProblemProvided, rec.Reason)
	assert.Equal(t, model.NoSolutionProvided, rec.ActualReason)
	assert.Equal(t, model.Unknown, rec.ProblemType)
	assert.Equal(t, model.Unknown, rec.PlantName)
	assert.Equal(t, model.Unknown, rec.PlantCode)
	assert.Equal(t, "", rec.Vendor)
	assert.Equal(t, int64(0), rec.Minutes)
	assert.Equal(t, 0.0, rec.Hours)

	var coerced []string
	for _, op := range ops {
		if op.CleaningOperation == model.OpNumericCoerce {
			coerced = append(coerced, op.ColumnName)
		}
	}
	assert.ElementsMatch(t, []string{model.ColMinutes, model.ColHours}, coerced)
}

func TestRecordSanitizer_MissingRecordID(t *testing.T) {
	s := newTestSanitizer(t)

	_, _, err := s.Sanitize(model.SourceRecord{
		model.ColUniqueIDNo: "NaN",
		model.ColMachineName: "Press",
	})
	assert.ErrorIs(t, err, ErrMissingRecordID)
}

func TestRecordSanitizer_UnresolvedPlant(t *testing.T) {
	s := newTestSanitizer(t)

	rec, ops, err := s.Sanitize(model.SourceRecord{
		model.ColUniqueIDNo: "7",
		model.ColPlantName:  "Facility 4521",
	})
	require.NoError(t, err)

	assert.Equal(t, model.Unknown, rec.PlantCode)
	assert.Equal(t, "Facility 4521", rec.PlantName)

	found := false
	for _, op := range ops {
		if op.CleaningOperation == model.OpPlantNormalize {
			found = true
		}
	}
	assert.True(t, found)
}
