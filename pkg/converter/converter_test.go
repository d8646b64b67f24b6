package converter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

func newTestConverter() *DocumentConverter {
	return NewDocumentConverter(zap.NewNop(), cleaner.NewPlantNormalizer(config.DefaultPlantRegistry()))
}

func fullRecord() *model.NormalizedRecord {
	return &model.NormalizedRecord{
		RecordID:      "501",
		UniqueIDNo:    "501",
		UniqueID:      "U-501",
		TypeID:        "7",
		PlantName:     "MYSORE == 1200",
		PlantCode:     "1200",
		ShopName:      "Assembly",
		ModuleName:    "M2",
		LineName:      "L4",
		MachineName:   "OBJ Assy - 01",
		SapMachnCode:  "100234",
		ServiceType:   "Breakdown",
		ProblemType:   "Electrical",
		ShiftName:     "A",
		ClosureReason: "Completed",
		ActualReason:  "Replaced proximity sensor",
		Reason:        "Sensor failure",
		Details:       "Sensor cable worn",
		BreakdownType: "Unplanned",
		SapStatus:     "CLSD",
		SubGroup:      "Sensors",
		Phenomena:     "No signal",
		Loto:          "Yes",
		Vendor:        "Acme",
		Material:      "PX-12",
		StartDate:     "2024-03-05",
		StartTime:     "10:30:00",
		EndDate:       "2024-03-05",
		EndTime:       "11:15:00",
		Minutes:       45,
		Hours:         0.75,
	}
}

func TestDocumentConverter_NarrativeContainsKeyFields(t *testing.T) {
	c := newTestConverter()
	rec := fullRecord()

	doc, err := c.Convert(rec)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "OBJ Assy - 01")
	assert.Contains(t, doc.Content, "100234")
	assert.Contains(t, doc.Content, "45 minutes")
	assert.Contains(t, doc.Content, "repaired in Plant MYSORE,")
	assert.Contains(t, doc.Content,
		"The repair started on 05-03-2024 10:30:00 and ended on 05-03-2024 11:15:00, resulting in a downtime of 45 minutes (0.75 hours).")
	assert.Contains(t, doc.Content, "The LOTO (Lock Out Tag Out) status was Yes.")
	assert.Contains(t, doc.Content, "Vendor: Acme and Material: PX-12 was involved.")
	assert.True(t, strings.HasSuffix(doc.Content, "Additional details: Sensor cable worn"))
	assert.Equal(t, "501", doc.RecordID)
	assert.Equal(t, "1200", doc.PlantCode)
}

func TestDocumentConverter_NarrativeBranches(t *testing.T) {
	c := newTestConverter()

	t.Run("start only", func(t *testing.T) {
		rec := fullRecord()
		rec.StartTime = ""
		rec.EndDate = ""
		rec.EndTime = ""

		text := c.BuildNarrative(rec)
		assert.Contains(t, text, "The repair started on 05-03-2024 00:00:00 with a downtime of 45 minutes.")
		assert.NotContains(t, text, "ended on")
	})

	t.Run("no start", func(t *testing.T) {
		rec := fullRecord()
		rec.StartDate = "not a date"

		text := c.BuildNarrative(rec)
		assert.NotContains(t, text, "The repair started")
	})

	t.Run("no loto no vendor no details", func(t *testing.T) {
		rec := fullRecord()
		rec.Loto = ""
		rec.Vendor = ""
		rec.Material = ""
		rec.Details = ""

		text := c.BuildNarrative(rec)
		assert.Contains(t, text, "No LOTO status was recorded.")
		assert.Contains(t, text, "No vendor or material was involved.")
		assert.NotContains(t, text, "Additional details")
	})

	t.Run("material only", func(t *testing.T) {
		rec := fullRecord()
		rec.Vendor = ""
		assert.Contains(t, c.BuildNarrative(rec), "Material: PX-12 was involved.")
	})

	t.Run("punctuation repaired", func(t *testing.T) {
		rec := fullRecord()
		rec.ShopName = ""
		rec.BreakdownType = ""

		text := c.BuildNarrative(rec)
		assert.Contains(t, text, "Shop, Module M2")
		assert.Contains(t, text, "The breakdown type is, and the SAP status is CLSD.")
		assert.NotContains(t, text, " .")
		assert.NotContains(t, text, " ,")
	})
}

func TestDocumentConverter_StructuredText(t *testing.T) {
	c := newTestConverter()
	rec := fullRecord()
	rec.SubGroup = ""
	rec.Details = ""
	rec.ClosureReason = model.Unknown
	rec.Vendor = ""
	rec.Material = ""

	text := c.BuildStructuredText(rec)
	lines := strings.Split(text, "\n")

	assert.Equal(t, SectionMachine, lines[0])
	assert.Contains(t, lines, "Plant: MYSORE (Code: 1200)")
	assert.Contains(t, lines, "Original Plant Input: MYSORE == 1200")
	assert.Contains(t, lines, "Start Time: 05-03-2024 10:30:00")
	assert.Contains(t, lines, "Duration: 45 minutes (0.75 hours)")
	assert.NotContains(t, text, "Sub Group:")
	assert.NotContains(t, text, "Details:")
	assert.NotContains(t, text, "Closure Reason:")

	// empty sections keep their header
	assert.True(t, strings.HasSuffix(text, "\n\n"+SectionAdditional))
}

func TestDocumentConverter_MetadataElision(t *testing.T) {
	c := newTestConverter()
	rec := fullRecord()
	rec.Details = ""
	rec.ActualReason = model.NoSolutionProvided
	rec.SapStatus = model.Unknown
	rec.Vendor = ""
	rec.EndDate = ""
	rec.Minutes = 0
	rec.Hours = 0

	m := c.BuildMetadata(rec)

	for k, v := range m {
		if s, ok := v.(string); ok {
			assert.False(t, model.DefaultPlaceholders.Contains(s), "key %s holds placeholder %q", k, s)
		}
		assert.NotNil(t, v, "key %s", k)
	}
	assert.NotContains(t, m, model.MetaDetails)
	assert.NotContains(t, m, model.MetaSolution)
	assert.NotContains(t, m, model.MetaSapStatus)
	assert.NotContains(t, m, model.MetaVendor)
	assert.NotContains(t, m, model.MetaEndTime)

	assert.Equal(t, int64(0), m[model.MetaDurationMinutes])
	assert.Equal(t, 0.0, m[model.MetaDurationHours])
	assert.Equal(t, "OBJ Assy - 01_100234", m[model.MetaMachineID])
	assert.Equal(t, "MYSORE", m[model.MetaPlantName])
	assert.Equal(t, "501", m[model.MetaRecordID])
	assert.Equal(t, "05-03-2024 10:30:00", m[model.MetaStartTime])
	assert.NotEmpty(t, m.String(model.MetaHumanReadableText))
	assert.NotEmpty(t, m.String(model.MetaFullText))

	for k := range m {
		assert.Contains(t, model.MetadataKeys, k)
	}
}

func TestDocumentConverter_MysoreScenario(t *testing.T) {
	sanitizer, err := cleaner.NewRecordSanitizer(zap.NewNop(), cleaner.NewPlantNormalizer(config.DefaultPlantRegistry()))
	require.NoError(t, err)

	rec, _, err := sanitizer.Sanitize(model.SourceRecord{
		model.ColUniqueIDNo:   "88",
		model.ColPlantName:    "MYSORE == 1200",
		model.ColMachineName:  "Press 3",
		model.ColSapMachnCode: "700100",
		model.ColStartDate:    "2024-01-10",
		model.ColMinutes:      30,
	})
	require.NoError(t, err)

	doc, err := newTestConverter().Convert(rec)
	require.NoError(t, err)
	assert.Equal(t, "1200", doc.PlantCode)
	assert.Equal(t, "1200", doc.Metadata[model.MetaPlantCode])
}

func TestDocumentConverter_ConvertAllSkipsBadRecords(t *testing.T) {
	c := newTestConverter()

	good := fullRecord()
	missing := fullRecord()
	missing.RecordID = ""

	docs, errs := c.ConvertAll([]*model.NormalizedRecord{good, nil, missing, fullRecord()})
	assert.Len(t, docs, 2)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrInvalidRecord)
	}
}
