package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

const (
	masterCollection = "machine_data_master"
	mysoreCollection = "machine_data_1200"
	pondyCollection  = "machine_data_1300"
)

func mixedPlantRows() []model.SourceRecord {
	return []model.SourceRecord{
		breakdownRow("BD-1", "MYSORE == 1200", "Press 1"),
		breakdownRow("BD-2", "1200", "Press 2"),
		breakdownRow("BD-3", "Chennai", "Lathe 7"),
		breakdownRow("BD-4", "PONDICHERRY", "Grinder 2"),
	}
}

func TestPipeline_RoutesToMasterAndPlantCollections(t *testing.T) {
	h := newTestHarness(t)
	p, _ := h.pipeline(t, &staticSource{rows: mixedPlantRows()})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.RecordsRead)
	assert.Equal(t, 4, summary.DocumentsBuilt)
	assert.Equal(t, 8, summary.Dimension)
	assert.Equal(t, 4, h.store.pointCount(masterCollection))
	assert.Equal(t, 2, h.store.pointCount(mysoreCollection))
	assert.Equal(t, 1, h.store.pointCount(pondyCollection))
	assert.Equal(t, int64(7), summary.PointsWritten())
	assert.True(t, summary.Success())
	assert.Empty(t, summary.GenerateErrorReport())

	spec := h.store.collections[masterCollection]
	assert.Equal(t, 8, spec.VectorSize)
	assert.Equal(t, "Cosine", spec.Distance)
	_, created := h.store.collections["machine_data_1150"]
	assert.False(t, created, "collections without pending documents are not touched")

	point := h.store.points[mysoreCollection][0]
	assert.Equal(t, "BD-1", point.Payload[model.MetaRecordID])
	assert.NotEqual(t, "BD-1", point.ID)
	assert.NotContains(t, point.Payload, model.MetaSapStatus)
}

func TestPipeline_SecondRunWritesNothing(t *testing.T) {
	h := newTestHarness(t)
	source := &staticSource{rows: mixedPlantRows()}

	first, firstLedger := h.pipeline(t, source)
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, firstLedger.Close())
	batchesAfterFirst := h.embedder.batches

	second, _ := h.pipeline(t, source)
	summary, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.PointsWritten())
	assert.Empty(t, summary.Collections)
	assert.Equal(t, 4, summary.AlreadyIndexed[model.TargetMaster])
	assert.Equal(t, 2, summary.AlreadyIndexed["1200"])
	assert.Equal(t, batchesAfterFirst, h.embedder.batches)
	assert.Equal(t, 4, h.store.pointCount(masterCollection))
}

func TestPipeline_ResumesAfterPartialRun(t *testing.T) {
	rows := []model.SourceRecord{
		breakdownRow("BD-1", "MYSORE", "Press 1"),
		breakdownRow("BD-2", "MYSORE", "Press 2"),
		breakdownRow("BD-3", "MYSORE", "Press 3"),
	}

	h := newTestHarness(t)
	h.batchSize = 1
	h.store.upsertBudget[masterCollection] = 2

	interrupted, interruptedLedger := h.pipeline(t, &staticSource{rows: rows})
	summary, err := interrupted.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, interruptedLedger.Close())

	assert.Equal(t, 1, summary.FailedBatches())
	assert.Equal(t, 2, h.store.pointCount(masterCollection))
	assert.Equal(t, 3, h.store.pointCount(mysoreCollection))

	delete(h.store.upsertBudget, masterCollection)
	resumed, _ := h.pipeline(t, &staticSource{rows: rows})
	summary, err = resumed.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.PointsWritten())
	assert.Equal(t, 3, h.store.pointCount(masterCollection))
	assert.Equal(t, 3, h.store.pointCount(mysoreCollection))

	clean := newTestHarness(t)
	cleanPipeline, _ := clean.pipeline(t, &staticSource{rows: rows})
	_, err = cleanPipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clean.store.pointCount(masterCollection), h.store.pointCount(masterCollection))
	assert.Equal(t, clean.store.pointCount(mysoreCollection), h.store.pointCount(mysoreCollection))
}

func TestPipeline_FailedBatchIsSkippedAndNextCollectionProceeds(t *testing.T) {
	rows := []model.SourceRecord{
		breakdownRow("BD-1", "MYSORE", "Press 1"),
		breakdownRow("BD-2", "MYSORE", "Press 2"),
		breakdownRow("BD-3", "MYSORE", "Press 3"),
	}

	h := newTestHarness(t)
	h.batchSize = 1
	h.store.upsertBudget[masterCollection] = 0

	p, progress := h.pipeline(t, &staticSource{rows: rows})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.FailedBatches())
	assert.False(t, summary.Success())
	assert.Equal(t, 9, h.store.upsertCalls[masterCollection], "three batches, three attempts each")
	assert.Equal(t, 0, h.store.pointCount(masterCollection))
	assert.Equal(t, 3, h.store.pointCount(mysoreCollection))

	state, err := progress.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Count(model.TargetMaster))
	assert.Equal(t, 3, state.Count("1200"))
	assert.Equal(t, 3, p.ErrorHandler().GetErrorSummary()[ErrorCategoryBatchLevel])
	assert.Equal(t, 3, p.Metrics().BatchesFailed)
	assert.Equal(t, 6, p.Metrics().Retries)

	assert.Equal(t, map[string]int{masterCollection: 3}, summary.CollectionErrors)
	assert.Len(t, summary.ErrorSamples[ErrorCategoryBatchLevel], 3)
	report := summary.GenerateErrorReport()
	assert.Contains(t, report, "Errors by Collection")
	assert.Contains(t, report, "- machine_data_master: 3")
	assert.Contains(t, report, "Error Samples")
	assert.Contains(t, report, "- [BatchLevel] Collection: machine_data_master Batch: 2 Error: ")
	assert.Contains(t, report, errIndexDown.Error())
}

func TestPipeline_FullModeIgnoresLedger(t *testing.T) {
	h := newTestHarness(t)
	source := &staticSource{rows: mixedPlantRows()}

	first, firstLedger := h.pipeline(t, source)
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, firstLedger.Close())

	full, _ := h.pipeline(t, source)
	full.WithOptions(PipelineOptions{Incremental: false})
	summary, err := full.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), summary.PointsWritten())
	assert.Equal(t, 8, h.store.pointCount(masterCollection))
}

func TestPipeline_DryRunWritesNothing(t *testing.T) {
	h := newTestHarness(t)
	p, progress := h.pipeline(t, &staticSource{rows: mixedPlantRows()})
	p.WithOptions(PipelineOptions{Incremental: true, DryRun: true})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 4, summary.Pending[model.TargetMaster])
	assert.Equal(t, 2, summary.Pending["1200"])
	assert.Equal(t, 0, summary.Pending["1150"])
	assert.Empty(t, h.store.collections)
	assert.Equal(t, 0, h.embedder.batches)

	state, err := progress.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Count(model.TargetMaster))
}

func TestPipeline_SkipsRecordsWithoutIdentifier(t *testing.T) {
	rows := mixedPlantRows()
	rows = append(rows, model.SourceRecord{model.ColPlantName: "MYSORE", model.ColMachineName: "Orphan"})

	h := newTestHarness(t)
	p, _ := h.pipeline(t, &staticSource{rows: rows})
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.RecordsRead)
	assert.Equal(t, 1, summary.RecordsSkipped)
	assert.Equal(t, 4, h.store.pointCount(masterCollection))
	assert.Equal(t, 1, p.ErrorHandler().GetErrorSummary()[ErrorCategoryRecordLevel])
}

func TestPipeline_SetupFailuresAreReturned(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		h := newTestHarness(t)
		p, _ := h.pipeline(t, &staticSource{err: errors.New("connection refused")})
		_, err := p.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read source records")
	})

	t.Run("dimension probe", func(t *testing.T) {
		h := newTestHarness(t)
		h.embedder.probeErr = errors.New("model not found")
		p, _ := h.pipeline(t, &staticSource{rows: mixedPlantRows()})
		_, err := p.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to probe embedding dimension")
		assert.Empty(t, h.store.collections)
	})
}

func TestVerifier_ComparesLedgerWithIndex(t *testing.T) {
	h := newTestHarness(t)
	p, _ := h.pipeline(t, &staticSource{rows: mixedPlantRows()})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	state, err := ledger.LoadState(h.ledgerPath, nil)
	require.NoError(t, err)

	verifier := NewVerifier(h.store, NewRouter(h.registry), nil)
	reports := verifier.VerifyAll(context.Background(), state)
	require.Len(t, reports, 5)

	byTarget := make(map[model.CollectionTarget]VerificationReport)
	for _, r := range reports {
		byTarget[r.Target] = r
	}
	assert.True(t, byTarget[model.TargetMaster].CountMatches)
	assert.Equal(t, int64(4), byTarget[model.TargetMaster].PointCount)
	assert.True(t, byTarget["1200"].CountMatches)
	assert.False(t, byTarget["1150"].CollectionExists)

	// a point the ledger does not know about
	h.store.points[masterCollection] = append(h.store.points[masterCollection], h.store.points[masterCollection][0])
	report := verifier.VerifyTarget(context.Background(), model.TargetMaster, state)
	assert.False(t, report.CountMatches)
	assert.Equal(t, int64(1), report.Difference())
	assert.Contains(t, verifier.GenerateVerificationReport([]VerificationReport{report}), "MISMATCH (+1)")
}
