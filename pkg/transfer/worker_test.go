package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// cancellingStore cancels the run after its first successful upsert
type cancellingStore struct {
	*memoryStore
	cancel context.CancelFunc
}

func (s *cancellingStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	if err := s.memoryStore.Upsert(ctx, collection, points); err != nil {
		return err
	}
	s.cancel()
	return nil
}

type recordingMarker struct {
	marked []string
}

func (m *recordingMarker) MarkBatch(recordIDs []string, target model.CollectionTarget) error {
	m.marked = append(m.marked, recordIDs...)
	return nil
}

func TestBatchWriter_CancelDuringPauseIsNotAFailedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &cancellingStore{memoryStore: newMemoryStore(), cancel: cancel}
	marker := &recordingMarker{}
	writer := NewBatchWriter(&fakeEmbedder{dim: 4}, store, marker, nil, nil, nil, BatchWriterConfig{
		BatchSize:  1,
		Retry:      RetryPolicy{MaxAttempts: 1, Delay: noDelay},
		BatchPause: time.Hour,
	}, nil)

	docs := []*model.Document{
		{RecordID: "BD-1", Content: "one"},
		{RecordID: "BD-2", Content: "two"},
		{RecordID: "BD-3", Content: "three"},
	}
	result := writer.WriteCollection(ctx, NewCollectionJob(model.TargetMaster, masterCollection, docs), 4)

	assert.Equal(t, 3, result.BatchesTotal)
	assert.Equal(t, 1, result.BatchesWritten)
	assert.Equal(t, 0, result.BatchesFailed)
	assert.False(t, result.Success, "an interrupted collection is not complete")
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"BD-1"}, marker.marked)
	assert.Empty(t, writer.errorHandler.GetErrorSummary())
	require.Equal(t, 1, store.pointCount(masterCollection))
}
