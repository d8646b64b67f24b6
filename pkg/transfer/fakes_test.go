package transfer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/cleaner"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/converter"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/ledger"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

var errIndexDown = errors.New("qdrant unavailable")

type staticSource struct {
	rows []model.SourceRecord
	err  error
}

func (s *staticSource) ReadAll(ctx context.Context) ([]model.SourceRecord, error) {
	return s.rows, s.err
}

type fakeEmbedder struct {
	dim      int
	probeErr error
	batches  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

// memoryStore is an in-memory vector index. upsertBudget limits the number of
// successful upserts per collection; a missing entry means unlimited.
type memoryStore struct {
	mu           sync.Mutex
	collections  map[string]vectorstore.CollectionSpec
	points       map[string][]vectorstore.Point
	upsertBudget map[string]int
	upsertCalls  map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		collections:  make(map[string]vectorstore.CollectionSpec),
		points:       make(map[string][]vectorstore.Point),
		upsertBudget: make(map[string]int),
		upsertCalls:  make(map[string]int),
	}
}

func (s *memoryStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *memoryStore) CreateCollection(ctx context.Context, spec vectorstore.CollectionSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[spec.Name] = spec
	return nil
}

func (s *memoryStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls[collection]++
	if budget, limited := s.upsertBudget[collection]; limited {
		if budget <= 0 {
			return errIndexDown
		}
		s.upsertBudget[collection] = budget - 1
	}
	s.points[collection] = append(s.points[collection], points...)
	return nil
}

func (s *memoryStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	return nil, nil
}

func (s *memoryStore) Count(ctx context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.points[collection])), nil
}

func (s *memoryStore) Ready(ctx context.Context) error { return nil }

func (s *memoryStore) pointCount(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points[collection])
}

type mapState map[model.CollectionTarget]map[string]bool

func (m mapState) Has(target model.CollectionTarget, recordID string) bool {
	return m[target][recordID]
}

func breakdownRow(id, plant, machine string) model.SourceRecord {
	return model.SourceRecord{
		model.ColUniqueIDNo:    id,
		model.ColPlantName:     plant,
		model.ColMachineName:   machine,
		model.ColSapMachnCode:  "SAP-" + id,
		model.ColReason:        "Spindle jammed",
		model.ColActualReason:  "Replaced bearing",
		model.ColStartDate:     "2024-03-05",
		model.ColStartTime:     "08:30:00",
		model.ColEndDate:       "2024-03-05",
		model.ColEndTime:       "09:15:00",
		model.ColMinutes:       "45",
		model.ColClosureReason: "Mechanical",
	}
}

// testHarness wires a pipeline against in-memory fakes and a real ledger file
type testHarness struct {
	registry   *config.PlantRegistry
	store      *memoryStore
	embedder   *fakeEmbedder
	ledgerPath string
	batchSize  int
}

func newTestHarness(t *testing.T) *testHarness {
	return &testHarness{
		registry:   config.DefaultPlantRegistry(),
		store:      newMemoryStore(),
		embedder:   &fakeEmbedder{dim: 8},
		ledgerPath: filepath.Join(t.TempDir(), "processed_records.csv"),
		batchSize:  2,
	}
}

func (h *testHarness) pipeline(t *testing.T, source RecordSource) (*Pipeline, *ledger.Ledger) {
	t.Helper()
	logger := zap.NewNop()

	normalizer := cleaner.NewPlantNormalizer(h.registry)
	sanitizer, err := cleaner.NewRecordSanitizer(logger, normalizer)
	require.NoError(t, err)

	progress, err := ledger.Open(h.ledgerPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = progress.Close() })

	writer := NewBatchWriter(h.embedder, h.store, progress, nil, nil, nil, BatchWriterConfig{
		BatchSize: h.batchSize,
		Retry:     RetryPolicy{MaxAttempts: 3, Delay: noDelay, ShouldRetry: vectorstore.IsRetryable},
	}, logger)

	p := NewPipeline(source, sanitizer, converter.NewDocumentConverter(logger, normalizer),
		NewRouter(h.registry), progress, writer, logger)
	return p, progress
}
