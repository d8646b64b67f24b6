package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "processed_records.csv")
	l, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestLedger_OpenWritesHeaderOnce(t *testing.T) {
	l, path := openTestLedger(t)
	require.NoError(t, l.Close())

	again, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, again.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "record_id,collection_target,processed_flag,timestamp\n", string(data))
}

func TestLedger_MarkAndLoadState(t *testing.T) {
	l, path := openTestLedger(t)

	require.NoError(t, l.Mark("1", model.TargetMaster))
	require.NoError(t, l.MarkBatch([]string{"1", "2"}, model.CollectionTarget("1200")))
	require.NoError(t, l.MarkBatch(nil, model.TargetMaster))

	state, err := l.LoadState()
	require.NoError(t, err)

	assert.True(t, state.Has(model.TargetMaster, "1"))
	assert.False(t, state.Has(model.TargetMaster, "2"))
	assert.True(t, state.Has("1200", "2"))
	assert.Equal(t, 1, state.Count(model.TargetMaster))
	assert.Equal(t, 2, state.Count("1200"))
	assert.Equal(t, 0, state.Count("1300"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,master,true,2024-05-01T08:00:00Z\n")
}

func TestLedger_AppendsAcrossReopen(t *testing.T) {
	l, path := openTestLedger(t)
	require.NoError(t, l.Mark("1", model.TargetMaster))
	require.NoError(t, l.Close())

	l2, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, l2.Mark("2", model.TargetMaster))
	require.NoError(t, l2.Close())

	state, err := LoadState(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, state.Count(model.TargetMaster))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "record_id"))
}

func TestLedger_ReopenAfterTornRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_records.csv")
	torn := "record_id,collection_target,processed_flag,timestamp\n" +
		"R1,master,true,2024-05-01T08:00:00Z\n" +
		"R2,mas"
	require.NoError(t, os.WriteFile(path, []byte(torn), 0o644))

	l, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, l.MarkBatch([]string{"R3", "R4"}, model.TargetMaster))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "R2,mas\nR3,master,true,")

	state, err := LoadState(path, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, state.Has(model.TargetMaster, "R1"))
	assert.False(t, state.Has(model.TargetMaster, "R2"), "torn row is skipped")
	assert.True(t, state.Has(model.TargetMaster, "R3"))
	assert.True(t, state.Has(model.TargetMaster, "R4"))
}

func TestLedger_ReopenCompleteFileAddsNothing(t *testing.T) {
	l, path := openTestLedger(t)
	require.NoError(t, l.Mark("1", model.TargetMaster))
	require.NoError(t, l.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	again, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, again.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLedger_MarkAfterClose(t *testing.T) {
	l, _ := openTestLedger(t)
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Mark("1", model.TargetMaster), ErrClosed)
}

func TestLoadState_OnlyTrueFlagsCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := strings.Join([]string{
		"record_id,collection_target,processed_flag,timestamp",
		"1,master,true,2024-05-01T08:00:00Z",
		"2,master,false,2024-05-01T08:00:00Z",
		"3,master,,2024-05-01T08:00:00Z",
		"4,master,True,2024-05-01T08:00:00Z",
		"5,master,yes,2024-05-01T08:00:00Z",
		"6,1200",
		"7,1200,true,2024-05-01T08:00:00Z,extra",
		"8,1200,true,2024-05-01T08:00:00Z",
		"9,mas",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	state, err := LoadState(path, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, state.Has(model.TargetMaster, "1"))
	assert.False(t, state.Has(model.TargetMaster, "2"))
	assert.False(t, state.Has(model.TargetMaster, "3"))
	assert.True(t, state.Has(model.TargetMaster, "4"))
	assert.False(t, state.Has(model.TargetMaster, "5"))
	assert.False(t, state.Has("1200", "6"))
	assert.False(t, state.Has("1200", "7"))
	assert.True(t, state.Has("1200", "8"))
	assert.Equal(t, 2, state.Count(model.TargetMaster))
}

func TestLoadState_MissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "absent.csv"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Count(model.TargetMaster))
	assert.Empty(t, state.Targets())
}
