// pkg/ledger/ledger.go
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// Header is the first row of every ledger file
var Header = []string{"record_id", "collection_target", "processed_flag", "timestamp"}

// TimestampLayout is the layout of the timestamp column
const TimestampLayout = time.RFC3339

// ErrClosed is returned when marking on a closed ledger
var ErrClosed = errors.New("ledger is closed")

// Ledger is an append-only CSV file of (record, target) pairs that were
// written successfully. Entries are never edited or removed.
type Ledger struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	closed bool

	// now is replaceable in tests
	now func() time.Time
}

// Open opens or creates the ledger at path. A new or empty file gets the header row.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	l := &Ledger{
		path:   path,
		logger: logger.Named("ledger"),
		file:   f,
		writer: csv.NewWriter(f),
		now:    time.Now,
	}

	if info.Size() == 0 {
		if err := l.writer.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write ledger header: %w", err)
		}
		if err := l.flush(); err != nil {
			f.Close()
			return nil, err
		}
	} else if err := l.terminateTornRow(info.Size()); err != nil {
		f.Close()
		return nil, err
	}

	l.logger.Debug("Ledger opened", zap.String("path", path), zap.Int64("sizeBytes", info.Size()))
	return l, nil
}

// terminateTornRow ends a partially written last row with a newline so the
// next append starts on a line of its own. The fragment is then skipped as
// malformed on replay.
func (l *Ledger) terminateTornRow(size int64) error {
	last := make([]byte, 1)
	if _, err := l.file.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("failed to read ledger tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}

	l.logger.Warn("Ledger ends in a partial row, terminating it", zap.String("path", l.path))
	if _, err := l.file.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("failed to terminate partial ledger row: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return nil
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// Mark durably records that recordID was written to target
func (l *Ledger) Mark(recordID string, target model.CollectionTarget) error {
	return l.MarkBatch([]string{recordID}, target)
}

// MarkBatch durably records a batch of successful writes to target. The rows
// are flushed and synced before returning.
func (l *Ledger) MarkBatch(recordIDs []string, target model.CollectionTarget) error {
	if len(recordIDs) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	ts := l.now().UTC().Format(TimestampLayout)
	for _, id := range recordIDs {
		if err := l.writer.Write([]string{id, target.String(), "true", ts}); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}
	if err := l.flush(); err != nil {
		return err
	}

	l.logger.Debug("Marked records processed",
		zap.String("target", target.String()),
		zap.Int("records", len(recordIDs)))
	return nil
}

func (l *Ledger) flush() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return nil
}

// LoadState replays the ledger file into a State
func (l *Ledger) LoadState() (*State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoadState(l.path, l.logger)
}

// Close flushes and closes the ledger file
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return l.file.Close()
}

// LoadState reads a ledger file and returns the processed records per target.
// A missing file yields an empty state. Rows with a non-true flag or a wrong
// column count are skipped.
func LoadState(path string, logger *zap.Logger) (*State, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := NewState()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	line := 0
	malformed := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		if line == 1 && len(row) > 0 && row[0] == Header[0] {
			continue
		}
		if len(row) != len(Header) {
			malformed++
			continue
		}

		flag, err := strconv.ParseBool(strings.TrimSpace(row[2]))
		if err != nil || !flag {
			continue
		}
		state.add(model.CollectionTarget(row[1]), row[0])
	}

	if malformed > 0 {
		logger.Warn("Skipped malformed ledger rows",
			zap.String("path", path),
			zap.Int("rows", malformed))
	}
	return state, nil
}

// State is the replayed ledger: for every target, the record IDs already written
type State struct {
	processed map[model.CollectionTarget]map[string]struct{}
}

// NewState returns an empty state
func NewState() *State {
	return &State{processed: make(map[model.CollectionTarget]map[string]struct{})}
}

func (s *State) add(target model.CollectionTarget, recordID string) {
	ids, ok := s.processed[target]
	if !ok {
		ids = make(map[string]struct{})
		s.processed[target] = ids
	}
	ids[recordID] = struct{}{}
}

// Has reports whether recordID is already written to target
func (s *State) Has(target model.CollectionTarget, recordID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.processed[target][recordID]
	return ok
}

// Count returns the number of distinct records written to target
func (s *State) Count(target model.CollectionTarget) int {
	if s == nil {
		return 0
	}
	return len(s.processed[target])
}

// Targets returns the targets present in the state
func (s *State) Targets() []model.CollectionTarget {
	targets := make([]model.CollectionTarget, 0, len(s.processed))
	for t := range s.processed {
		targets = append(targets, t)
	}
	return targets
}
