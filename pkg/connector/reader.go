// pkg/connector/reader.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// canonicalColumns maps lower-cased column names to the names the sanitizer
// expects, so warehouses that upper-case identifiers still line up.
var canonicalColumns = func() map[string]string {
	m := make(map[string]string, len(model.ExpectedColumns))
	for _, name := range model.ExpectedColumns {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// RecordReader loads the full breakdown table into memory
type RecordReader struct {
	conn    SourceConnector
	table   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRecordReader creates a reader over table. A non-positive timeout disables
// the read deadline.
func NewRecordReader(conn SourceConnector, table string, timeout time.Duration, logger *zap.Logger) *RecordReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordReader{
		conn:    conn,
		table:   table,
		timeout: timeout,
		logger:  logger.Named("record-reader"),
	}
}

// ReadAll returns every row of the table keyed by column name
func (r *RecordReader) ReadAll(ctx context.Context) ([]model.SourceRecord, error) {
	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	query := "SELECT * FROM " + r.conn.QuoteTable(r.table)
	rows, err := r.conn.DB().QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", r.table, err)
	}
	defer rows.Close()

	metadata, err := r.metadataOf(rows.Rows)
	if err != nil {
		return nil, err
	}
	r.warnMissing(metadata)

	var records []model.SourceRecord
	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(records)+1, err)
		}
		records = append(records, normalizeRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table %s: %w", r.table, err)
	}

	r.logger.Info("Read source records",
		zap.String("table", r.table),
		zap.String("driver", r.conn.Driver()),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)))
	return records, nil
}

// Describe returns the column layout of the table without reading rows
func (r *RecordReader) Describe(ctx context.Context) (*model.TableMetadata, error) {
	query := "SELECT * FROM " + r.conn.QuoteTable(r.table) + " WHERE 1 = 0"
	rows, err := r.conn.DB().QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", r.table, err)
	}
	defer rows.Close()

	return r.metadataOf(rows.Rows)
}

func (r *RecordReader) metadataOf(rows *sql.Rows) (*model.TableMetadata, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %s: %w", r.table, err)
	}

	metadata := &model.TableMetadata{Table: r.table, Columns: make([]model.Column, 0, len(types))}
	for _, ct := range types {
		nullable, _ := ct.Nullable()
		metadata.Columns = append(metadata.Columns, model.Column{
			Name:     canonicalColumn(ct.Name()),
			DataType: ct.DatabaseTypeName(),
			Nullable: nullable,
		})
	}
	return metadata, nil
}

func (r *RecordReader) warnMissing(metadata *model.TableMetadata) {
	missing := metadata.MissingColumns(model.ExpectedColumns)
	if len(missing) == 0 {
		return
	}
	r.logger.Warn("Source table is missing expected columns, defaults will apply",
		zap.String("table", r.table),
		zap.Strings("missingColumns", missing))
}

// normalizeRow renames columns to their canonical spelling and turns driver
// byte slices into strings
func normalizeRow(raw map[string]interface{}) model.SourceRecord {
	record := make(model.SourceRecord, len(raw))
	for name, value := range raw {
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		record[canonicalColumn(name)] = value
	}
	return record
}

func canonicalColumn(name string) string {
	if canonical, ok := canonicalColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical
	}
	return name
}

