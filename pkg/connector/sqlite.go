// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

// SQLiteConnector reads from a local SQLite file, mostly for exports and tests
type SQLiteConnector struct {
	baseConnector
	path string
}

// NewSQLiteConnector opens path. The pool is pinned to a single connection
// so ":memory:" databases stay visible across statements.
func NewSQLiteConnector(ctx context.Context, path string) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")
	logger.Info("Opening SQLite source", zap.String("path", path))

	db, err := open(ctx, config.DriverSQLite, path, PoolSettings{MaxOpenConns: 1, MaxIdleConns: 1}, 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &SQLiteConnector{
		baseConnector: baseConnector{db: db, driver: config.DriverSQLite, name: path, logger: logger},
		path:          path,
	}, nil
}

// Validate checks the library version
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT sqlite_version()"); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite", zap.String("version", version), zap.String("path", c.path))
	return nil
}
