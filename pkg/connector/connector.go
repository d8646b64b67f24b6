// pkg/connector/connector.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SourceConnector is an open connection to the store holding breakdown records
type SourceConnector interface {
	// DB returns the underlying connection pool
	DB() *sqlx.DB

	// Driver returns the database/sql driver name
	Driver() string

	// Validate verifies the connection and logs server details
	Validate(ctx context.Context) error

	// QuoteTable renders a validated table name for use in a statement
	QuoteTable(table string) string

	// Close closes the connection and releases resources
	Close() error
}

// PoolSettings holds connection pool limits
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// baseConnector carries what every driver shares
type baseConnector struct {
	db     *sqlx.DB
	driver string
	name   string
	logger *zap.Logger
}

func (c *baseConnector) DB() *sqlx.DB {
	return c.db
}

func (c *baseConnector) Driver() string {
	return c.driver
}

func (c *baseConnector) QuoteTable(table string) string {
	return table
}

func (c *baseConnector) Close() error {
	c.logger.Info("Closing source connection", zap.String("driver", c.driver))
	LogConnectionStats(c.logger, c.name, c.db)
	return c.db.Close()
}

// open opens and pings a pool for driver, closing it again when the ping fails
func open(ctx context.Context, driver, dsn string, pool PoolSettings, timeout time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", driver, err)
	}

	ApplyConnectionSettings(db, pool)

	if err := PingWithTimeout(ctx, db, timeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sqlx.DB) {
	stats := db.Stats()
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("openConnections", stats.OpenConnections),
		zap.Int("inUse", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("maxOpen", stats.MaxOpenConnections),
		zap.Int64("waitCount", stats.WaitCount),
		zap.Duration("waitDuration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sqlx.DB, pool PoolSettings) {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}
}
