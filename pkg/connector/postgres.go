// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

// PostgresConnector reads from PostgreSQL through either lib/pq ("postgres")
// or the pgx stdlib adapter ("pgx")
type PostgresConnector struct {
	baseConnector
	cfg *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, driver string, cfg *config.PostgresConfig) (*PostgresConnector, error) {
	if driver != config.DriverPostgres && driver != config.DriverPgx {
		return nil, fmt.Errorf("unsupported PostgreSQL driver %q", driver)
	}
	logger := zap.L().Named(driver + "-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("driver", driver),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	pool := PoolSettings{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	db, err := open(ctx, driver, cfg.ConnectionString(), pool, 5*time.Second)
	if err != nil {
		return nil, err
	}

	connector := &PostgresConnector{
		baseConnector: baseConnector{db: db, driver: driver, name: cfg.Database, logger: logger},
		cfg:           cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// Validate checks the server version
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}

	c.logger.Info("Connected to PostgreSQL",
		zap.String("version", version),
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host))
	return nil
}

// QuoteTable quotes each part so mixed-case names such as MachineBreakdowns resolve
func (c *PostgresConnector) QuoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, part := range parts {
		parts[i] = `"` + part + `"`
	}
	return strings.Join(parts, ".")
}
