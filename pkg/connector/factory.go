// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

// ConnectorFactory creates the source connector selected by SOURCE_DRIVER
type ConnectorFactory struct {
	cfg    *config.SourceConfig
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.SourceConfig, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateConnector opens and validates the configured source
func (f *ConnectorFactory) CreateConnector(ctx context.Context) (SourceConnector, error) {
	f.logger.Info("Creating source connector", zap.String("driver", f.cfg.Driver))

	var (
		conn SourceConnector
		err  error
	)
	switch f.cfg.Driver {
	case config.DriverPostgres, config.DriverPgx:
		if f.cfg.Postgres == nil {
			return nil, fmt.Errorf("PostgreSQL configuration missing for driver %q", f.cfg.Driver)
		}
		conn, err = NewPostgresConnector(ctx, f.cfg.Driver, f.cfg.Postgres)
	case config.DriverSnowflake:
		if f.cfg.Snowflake == nil {
			return nil, fmt.Errorf("Snowflake configuration missing")
		}
		conn, err = NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.cfg.QueryTimeout)
	case config.DriverSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported source driver %q", f.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", f.cfg.Driver, err)
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to validate %s connector: %w", f.cfg.Driver, err)
	}
	return conn, nil
}

// CreateRecordReader opens the source and returns a reader over the breakdown
// table. The caller closes the returned connector.
func (f *ConnectorFactory) CreateRecordReader(ctx context.Context) (*RecordReader, SourceConnector, error) {
	conn, err := f.CreateConnector(ctx)
	if err != nil {
		return nil, nil, err
	}
	return NewRecordReader(conn, f.cfg.Table, f.cfg.QueryTimeout, f.logger), conn, nil
}
