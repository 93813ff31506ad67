package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/agentconsole/database"
)

// PoolOptions sizes the connection pool. Zero values keep pgxpool defaults.
type PoolOptions struct {
	MaxConns        int32
	MaxConnIdleTime time.Duration
}

// Connection is the session database pool.
type Connection struct {
	*pgxpool.Pool
}

// NewConnection migrates the schema at dsn and opens a pool to it.
func NewConnection(ctx context.Context, dsn string, opts PoolOptions) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		conf.MaxConns = opts.MaxConns
	}
	if opts.MaxConnIdleTime > 0 {
		conf.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	return &Connection{Pool: pool}, nil
}

func (c *Connection) Close() error {
	if c.Pool != nil {
		c.Pool.Close()
	}
	return nil
}

// Ping is the health probe of the postgres session backend.
func (c *Connection) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return errors.New("session database is not connected")
	}
	return c.Pool.Ping(ctx)
}
