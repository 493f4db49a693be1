// Package target holds demo scenario bodies that exercise pacer against a
// real backend. Postgres is the one shipped here; any func(context.Context)
// error works as a scenario body, so this package is illustrative rather
// than load-bearing for the engine itself.
package target

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loadwright/pacer/internal/resilience"
)

// PostgresConfig describes how to reach the target database.
type PostgresConfig struct {
	Host, User, Password, Database, SSLMode string
	Port                                    int
	PoolSize                                int
}

// dsn builds a libpq-style connection string from cfg.
func (c PostgresConfig) dsn() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%d dbname=%s sslmode=%s pool_max_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode, c.PoolSize,
	)
}

// NewPostgresPool opens a pgx connection pool and verifies connectivity.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("target: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("target: ping database: %w", err)
	}
	return pool, nil
}

// Postgres builds a scenario body that runs query against pool. Connection
// acquisition is guarded by a circuit breaker — a burst of connection
// failures trips it and fails fast rather than piling up pool-exhaustion
// errors — but the query's own success or failure is never shielded: it
// must always reach the transaction hook's counters unshielded, since the
// engine's error-rate and latency controllers depend on every outcome.
func Postgres(pool *pgxpool.Pool, query string, breaker *resilience.CircuitBreaker) func(context.Context) error {
	return func(ctx context.Context) error {
		var conn *pgxpool.Conn
		err := breaker.ExecuteWithContext(ctx, func(ctx context.Context) error {
			c, acquireErr := pool.Acquire(ctx)
			if acquireErr != nil {
				return acquireErr
			}
			conn = c
			return nil
		})
		if err != nil {
			return err
		}
		defer conn.Release()

		_, err = conn.Exec(ctx, query)
		return err
	}
}
