package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fetcher loads edit-grid pages. Every query runs inside a read-only
// transaction with a server-side statement timeout; the shape validator is
// advisory, this layer is the enforcement.
type Fetcher struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewFetcher(pool *pgxpool.Pool, queryTimeout time.Duration) *Fetcher {
	return &Fetcher{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

// Fetch executes sql and returns at most limit rows in column order. The
// limit is applied by wrapping the statement in a subquery, so a user's own
// LIMIT still applies if smaller.
func (f *Fetcher) Fetch(ctx context.Context, sql string, limit int) (*port.RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.queryTimeout)
	defer cancel()

	wrappedSQL := fmt.Sprintf("SELECT * FROM (%s) AS _rows LIMIT %d", sql, limit)

	tx, err := f.pool.BeginTx(ctx, pgx.TxOptions{
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Enforce the timeout at the database level so PostgreSQL cancels the
	// query server-side even if the Go context is cancelled first.
	// SET LOCAL scopes to this transaction only.
	timeoutMS := f.queryTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%d'", timeoutMS)); err != nil {
		return nil, fmt.Errorf("setting statement timeout: %w", err)
	}

	rows, err := tx.Query(ctx, wrappedSQL)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	rs, err := rowsToSet(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return rs, nil
}
