package port

import "context"

// RowSet is one page of query results in column order.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// RowFetcher executes a read-only query and returns at most limit rows.
type RowFetcher interface {
	Fetch(ctx context.Context, sql string, limit int) (*RowSet, error)
}
