package postgres

import (
	"fmt"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/jackc/pgx/v5"
)

// rowsToSet drains pgx.Rows into a positional RowSet. The grid needs column
// order preserved, so values stay in slices rather than maps.
func rowsToSet(rows pgx.Rows) (*port.RowSet, error) {
	fields := rows.FieldDescriptions()
	rs := &port.RowSet{
		Columns: make([]string, len(fields)),
	}
	for i, fd := range fields {
		rs.Columns[i] = fd.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		row := make([]any, len(vals))
		copy(row, vals)
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return rs, nil
}
