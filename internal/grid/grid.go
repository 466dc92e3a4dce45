// Package grid holds the in-memory stand-in for the IDE's grid widget.
package grid

import (
	"sync"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
)

// Memory implements port.DataGrid as plain view-model state. Refresh
// replaces columns and rows wholesale; readers get copies.
type Memory struct {
	mu   sync.RWMutex
	cols []port.GridColumn
	rows [][]any
}

func NewMemory() *Memory {
	return &Memory{}
}

func (g *Memory) SetColumns(cols []port.GridColumn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cols = append([]port.GridColumn(nil), cols...)
}

func (g *Memory) SetData(rows [][]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = append([][]any(nil), rows...)
}

func (g *Memory) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cols = nil
	g.rows = nil
}

// Snapshot returns copies of the current columns and rows. Row slices are
// shared with the grid; callers must not mutate cell values.
func (g *Memory) Snapshot() ([]port.GridColumn, [][]any) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cols := append([]port.GridColumn(nil), g.cols...)
	rows := append([][]any(nil), g.rows...)
	return cols, rows
}

func (g *Memory) RowCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rows)
}
