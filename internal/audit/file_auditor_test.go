package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileAuditor_CreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, fa.Close()) }()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewFileAuditor_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewFileAuditor("/nonexistent/dir/audit.jsonl")
	require.Error(t, err)
}

func TestFileAuditor_Record_WritesNDJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	fa.Record(context.Background(), port.AuditEntry{
		Op:           "refresh",
		Session:      "s-1",
		Table:        "orders",
		SQL:          "SELECT * FROM orders",
		RowsReturned: 7,
		DurationMS:   42,
	})
	require.NoError(t, fa.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry fileEntry
	require.NoError(t, json.Unmarshal(data, &entry))

	assert.Equal(t, "refresh", entry.Op)
	assert.Equal(t, "s-1", entry.Session)
	assert.Equal(t, "orders", entry.Table)
	assert.Equal(t, "SELECT * FROM orders", entry.SQL)
	assert.Equal(t, 7, entry.RowsReturned)
	assert.Equal(t, int64(42), entry.DurationMS)
	assert.Nil(t, entry.Error)
	assert.NotEmpty(t, entry.Timestamp)
}

func TestFileAuditor_Record_WithViolation(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	fa.Record(context.Background(), port.AuditEntry{
		Op:        "refresh",
		Table:     "orders",
		SQL:       "SELECT * FROM orders, customers",
		Violation: "multiple_tables",
	})
	require.NoError(t, fa.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry fileEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "multiple_tables", entry.Violation)
}

func TestFileAuditor_Record_WithError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	fa.Record(context.Background(), port.AuditEntry{
		Op:  "refresh",
		SQL: "SELECT bad",
		Err: fmt.Errorf("syntax error"),
	})
	require.NoError(t, fa.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry fileEntry
	require.NoError(t, json.Unmarshal(data, &entry))

	require.NotNil(t, entry.Error)
	assert.Equal(t, "syntax error", *entry.Error)
}

func TestFileAuditor_Record_ConcurrentWrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	fa, err := NewFileAuditor(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fa.Record(context.Background(), port.AuditEntry{
				Op:  "refresh",
				SQL: fmt.Sprintf("SELECT %d", n),
			})
		}(i)
	}
	wg.Wait()
	require.NoError(t, fa.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	scanner := bufio.NewScanner(f)
	var count int
	for scanner.Scan() {
		var entry fileEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "line %d: %s", count+1, scanner.Text())
		count++
	}
	assert.Equal(t, 50, count)
}

func TestFileAuditor_Append(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	fa1, err := NewFileAuditor(path)
	require.NoError(t, err)
	fa1.Record(context.Background(), port.AuditEntry{Op: "start", Table: "orders"})
	require.NoError(t, fa1.Close())

	fa2, err := NewFileAuditor(path)
	require.NoError(t, err)
	fa2.Record(context.Background(), port.AuditEntry{Op: "end", Table: "orders"})
	require.NoError(t, fa2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	scanner := bufio.NewScanner(f)
	var count int
	for scanner.Scan() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestNoopAuditor(t *testing.T) {
	t.Parallel()
	a := NoopAuditor{}
	a.Record(context.Background(), port.AuditEntry{Op: "refresh", SQL: "SELECT 1"})
	assert.NoError(t, a.Close())
}
