package port

import "context"

// AuditEntry represents a single auditable refresh event.
type AuditEntry struct {
	Op           string // "start", "refresh", "set_row_count", "end"
	Session      string
	Table        string
	SQL          string
	Violation    string // shape violation kind, empty when the statement passed
	RowsReturned int
	DurationMS   int64
	Err          error
}

// RefreshAuditor records edit-session audit events.
type RefreshAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}
