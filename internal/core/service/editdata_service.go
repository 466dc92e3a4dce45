package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SouliyaPPS/sqlopsstudio/internal/core/domain"
	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	ErrSessionNotFound    = errors.New("edit session not found")
	ErrTableNotEditable   = errors.New("table is not editable")
	ErrRowCountNotAllowed = errors.New("row count is not one of the configured options")
	ErrShapeRejected      = errors.New("statement rejected")
)

// editSession is the mutable per-tab state of an edit-data session.
type editSession struct {
	id        string
	schema    string
	table     string
	rowCount  int
	lastQuery string
	grid      port.DataGrid
	createdAt time.Time

	// refreshMu serializes grid replacement so two concurrent refreshes
	// cannot leave the grid with columns from one query and rows from
	// another.
	refreshMu sync.Mutex
}

// SessionInfo is the caller-visible snapshot of a session.
type SessionInfo struct {
	ID        string `json:"id"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
	RowCount  int    `json:"row_count"`
	LastQuery string `json:"last_query,omitempty"`
}

// RefreshResult reports what a refresh put into the grid.
type RefreshResult struct {
	Session string            `json:"session"`
	Table   string            `json:"table"`
	SQL     string            `json:"sql"`
	Columns []port.GridColumn `json:"columns"`
	Rows    int               `json:"rows"`
}

// EditDataService orchestrates edit-data sessions: shape validation (domain),
// execution (infrastructure) and the grid/notification capabilities of the
// host. Safe for concurrent use.
type EditDataService struct {
	shape    port.ShapeValidator
	guard    port.StatementGuard
	fetcher  port.RowFetcher
	notifier port.Notifier
	auditor  port.RefreshAuditor
	policy   port.TablePolicy
	logger   *slog.Logger
	tracer   trace.Tracer
	inst     port.Instrumentation

	newGrid         func() port.DataGrid
	rowCountOptions []int
	defaultRowCount int

	mu       sync.Mutex
	sessions map[string]*editSession
}

// Options carries the wiring an EditDataService needs beyond its ports.
type Options struct {
	NewGrid         func() port.DataGrid
	RowCountOptions []int
	DefaultRowCount int
	Tracer          trace.Tracer
	Instrumentation port.Instrumentation
}

func NewEditDataService(shape port.ShapeValidator, guard port.StatementGuard, fetcher port.RowFetcher, notifier port.Notifier, auditor port.RefreshAuditor, policy port.TablePolicy, logger *slog.Logger, opts Options) *EditDataService {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if opts.Instrumentation == nil {
		opts.Instrumentation = port.NoopInstrumentation{}
	}
	if opts.DefaultRowCount <= 0 {
		opts.DefaultRowCount = 200
	}
	if len(opts.RowCountOptions) == 0 {
		opts.RowCountOptions = []int{200, 1000, 10000}
	}
	return &EditDataService{
		shape:           shape,
		guard:           guard,
		fetcher:         fetcher,
		notifier:        notifier,
		auditor:         auditor,
		policy:          policy,
		logger:          logger,
		tracer:          opts.Tracer,
		inst:            opts.Instrumentation,
		newGrid:         opts.NewGrid,
		rowCountOptions: opts.RowCountOptions,
		defaultRowCount: opts.DefaultRowCount,
		sessions:        make(map[string]*editSession),
	}
}

// RowCountOptions returns the values the row-count dropdown offers.
func (s *EditDataService) RowCountOptions() []int {
	out := make([]int, len(s.rowCountOptions))
	copy(out, s.rowCountOptions)
	return out
}

// Start opens an edit session for a table and runs the initial default query.
func (s *EditDataService) Start(ctx context.Context, schema, table string) (*SessionInfo, *RefreshResult, error) {
	if table == "" {
		return nil, nil, fmt.Errorf("table name is required")
	}
	if !s.policy.Editable(schema, table) {
		s.auditor.Record(ctx, port.AuditEntry{Op: "start", Table: table, Err: ErrTableNotEditable})
		return nil, nil, fmt.Errorf("%w: %s", ErrTableNotEditable, table)
	}

	sess := &editSession{
		id:        uuid.NewString(),
		schema:    schema,
		table:     table,
		rowCount:  s.defaultRowCount,
		grid:      s.newGrid(),
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "edit session started",
		slog.String("session", sess.id),
		slog.String("table", table),
		slog.Int("row_count", sess.rowCount),
	)

	res, err := s.Refresh(ctx, sess.id, "")
	if err != nil {
		// The session stays open — the caller may retry with an override.
		return s.info(sess), nil, err
	}
	return s.info(sess), res, nil
}

// Refresh validates the override statement against the session's table and,
// if allowed, re-runs the query and replaces the grid contents. An empty
// override means "use the default single-table query".
func (s *EditDataService) Refresh(ctx context.Context, sessionID, override string) (*RefreshResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "EditDataService.Refresh",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("editdata.session", sessionID),
			attribute.String("editdata.table", sess.table),
		),
	)
	defer span.End()

	shape := s.shape.ValidateShape(override, sess.table)
	if !shape.Valid() {
		msg := shape.Reason.Message()
		s.logger.WarnContext(ctx, "refresh rejected",
			slog.String("session", sessionID),
			slog.String("table", sess.table),
			slog.String("violation", string(shape.Reason)),
		)
		s.notifier.Notify(ctx, port.SeverityWarn, msg)
		span.SetStatus(codes.Error, msg)
		s.inst.IncrementShapeRejections(ctx)
		s.auditor.Record(ctx, port.AuditEntry{
			Op: "refresh", Session: sessionID, Table: sess.table,
			SQL: override, Violation: string(shape.Reason),
		})
		return nil, fmt.Errorf("%w: %s", ErrShapeRejected, msg)
	}

	sql := override
	if sql == "" {
		sql = defaultQuery(sess.schema, sess.table)
	}

	if err := s.guard.Check(sql); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.auditor.Record(ctx, port.AuditEntry{
			Op: "refresh", Session: sessionID, Table: sess.table, SQL: sql, Err: err,
		})
		return nil, fmt.Errorf("statement guard: %w", err)
	}

	s.mu.Lock()
	limit := sess.rowCount
	s.mu.Unlock()
	if rowCap := s.policy.MaxRows(sess.schema, sess.table, limit); rowCap < limit {
		limit = rowCap
	}

	start := time.Now()
	rs, err := s.fetcher.Fetch(ctx, sql, limit)
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordRefreshDuration(ctx, float64(durationMS))

	rows := 0
	if rs != nil {
		rows = len(rs.Rows)
	}
	s.auditor.Record(ctx, port.AuditEntry{
		Op: "refresh", Session: sessionID, Table: sess.table, SQL: sql,
		RowsReturned: rows, DurationMS: durationMS, Err: err,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.notifier.Notify(ctx, port.SeverityError, fmt.Sprintf("refresh failed: %v", err))
		return nil, fmt.Errorf("fetching rows: %w", err)
	}

	cols := gridColumns(rs.Columns, domain.ExtractColumnAliases(sql))
	sess.refreshMu.Lock()
	sess.grid.SetColumns(cols)
	sess.grid.SetData(rs.Rows)
	sess.refreshMu.Unlock()
	s.mu.Lock()
	sess.lastQuery = sql
	s.mu.Unlock()

	s.inst.IncrementRefreshCount(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", rows))

	return &RefreshResult{
		Session: sessionID,
		Table:   sess.table,
		SQL:     sql,
		Columns: cols,
		Rows:    rows,
	}, nil
}

// SetRowCount changes how many rows the next refresh loads. The value must
// be one of the configured dropdown options.
func (s *EditDataService) SetRowCount(ctx context.Context, sessionID string, n int) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, opt := range s.rowCountOptions {
		if n == opt {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %d (options: %v)", ErrRowCountNotAllowed, n, s.rowCountOptions)
	}

	s.mu.Lock()
	sess.rowCount = n
	s.mu.Unlock()

	s.auditor.Record(ctx, port.AuditEntry{Op: "set_row_count", Session: sessionID, Table: sess.table, RowsReturned: n})
	s.logger.InfoContext(ctx, "row count changed",
		slog.String("session", sessionID),
		slog.Int("row_count", n),
	)
	return s.info(sess), nil
}

// Validate runs the shape check without touching any session or the database.
func (s *EditDataService) Validate(statement, table string) domain.ShapeResult {
	return s.shape.ValidateShape(statement, table)
}

// Grid returns the session's grid for callers that render or snapshot it.
func (s *EditDataService) Grid(sessionID string) (port.DataGrid, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.grid, nil
}

// End closes the session and clears its grid.
func (s *EditDataService) End(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.grid.Clear()
	s.auditor.Record(ctx, port.AuditEntry{Op: "end", Session: sessionID, Table: sess.table})
	s.logger.InfoContext(ctx, "edit session ended", slog.String("session", sessionID))
	return nil
}

func (s *EditDataService) session(id string) (*editSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *EditDataService) info(sess *editSession) *SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &SessionInfo{
		ID:        sess.id,
		Schema:    sess.schema,
		Table:     sess.table,
		RowCount:  sess.rowCount,
		LastQuery: sess.lastQuery,
	}
}

// defaultQuery builds the session's fallback statement. Identifiers are
// double-quoted with embedded quotes doubled, so mixed-case and reserved
// names survive.
func defaultQuery(schema, table string) string {
	name := quoteIdent(table)
	if schema != "" {
		name = quoteIdent(schema) + "." + name
	}
	return "SELECT * FROM " + name
}

func quoteIdent(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}

// gridColumns resolves each result-set column back to its source table
// column. The result set already carries alias names, so the alias map
// (original → alias) is inverted here to find write-back targets.
func gridColumns(names []string, aliases map[string]string) []port.GridColumn {
	source := make(map[string]string, len(aliases))
	for orig, alias := range aliases {
		source[alias] = orig
	}
	cols := make([]port.GridColumn, len(names))
	for i, name := range names {
		src := name
		if orig, ok := source[name]; ok {
			src = orig
		}
		cols[i] = port.GridColumn{Field: name, Source: src}
	}
	return cols
}
