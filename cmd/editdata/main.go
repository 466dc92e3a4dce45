package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SouliyaPPS/sqlopsstudio/internal/adapter/mcp"
	"github.com/SouliyaPPS/sqlopsstudio/internal/adapter/postgres"
	"github.com/SouliyaPPS/sqlopsstudio/internal/audit"
	"github.com/SouliyaPPS/sqlopsstudio/internal/config"
	"github.com/SouliyaPPS/sqlopsstudio/internal/core/domain"
	"github.com/SouliyaPPS/sqlopsstudio/internal/core/port"
	"github.com/SouliyaPPS/sqlopsstudio/internal/core/service"
	"github.com/SouliyaPPS/sqlopsstudio/internal/grid"
	"github.com/SouliyaPPS/sqlopsstudio/internal/notify"
	"github.com/SouliyaPPS/sqlopsstudio/internal/policy"
	"github.com/SouliyaPPS/sqlopsstudio/internal/telemetry"
	"github.com/SouliyaPPS/sqlopsstudio/internal/textenc"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses CLI flags into config.Overrides. Pointer fields are set
// only for flags that were actually given, so env vars keep their precedence.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("editdata", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	databaseURL := fs.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	defaultRowCount := fs.Int("default-row-count", 0, "rows the initial query loads")
	rowCountOptions := fs.String("row-count-options", "", "comma-separated row-count dropdown values")
	queryTimeout := fs.Duration("query-timeout", 0, "per-query timeout, e.g. 30s")
	policyFile := fs.String("policy-file", "", "path to editable-table policy YAML")
	transport := fs.String("transport", "", `transport: "stdio" or "http"`)
	httpAddr := fs.String("http-addr", "", "listen address for HTTP transport")
	httpBearerToken := fs.String("http-bearer-token", "", "bearer token required by HTTP transport")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	poolMaxConns := fs.Int("pool-max-conns", 0, "maximum pool connections")
	poolMinConns := fs.Int("pool-min-conns", 0, "minimum pool connections")
	poolMaxConnLifetime := fs.Duration("pool-max-conn-lifetime", 0, "maximum connection lifetime")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")
	checkFile := fs.String("check-file", "", "validate the statement in this file and exit")
	checkTable := fs.String("check-table", "", "expected table for --check-file")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	o := config.Overrides{
		OTelEnabled: *otelEnabled,
		AuditLog:    *auditLog,
		CheckFile:   *checkFile,
		CheckTable:  *checkTable,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "database-url":
			o.DatabaseURL = databaseURL
		case "log-level":
			o.LogLevel = logLevel
		case "default-row-count":
			o.DefaultRowCount = defaultRowCount
		case "row-count-options":
			o.RowCountOptions = rowCountOptions
		case "query-timeout":
			o.QueryTimeout = queryTimeout
		case "policy-file":
			o.PolicyFile = policyFile
		case "transport":
			o.Transport = transport
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http-bearer-token":
			o.HTTPBearerToken = httpBearerToken
		case "pool-max-conns":
			n := int32(*poolMaxConns)
			o.PoolMaxConns = &n
		case "pool-min-conns":
			n := int32(*poolMinConns)
			o.PoolMinConns = &n
		case "pool-max-conn-lifetime":
			o.PoolMaxConnLifetime = poolMaxConnLifetime
		}
	})
	return o, nil
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// One-shot mode: validate a statement file and exit.
	if cfg.CheckFile != "" {
		return runCheckFile(cfg)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting editdata",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("transport", cfg.Transport),
		slog.Int("default_row_count", cfg.DefaultRowCount),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Observability.
	tracer := telemetry.NoopTracer()
	var inst port.Instrumentation = telemetry.NoopInstruments()
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: "sqlops-editdata",
			Version:     version,
			Transport:   cfg.Transport,
		})
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown", slog.String("error", err.Error()))
			}
		}()
		tracer = otel.Tracer("sqlops-editdata")
		inst = telemetry.NewInstruments()
		logger.Info("telemetry enabled")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.PoolMaxConns, cfg.PoolMinConns, cfg.PoolMaxConnLifetime)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	logger.Info("database pool connected",
		slog.String("db.system", "postgresql"),
		slog.String("dsn", redactDSN(cfg.DatabaseURL)),
	)

	// Policy (optional).
	var tablePolicy port.TablePolicy = policy.AllowAll{}
	if cfg.PolicyFile != "" {
		pol, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		tablePolicy = pol
		logger.Info("policy loaded", slog.String("file", cfg.PolicyFile))
	}

	// Audit log (optional).
	var auditor port.RefreshAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fileAuditor, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() { _ = fileAuditor.Close() }()
		auditor = fileAuditor
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	// Adapters and services.
	fetcher := postgres.NewFetcher(pool, cfg.QueryTimeout)
	editSvc := service.NewEditDataService(
		domain.NewShapeValidator(),
		domain.NewStatementGuard(),
		fetcher,
		notify.NewLogger(logger),
		auditor,
		tablePolicy,
		logger,
		service.Options{
			NewGrid:         func() port.DataGrid { return grid.NewMemory() },
			RowCountOptions: cfg.RowCountOptions,
			DefaultRowCount: cfg.DefaultRowCount,
			Tracer:          tracer,
			Instrumentation: inst,
		},
	)

	mcpServer := mcp.NewServer(version, editSvc, logger, tracer, inst)

	if cfg.Transport == "http" {
		return serveHTTP(ctx, cfg, mcpServer, logger)
	}

	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// runCheckFile validates the statement in cfg.CheckFile against
// cfg.CheckTable without touching any database. Files saved by editors in
// UTF-16 (with or without a BOM) are decoded transparently.
func runCheckFile(cfg *config.Config) error {
	raw, err := os.ReadFile(cfg.CheckFile)
	if err != nil {
		return fmt.Errorf("reading statement file: %w", err)
	}

	stmt, err := textenc.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", cfg.CheckFile, err)
	}

	res := domain.ValidateShape(stmt, cfg.CheckTable)
	if !res.Valid() {
		return fmt.Errorf("%s: %s", res.Reason, res.Reason.Message())
	}

	fmt.Printf("%s: statement is a valid single-table query over %q\n", cfg.CheckFile, cfg.CheckTable)
	return nil
}

// serveHTTP runs the MCP server over streamable HTTP with bearer auth on the
// MCP endpoint and an unauthenticated health check.
func serveHTTP(ctx context.Context, cfg *config.Config, mcpServer *mcpserver.MCPServer, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpServer)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/mcp", bearerAuthMiddleware(streamable, cfg.HTTPBearerToken))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           recoveryMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", slog.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// redactDSN masks the password in a connection string for logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
