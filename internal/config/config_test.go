package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Valid(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, 200, cfg.DefaultRowCount)
	assert.Equal(t, []int{200, 1000, 10000}, cfg.RowCountOptions)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, "stdio", cfg.Transport)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("DEFAULT_ROW_COUNT", "1000")
	t.Setenv("ROW_COUNT_OPTIONS", "100, 1000, 5000")
	t.Setenv("QUERY_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLICY_FILE", "/tmp/policy.yaml")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.DefaultRowCount)
	assert.Equal(t, []int{100, 1000, 5000}, cfg.RowCountOptions)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/tmp/policy.yaml", cfg.PolicyFile)
}

func TestLoad_InvalidDefaultRowCount(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("DEFAULT_ROW_COUNT", "-1")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_ROW_COUNT")
}

func TestLoad_InvalidRowCountOptions(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("ROW_COUNT_OPTIONS", "100,abc")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROW_COUNT_OPTIONS")
}

func TestLoad_DefaultMustBeAnOption(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("DEFAULT_ROW_COUNT", "300")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_ROW_COUNT")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidTransport(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("TRANSPORT", "carrier-pigeon")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSPORT")
}

func TestLoad_HTTPRequiresBearerToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("TRANSPORT", "http")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_BEARER_TOKEN")
}

func TestLoad_PoolValidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("POOL_MIN_CONNS", "10")
	t.Setenv("POOL_MAX_CONNS", "5")

	_, err := Load(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POOL_MIN_CONNS")
}

func TestLoad_CLIOverridesWinOverEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("DEFAULT_ROW_COUNT", "1000")

	url := "postgres://flag/db"
	rowCount := 200
	cfg, err := Load(Overrides{
		DatabaseURL:     &url,
		DefaultRowCount: &rowCount,
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres://flag/db", cfg.DatabaseURL)
	assert.Equal(t, 200, cfg.DefaultRowCount)
}

func TestLoad_CheckFileModeSkipsDatabaseValidation(t *testing.T) {
	cfg, err := Load(Overrides{
		CheckFile:  "script.sql",
		CheckTable: "orders",
	})
	require.NoError(t, err)
	assert.Equal(t, "script.sql", cfg.CheckFile)
	assert.Equal(t, "orders", cfg.CheckTable)
}

func TestLoad_CheckFileRequiresTable(t *testing.T) {
	_, err := Load(Overrides{CheckFile: "script.sql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--check-table")
}

func TestLoad_RowCountOptionsOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	opts := "500,2000"
	n := 500
	cfg, err := Load(Overrides{RowCountOptions: &opts, DefaultRowCount: &n})
	require.NoError(t, err)
	assert.Equal(t, []int{500, 2000}, cfg.RowCountOptions)
	assert.Equal(t, 500, cfg.DefaultRowCount)
}
