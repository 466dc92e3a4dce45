package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePolicy = `
default_editable: true
tables:
  public.orders:
    editable: true
    max_rows: 500
  public.audit_log:
    editable: false
  sessions:
    editable: false
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePolicy))
	require.NoError(t, err)

	assert.True(t, p.Editable("public", "orders"))
	assert.False(t, p.Editable("public", "audit_log"))
	assert.True(t, p.Editable("public", "customers"), "unlisted table follows default_editable")

	assert.Equal(t, 500, p.MaxRows("public", "orders", 1000))
	assert.Equal(t, 1000, p.MaxRows("public", "customers", 1000), "no cap falls back")
}

func TestParse_BareTableKeyMatchesAnySchema(t *testing.T) {
	p, err := Parse([]byte(samplePolicy))
	require.NoError(t, err)

	assert.False(t, p.Editable("public", "sessions"))
	assert.False(t, p.Editable("sales", "sessions"))
	assert.False(t, p.Editable("", "sessions"))
}

func TestParse_DefaultNotEditable(t *testing.T) {
	p, err := Parse([]byte("default_editable: false\ntables:\n  orders:\n    editable: true\n"))
	require.NoError(t, err)

	assert.True(t, p.Editable("public", "orders"))
	assert.False(t, p.Editable("public", "customers"))
}

func TestParse_NegativeMaxRows(t *testing.T) {
	_, err := Parse([]byte("tables:\n  orders:\n    max_rows: -1\n"))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("tables: ["))
	assert.Error(t, err)
}

func TestAllowAll(t *testing.T) {
	p := AllowAll{}
	assert.True(t, p.Editable("any", "thing"))
	assert.Equal(t, 200, p.MaxRows("any", "thing", 200))
}
