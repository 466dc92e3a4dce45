// Package policy loads operator-controlled rules about which tables may
// back an edit session.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the editable-table rules loaded from a YAML file.
//
//	default_editable: true
//	tables:
//	  public.orders:
//	    editable: true
//	    max_rows: 500
//	  public.audit_log:
//	    editable: false
//
// Table keys are "schema.table"; a bare "table" key applies to any schema.
type Policy struct {
	DefaultEditable bool                 `yaml:"default_editable"`
	Tables          map[string]TableRule `yaml:"tables"`
}

// TableRule configures a single table.
type TableRule struct {
	Editable bool `yaml:"editable"`
	MaxRows  int  `yaml:"max_rows,omitempty"`
}

// LoadFromFile reads and parses a policy YAML file.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes policy YAML.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}
	for name, rule := range p.Tables {
		if rule.MaxRows < 0 {
			return nil, fmt.Errorf("table %q: max_rows must not be negative", name)
		}
	}
	return &p, nil
}

func (p *Policy) rule(schema, table string) (TableRule, bool) {
	if schema != "" {
		if r, ok := p.Tables[schema+"."+table]; ok {
			return r, true
		}
	}
	r, ok := p.Tables[table]
	return r, ok
}

// Editable reports whether the table may back an edit session. Tables
// without an explicit rule follow default_editable.
func (p *Policy) Editable(schema, table string) bool {
	if r, ok := p.rule(schema, table); ok {
		return r.Editable
	}
	return p.DefaultEditable
}

// MaxRows returns the table's row cap, or fallback when the policy sets none.
func (p *Policy) MaxRows(schema, table string, fallback int) int {
	if r, ok := p.rule(schema, table); ok && r.MaxRows > 0 {
		return r.MaxRows
	}
	return fallback
}

// AllowAll is the policy used when no policy file is configured: every
// table is editable and no extra row cap applies.
type AllowAll struct{}

func (AllowAll) Editable(string, string) bool { return true }

func (AllowAll) MaxRows(_, _ string, fallback int) int { return fallback }
