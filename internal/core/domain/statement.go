package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyStatement = errors.New("empty statement")
	ErrNotSelect      = errors.New("only SELECT statements can back an edit session")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
	ErrParseFailed    = errors.New("failed to parse SQL")
	ErrNotFound       = errors.New("not found")
)

// StatementGuard is the execution-side gate: before a refresh query reaches
// the database it must parse as exactly one SELECT statement under the real
// PostgreSQL grammar. The lexical shape validator runs first and produces the
// user-facing messages; this guard is the hard stop behind it.
type StatementGuard struct{}

func NewStatementGuard() *StatementGuard {
	return &StatementGuard{}
}

// Check parses the SQL and rejects anything that isn't a single SELECT statement.
func (g *StatementGuard) Check(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyStatement
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	if len(tree.Stmts) == 0 {
		return ErrEmptyStatement
	}

	if len(tree.Stmts) > 1 {
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyStatement
	}

	if _, ok := stmt.Node.(*pg_query.Node_SelectStmt); !ok {
		return ErrNotSelect
	}
	return nil
}
