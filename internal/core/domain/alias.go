package domain

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ExtractColumnAliases parses a SELECT statement and returns a map of
// original column name → alias for every target that uses an AS clause.
// The grid uses this to title columns the way the user wrote them
// (e.g. "Email" AS contact shows a "contact" header over the Email field).
// Only simple column references count; expressions never map back to an
// editable column. Returns an empty map on parse error — a statement that
// fails to parse here has already been rejected for execution.
func ExtractColumnAliases(sql string) map[string]string {
	aliases := make(map[string]string)

	tree, err := pg_query.Parse(sql)
	if err != nil || len(tree.Stmts) == 0 {
		return aliases
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return aliases
	}

	sel, ok := stmt.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return aliases
	}

	for _, target := range sel.SelectStmt.TargetList {
		rt, ok := target.Node.(*pg_query.Node_ResTarget)
		if !ok || rt.ResTarget == nil {
			continue
		}

		alias := rt.ResTarget.Name
		if alias == "" || rt.ResTarget.Val == nil {
			continue
		}

		if col := columnRefName(rt.ResTarget.Val); col != "" && col != alias {
			aliases[col] = alias
		}
	}

	return aliases
}

// columnRefName returns the bare column name of a simple column reference,
// or "" for anything else. The last field carries the column:
// "Email" → [String{"Email"}], c."Email" → [String{"c"}, String{"Email"}].
func columnRefName(val *pg_query.Node) string {
	cr, ok := val.Node.(*pg_query.Node_ColumnRef)
	if !ok || cr.ColumnRef == nil {
		return ""
	}

	fields := cr.ColumnRef.Fields
	if len(fields) == 0 {
		return ""
	}

	str, ok := fields[len(fields)-1].Node.(*pg_query.Node_String_)
	if !ok || str.String_ == nil {
		return ""
	}
	return str.String_.Sval
}
