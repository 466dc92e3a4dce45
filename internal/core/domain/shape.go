package domain

import "strings"

// ShapeViolation identifies why a statement is not editable-shape.
// The zero value means the statement passed.
type ShapeViolation string

const (
	ViolationNone          ShapeViolation = ""
	ViolationNoFromClause  ShapeViolation = "no_from_clause"
	ViolationAggregation   ShapeViolation = "aggregation_not_supported"
	ViolationMultipleTable ShapeViolation = "multiple_tables"
	ViolationTableMismatch ShapeViolation = "table_name_mismatch"
)

// Message returns the user-facing text shown when a refresh is rejected.
func (v ShapeViolation) Message() string {
	switch v {
	case ViolationNoFromClause:
		return "query has no FROM clause"
	case ViolationAggregation:
		return "aggregated results are not supported"
	case ViolationMultipleTable:
		return "querying from multiple tables is not supported"
	case ViolationTableMismatch:
		return "query did not reference the original table"
	}
	return ""
}

// ClauseSpan is a half-open byte range [Start, End) locating a clause
// within the statement text.
type ClauseSpan struct {
	Start int
	End   int
}

// ShapeResult is the outcome of a shape validation.
type ShapeResult struct {
	Reason ShapeViolation
	// TableList spans the region between FROM and the first WHERE,
	// ORDER BY or OPTION clause. Zero when no FROM clause was found.
	TableList ClauseSpan
}

func (r ShapeResult) Valid() bool { return r.Reason == ViolationNone }

// ShapeValidator checks that a statement keeps the restricted shape an
// edit-data session supports: one table, no joins, no aggregation. It is
// stateless; the zero value is ready to use.
type ShapeValidator struct{}

func NewShapeValidator() *ShapeValidator {
	return &ShapeValidator{}
}

func (ShapeValidator) ValidateShape(statement, expectedTable string) ShapeResult {
	return ValidateShape(statement, expectedTable)
}

// ValidateShape decides whether statement is a single-table, non-aggregated
// query over expectedTable. An empty (or comment-only) statement is valid —
// it means "use the default query". This is advisory gating for the edit
// grid, not an execution-safety check; the data layer enforces its own
// read-only guarantees.
//
// The scan is lexical, not a full parse: FROM inside a string literal or a
// comment never counts, and the expected table name must appear as a whole
// identifier in the table list, never as a substring of a longer name.
func ValidateShape(statement, expectedTable string) ShapeResult {
	toks := scanTokens(statement)
	if len(toks) == 0 {
		return ShapeResult{}
	}

	fromIdx, ok := findKeyword(toks, 0, "FROM")
	if !ok {
		return ShapeResult{Reason: ViolationNoFromClause}
	}
	rest := toks[fromIdx+1:]

	// GROUP BY or HAVING anywhere after FROM disqualifies the statement,
	// including inside subqueries: editing rows of an aggregate is
	// meaningless, and rejecting early keeps the rule predictable.
	if hasKeywordPair(rest, "GROUP", "BY") || hasAnyKeyword(rest, "HAVING") {
		return ShapeResult{Reason: ViolationAggregation}
	}

	// The table list ends at the first WHERE, ORDER BY or OPTION clause
	// at nesting depth zero; absent clauses simply don't bound it.
	end := len(rest)
	if i, ok := findClauseBoundary(rest); ok {
		end = i
	}
	tableList := rest[:end]

	span := ClauseSpan{Start: toks[fromIdx].end, End: len(statement)}
	if end < len(rest) {
		span.End = rest[end].start
	}

	depth := 0
	for _, t := range tableList {
		switch t.kind {
		case tokenLParen:
			depth++
		case tokenRParen:
			depth--
		case tokenComma:
			if depth == 0 {
				return ShapeResult{Reason: ViolationMultipleTable, TableList: span}
			}
		case tokenWord:
			if depth == 0 && strings.EqualFold(t.text, "JOIN") {
				return ShapeResult{Reason: ViolationMultipleTable, TableList: span}
			}
		}
	}

	if !tableListReferences(tableList, expectedTable) {
		return ShapeResult{Reason: ViolationTableMismatch, TableList: span}
	}

	return ShapeResult{TableList: span}
}

// findKeyword returns the index of the first unquoted word equal to kw,
// starting at from.
func findKeyword(toks []token, from int, kw string) (int, bool) {
	for i := from; i < len(toks); i++ {
		if toks[i].keywordIs(kw) {
			return i, true
		}
	}
	return 0, false
}

// findClauseBoundary locates the first WHERE, ORDER BY or OPTION keyword at
// parenthesis depth zero. Depth matters here: a WHERE inside a derived-table
// subquery does not end the outer table list.
func findClauseBoundary(toks []token) (int, bool) {
	depth := 0
	for i, t := range toks {
		switch t.kind {
		case tokenLParen:
			depth++
		case tokenRParen:
			depth--
		case tokenWord:
			if depth != 0 {
				continue
			}
			if strings.EqualFold(t.text, "WHERE") || strings.EqualFold(t.text, "OPTION") {
				return i, true
			}
			if strings.EqualFold(t.text, "ORDER") && i+1 < len(toks) && toks[i+1].keywordIs("BY") {
				return i, true
			}
		}
	}
	return 0, false
}

func hasAnyKeyword(toks []token, kw string) bool {
	_, ok := findKeyword(toks, 0, kw)
	return ok
}

// hasKeywordPair reports whether two unquoted words appear adjacently,
// e.g. GROUP immediately followed by BY.
func hasKeywordPair(toks []token, first, second string) bool {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].keywordIs(first) && toks[i+1].keywordIs(second) {
			return true
		}
	}
	return false
}

// tableListReferences reports whether expectedTable appears as a whole
// identifier in the table list. Qualified names match on any component, so
// "dbo.Orders" and [Orders] both reference Orders. Comparison is
// case-insensitive for quoted and unquoted forms alike — the edit session
// tracks the table by name, not by catalog identity.
func tableListReferences(toks []token, expectedTable string) bool {
	want := expectedTable
	for _, t := range toks {
		if id := t.identifier(); id != "" && strings.EqualFold(id, want) {
			return true
		}
	}
	return false
}
