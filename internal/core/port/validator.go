package port

import "github.com/SouliyaPPS/sqlopsstudio/internal/core/domain"

// ShapeValidator decides whether an override statement keeps the restricted
// shape an edit-data session supports.
type ShapeValidator interface {
	ValidateShape(statement, expectedTable string) domain.ShapeResult
}

// StatementGuard gates SQL before it reaches the database.
type StatementGuard interface {
	Check(sql string) error
}
