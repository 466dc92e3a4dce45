package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		table     string
		want      ShapeViolation
	}{
		{"empty statement is valid", "", "Orders", ViolationNone},
		{"whitespace only is valid", "   \n\t  ", "Orders", ViolationNone},
		{"comment only is valid", "-- refresh later\n/* nothing yet */", "Orders", ViolationNone},
		{"plain select", "SELECT * FROM Orders", "Orders", ViolationNone},
		{"with where and order by", "SELECT * FROM Orders WHERE Id = 1 ORDER BY Id", "Orders", ViolationNone},
		{"lowercase keywords", "select id, total from orders where id > 5", "Orders", ViolationNone},
		{"no from clause", "SELECT 1 + 1", "Orders", ViolationNoFromClause},
		{"from only in string literal", "SELECT 'FROM Orders'", "Orders", ViolationNoFromClause},
		{"from only in line comment", "SELECT 1 -- FROM Orders", "Orders", ViolationNoFromClause},
		{"from only in block comment", "SELECT 1 /* FROM Orders */", "Orders", ViolationNoFromClause},
		{"group by", "SELECT * FROM Orders GROUP BY CustomerId", "Orders", ViolationAggregation},
		{"having without group by", "SELECT * FROM Orders HAVING count(*) > 1", "Orders", ViolationAggregation},
		{"group by after order by", "SELECT * FROM Orders ORDER BY Id GROUP BY Id", "Orders", ViolationAggregation},
		{"group by inside subquery still rejects", "SELECT * FROM Orders WHERE Id IN (SELECT Id FROM Orders GROUP BY Id)", "Orders", ViolationAggregation},
		{"multiple tables", "SELECT * FROM Orders, Customers", "Orders", ViolationMultipleTable},
		{"join counts as multiple tables", "SELECT * FROM Orders JOIN Customers ON Customers.Id = Orders.CustomerId", "Orders", ViolationMultipleTable},
		{"comma inside where does not count", "SELECT * FROM Orders WHERE Id IN (1, 2, 3)", "Orders", ViolationNone},
		{"comma inside function call does not count", "SELECT * FROM some_func(1, 2)", "some_func", ViolationNone},
		{"wrong table", "SELECT * FROM Customers WHERE Id = 1", "Orders", ViolationTableMismatch},
		{"table name as substring does not match", "SELECT * FROM OrdersArchive", "Orders", ViolationTableMismatch},
		{"table name as prefixed substring does not match", "SELECT * FROM OldOrders", "Orders", ViolationTableMismatch},
		{"schema qualified", "SELECT * FROM dbo.Orders", "Orders", ViolationNone},
		{"bracket quoted", "SELECT * FROM [Orders]", "Orders", ViolationNone},
		{"double quoted", `SELECT * FROM "Orders"`, "Orders", ViolationNone},
		{"backtick quoted", "SELECT * FROM `Orders`", "Orders", ViolationNone},
		{"quoted with schema", `SELECT * FROM "sales"."Orders" WHERE Id = 1`, "Orders", ViolationNone},
		{"case-insensitive table match", "SELECT * FROM ORDERS", "orders", ViolationNone},
		{"table name only in string literal", "SELECT 'Orders' FROM Customers", "Orders", ViolationTableMismatch},
		{"option clause bounds the table list", "SELECT * FROM Orders OPTION (FAST 10)", "Orders", ViolationNone},
		{"table alias", "SELECT o.Id FROM Orders o WHERE o.Id = 1", "Orders", ViolationNone},
		{"with clause body still needs the table", "SELECT * FROM Customers WHERE EXISTS (SELECT 1 FROM Orders)", "Orders", ViolationTableMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateShape(tt.statement, tt.table)
			assert.Equal(t, tt.want, got.Reason)
			assert.Equal(t, tt.want == ViolationNone, got.Valid())
		})
	}
}

func TestValidateShape_Idempotent(t *testing.T) {
	stmt := "SELECT * FROM Orders WHERE Id = 1 ORDER BY Id"
	first := ValidateShape(stmt, "Orders")
	second := ValidateShape(stmt, "Orders")
	assert.Equal(t, first, second)
}

func TestValidateShape_TableListSpan(t *testing.T) {
	stmt := "SELECT * FROM Orders WHERE Id = 1"
	res := ValidateShape(stmt, "Orders")
	require.True(t, res.Valid())
	assert.Equal(t, " Orders ", stmt[res.TableList.Start:res.TableList.End])
}

func TestValidateShape_TableListSpanUnbounded(t *testing.T) {
	stmt := "SELECT * FROM Orders"
	res := ValidateShape(stmt, "Orders")
	require.True(t, res.Valid())
	assert.Equal(t, len(stmt), res.TableList.End)
}

func TestShapeViolation_Message(t *testing.T) {
	tests := []struct {
		violation ShapeViolation
		want      string
	}{
		{ViolationNoFromClause, "query has no FROM clause"},
		{ViolationAggregation, "aggregated results are not supported"},
		{ViolationMultipleTable, "querying from multiple tables is not supported"},
		{ViolationTableMismatch, "query did not reference the original table"},
		{ViolationNone, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.violation.Message())
	}
}

func TestShapeValidator_ImplementsPort(t *testing.T) {
	v := NewShapeValidator()
	res := v.ValidateShape("SELECT * FROM Orders", "Orders")
	assert.True(t, res.Valid())
}
