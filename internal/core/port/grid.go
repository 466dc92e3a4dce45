package port

// GridColumn describes one column of the edit grid. Field is the result-set
// column name (the alias, when the statement used one); Source is the
// underlying table column edits must be written back to. Source equals
// Field for unaliased columns.
type GridColumn struct {
	Field  string `json:"field"`
	Source string `json:"source"`
}

// DataGrid is the host grid widget, reduced to the capabilities a refresh
// needs. The real widget lives in the IDE; tests and the headless backend
// use an in-memory implementation.
type DataGrid interface {
	SetColumns(cols []GridColumn)
	SetData(rows [][]any)
	Clear()
}
