package port

// TablePolicy answers whether a table may back an edit session and how many
// rows a refresh may pull from it.
type TablePolicy interface {
	Editable(schema, table string) bool
	// MaxRows returns the row cap for the table, or fallback when the
	// policy has no opinion.
	MaxRows(schema, table string, fallback int) int
}
