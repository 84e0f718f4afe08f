package types

// SavedSearch is a named query. Name is unique and non-empty; the ID is
// preserved across updates of the same name.
type SavedSearch struct {
	ID      int64
	Name    string
	Query   string
	Filters string // Serialized filter expression (query-string form).
}
