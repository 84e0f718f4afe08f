package backup

// Options selects the independent parts of a backup or restore.
type Options struct {
	Settings      bool
	Favorites     bool
	SavedSearches bool
}

// AllOptions selects everything.
var AllOptions = Options{Settings: true, Favorites: true, SavedSearches: true}

// Any reports whether at least one part is selected.
func (o Options) Any() bool {
	return o.Settings || o.Favorites || o.SavedSearches
}
