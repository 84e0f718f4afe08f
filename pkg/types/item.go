package types

// Item is a favorite hydrated by its source resolver, in the uniform shape
// the aggregated favorites view yields regardless of backing store.
type Item struct {
	Source   SourceKind
	SourceID string
	URL      string // Remote image URL, or local file path.
	ThumbURL string
	Width    int
	Height   int
	FileSize int64
	MimeType string
	Purity   string
	Uploader string
	Tags     []string
}
