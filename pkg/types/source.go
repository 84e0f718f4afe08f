package types

import (
	"fmt"
	"strings"
)

// SourceKind names the backing store a favorite lives in.
type SourceKind string

// Supported source kinds. The string values are the wire values used in
// backups.
const (
	// SourceCached items come from the remote catalog and are cached in the
	// entity store, keyed by the catalog's external id.
	SourceCached SourceKind = "Cached"

	// SourceLocal items live in the filesystem-backed local collection,
	// keyed by path or file URI.
	SourceLocal SourceKind = "Local"
)

// sourceAliases maps accepted spellings to their canonical kind.
var sourceAliases = map[string]SourceKind{
	"cached":    SourceCached,
	"wallhaven": SourceCached,
	"local":     SourceLocal,
}

// ParseSourceKind parses a user-supplied source name, case-insensitively.
func ParseSourceKind(s string) (SourceKind, error) {
	kind, ok := sourceAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
	return kind, nil
}

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	return k == SourceCached || k == SourceLocal
}

func (k SourceKind) String() string {
	return string(k)
}
