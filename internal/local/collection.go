// Package local resolves favorites of the Local source: image files in a
// filesystem-backed collection, referenced by absolute path or file URI.
package local

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Collection is the local backing store. It implements types.Resolver and
// the accessibility check used by restore.
type Collection struct {
	fs    afero.Fs
	roots []string
}

var _ types.Resolver = (*Collection)(nil)

// Option configures a Collection.
type Option func(*Collection)

// WithFs replaces the operating system filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(c *Collection) { c.fs = fsys }
}

// WithRoots restricts the collection to files below the given directories.
// With no roots any absolute path is accepted.
func WithRoots(roots ...string) Option {
	return func(c *Collection) {
		for _, r := range roots {
			if r = strings.TrimSpace(r); r != "" {
				c.roots = append(c.roots, filepath.Clean(r))
			}
		}
	}
}

// NewCollection returns a collection over the operating system filesystem
// unless WithFs says otherwise.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PathOf converts a source id (absolute path or file:// URI) to a clean
// filesystem path.
func PathOf(sourceID string) (string, error) {
	p := strings.TrimSpace(sourceID)
	if strings.HasPrefix(p, "file:") {
		u, err := url.Parse(p)
		if err != nil {
			return "", fmt.Errorf("parsing file URI %q: %w", sourceID, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("file URI %q names a remote host", sourceID)
		}
		p = u.Path
	}
	if p == "" || !filepath.IsAbs(p) {
		return "", fmt.Errorf("local source id %q is not an absolute path", sourceID)
	}
	return filepath.Clean(p), nil
}

// Resolve stats and opens the referenced file and reads its image header.
// A reference that is malformed, outside the roots, missing, unreadable or
// a directory resolves to types.ErrNotFound.
func (c *Collection) Resolve(ctx context.Context, sourceID string) (types.Item, error) {
	if err := ctx.Err(); err != nil {
		return types.Item{}, err
	}
	path, f, info, err := c.open(sourceID)
	if err != nil {
		return types.Item{}, err
	}
	defer f.Close()

	item := types.Item{
		Source:   types.SourceLocal,
		SourceID: sourceID,
		URL:      path,
		ThumbURL: path,
		FileSize: info.Size(),
		MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
	}
	// Unknown formats still resolve; they just carry no dimensions.
	if cfg, format, err := image.DecodeConfig(f); err == nil {
		item.Width = cfg.Width
		item.Height = cfg.Height
		item.MimeType = "image/" + format
	}
	return item, nil
}

// Accessible reports whether sourceID names a readable file in the
// collection.
func (c *Collection) Accessible(ctx context.Context, sourceID string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, f, _, err := c.open(sourceID)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func (c *Collection) open(sourceID string) (string, afero.File, fs.FileInfo, error) {
	path, err := PathOf(sourceID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%w: %v", types.ErrNotFound, err)
	}
	if !c.inRoots(path) {
		return "", nil, nil, fmt.Errorf("%w: %s is outside the collection", types.ErrNotFound, path)
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return "", nil, nil, classify(path, err)
	}
	if info.IsDir() {
		return "", nil, nil, fmt.Errorf("%w: %s is a directory", types.ErrNotFound, path)
	}
	f, err := c.fs.Open(path)
	if err != nil {
		return "", nil, nil, classify(path, err)
	}
	return path, f, info, nil
}

func (c *Collection) inRoots(path string) bool {
	if len(c.roots) == 0 {
		return true
	}
	for _, root := range c.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// classify maps missing and permission-denied files to ErrNotFound and
// leaves other I/O failures as errors.
func classify(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", types.ErrNotFound, path, err)
	}
	return fmt.Errorf("accessing %s: %w", path, err)
}
