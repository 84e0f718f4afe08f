package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/keepsake/internal/paths"
)

// Preferences returns the stored preferences document, or nil when none
// has been written.
func (s *Store) Preferences(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.prefMu.Lock()
	defer s.prefMu.Unlock()

	if s.dataDir == MemoryDir {
		if s.memPrefs == nil {
			return nil, nil
		}
		return append(json.RawMessage(nil), s.memPrefs...), nil
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, prefsFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("reading preferences: %s is not valid JSON", prefsFileName)
	}
	return json.RawMessage(data), nil
}

// SetPreferences replaces the stored preferences document. The file is
// written to a temp file and renamed so readers never see a partial write.
func (s *Store) SetPreferences(ctx context.Context, prefs json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, prefs); err != nil {
		return fmt.Errorf("preferences are not valid JSON: %w", err)
	}

	s.prefMu.Lock()
	defer s.prefMu.Unlock()

	if s.dataDir == MemoryDir {
		s.memPrefs = buf.Bytes()
		return nil
	}
	buf.WriteByte('\n')
	return paths.WriteFile(filepath.Join(s.dataDir, prefsFileName), buf.Bytes(), 0o600)
}
