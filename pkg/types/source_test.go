package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSourceKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SourceKind
		wantErr error
	}{
		{name: "canonical cached", input: "Cached", want: SourceCached},
		{name: "lower case local", input: "local", want: SourceLocal},
		{name: "catalog alias", input: "Wallhaven", want: SourceCached},
		{name: "surrounding space", input: "  LOCAL ", want: SourceLocal},
		{name: "unknown", input: "Remote", wantErr: ErrInvalidSource},
		{name: "empty", input: "", wantErr: ErrInvalidSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceKind(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestSourceKindValid(t *testing.T) {
	assert.True(t, SourceCached.Valid())
	assert.True(t, SourceLocal.Valid())
	assert.False(t, SourceKind("cached").Valid(), "wire values are case-sensitive")
	assert.False(t, SourceKind("").Valid())
}

func TestFavoriteReferenceKey(t *testing.T) {
	a := FavoriteReference{ID: 1, Source: SourceLocal, SourceID: "/pics/a.png"}
	b := FavoriteReference{ID: 9, Source: SourceLocal, SourceID: "/pics/a.png"}
	c := FavoriteReference{ID: 1, Source: SourceCached, SourceID: "/pics/a.png"}

	assert.Equal(t, a.Key(), b.Key(), "store ids are not part of the key")
	assert.NotEqual(t, a.Key(), c.Key())
}
