package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name     string
		location string
		want     string
	}{
		{
			name:     "file:// URI is converted to local path",
			location: "file:///srv/guidelines/esc.pdf",
			want:     "/srv/guidelines/esc.pdf",
		},
		{
			name:     "file:// URI with spaces",
			location: "file:///srv/my guidelines/esc.pdf",
			want:     "/srv/my guidelines/esc.pdf",
		},
		{
			name:     "absolute path passes through",
			location: "/srv/guidelines",
			want:     "/srv/guidelines",
		},
		{
			name:     "tilde expands to home",
			location: "~/guidelines",
			want:     filepath.Join(home, "guidelines"),
		},
		{
			name:     "bare tilde is home",
			location: "~",
			want:     home,
		},
		{
			name:     "relative path is made absolute",
			location: "guidelines",
			want:     filepath.Join(cwd, "guidelines"),
		},
		{
			name:     "surrounding whitespace is trimmed",
			location: "  /srv/guidelines  ",
			want:     "/srv/guidelines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty location errors", func(t *testing.T) {
		_, err := ResolvePath("   ")
		assert.Error(t, err)
	})
}
