package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("SCRATCH_ROOT", "/var/scratch")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty input stays empty", in: "", want: ""},
		{name: "whitespace-only input stays empty", in: "   \t", want: ""},
		{name: "bare tilde is the home dir", in: "~", want: home},
		{name: "tilde prefix joins under home", in: "~/notes/today.md", want: filepath.Join(home, "notes", "today.md")},
		{name: "env var is substituted", in: "$SCRATCH_ROOT/cache", want: "/var/scratch/cache"},
		{name: "redundant separators are cleaned", in: "/var//scratch/./cache", want: "/var/scratch/cache"},
		{name: "absolute path passes through", in: "/etc/hosts", want: "/etc/hosts"},
		{name: "surrounding whitespace is trimmed", in: "  /etc/hosts\n", want: "/etc/hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandTildeOnlyAtPrefix(t *testing.T) {
	// A tilde elsewhere in the path is a literal character.
	got, err := Expand("/backups/archive~")
	require.NoError(t, err)
	assert.Equal(t, "/backups/archive~", got)
}
