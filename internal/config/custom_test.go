package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomActions(t *testing.T) {
	input := strings.Join([]string{
		"gv git version",
		"",
		"gp git prune --dry-run",
		"badline",
		"gv git --version",
		"  fs   git fsck  ",
	}, "\n")

	actions, err := ParseCustomActions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, actions, 3)

	assert.Equal(t, "gv", actions[0].Key)
	assert.Equal(t, []string{"git", "version"}, actions[0].Argv, "first definition wins")

	assert.Equal(t, "gp", actions[1].Key)
	assert.Equal(t, []string{"git", "prune", "--dry-run"}, actions[1].Argv)

	assert.Equal(t, "fs", actions[2].Key)
	assert.Equal(t, []string{"git", "fsck"}, actions[2].Argv)
}

func TestLoadCustomActions(t *testing.T) {
	t.Run("missing file yields empty table", func(t *testing.T) {
		actions, err := LoadCustomActions(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, actions)
	})

	t.Run("reads the table from the repository root", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".vix"), 0o755))
		require.NoError(t, os.WriteFile(
			filepath.Join(root, CustomActionsFile),
			[]byte("gv git version\n"),
			0o644,
		))

		actions, err := LoadCustomActions(root)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, "gv", actions[0].Key)
	})
}
