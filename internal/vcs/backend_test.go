package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/execx"
)

func TestDetect(t *testing.T) {
	exec := &execx.RecordingExecutor{}

	t.Run("git directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

		b, err := Detect(root, exec)
		require.NoError(t, err)
		assert.Equal(t, "git", b.Name())
		assert.Equal(t, root, b.Root())
	})

	t.Run("git file marker in linked worktree", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: elsewhere"), 0o644))

		b, err := Detect(root, exec)
		require.NoError(t, err)
		assert.Equal(t, "git", b.Name())
	})

	t.Run("walks up to the repository root", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".hg"), 0o755))
		nested := filepath.Join(root, "src", "deep")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		b, err := Detect(nested, exec)
		require.NoError(t, err)
		assert.Equal(t, "hg", b.Name())
		assert.Equal(t, root, b.Root())
	})

	t.Run("plastic marker", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".plastic"), 0o755))

		b, err := Detect(root, exec)
		require.NoError(t, err)
		assert.Equal(t, "plastic", b.Name())
	})

	t.Run("no repository", func(t *testing.T) {
		_, err := Detect(t.TempDir(), exec)
		assert.ErrorIs(t, err, ErrNoRepository)
	})
}

func TestContextLines(t *testing.T) {
	t.Run("empty input yields no lines", func(t *testing.T) {
		assert.Nil(t, ContextLines(""))
		assert.Nil(t, ContextLines("\n"))
	})

	t.Run("strips carriage returns and trailing newline", func(t *testing.T) {
		lines := ContextLines("a\r\nb\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "a", lines[0].Text)
		assert.Equal(t, "b", lines[1].Text)
	})

	t.Run("preserves interior blank lines", func(t *testing.T) {
		lines := ContextLines("a\n\nb")
		require.Len(t, lines, 3)
		assert.Equal(t, "", lines[1].Text)
	})
}

func TestResultText(t *testing.T) {
	r := Result{Lines: []Line{{Text: "one"}, {Text: "two"}}}
	assert.Equal(t, "one\ntwo", r.Text())
}

func TestTagDiff(t *testing.T) {
	text := "diff --git a/f.go b/f.go\n" +
		"index 123..456 100644\n" +
		"--- a/f.go\n" +
		"+++ b/f.go\n" +
		"@@ -1,3 +1,3 @@\n" +
		" unchanged\n" +
		"-removed\n" +
		"+added\n"

	lines := TagDiff(text)
	require.Len(t, lines, 8)
	assert.Equal(t, KindHeader, lines[0].Kind)
	assert.Equal(t, KindHeader, lines[1].Kind)
	assert.Equal(t, KindHeader, lines[2].Kind)
	assert.Equal(t, KindHeader, lines[3].Kind)
	assert.Equal(t, KindHeader, lines[4].Kind)
	assert.Equal(t, KindContext, lines[5].Kind)
	assert.Equal(t, KindRemoved, lines[6].Kind)
	assert.Equal(t, KindAdded, lines[7].Kind)
}

func TestCustomActionExecution(t *testing.T) {
	t.Run("runs the argv as given", func(t *testing.T) {
		rec := &execx.RecordingExecutor{Outputs: map[string][]byte{
			"git version": []byte("git version 2.44.0"),
		}}
		g := NewGit("/repo", rec)

		res, err := g.Execute(context.Background(), action.Action{
			Kind: action.Custom,
			Key:  "gv",
			Argv: []string{"git", "version"},
		})
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "git version 2.44.0", res.Text())
		assert.Equal(t, []string{"git version"}, rec.CommandLines())
	})

	t.Run("empty argv is rejected", func(t *testing.T) {
		rec := &execx.RecordingExecutor{}
		g := NewGit("/repo", rec)

		_, err := g.Execute(context.Background(), action.Action{Kind: action.Custom, Key: "bad"})
		assert.ErrorIs(t, err, ErrInvalidCustomCommand)
		assert.Empty(t, rec.Commands)
	})
}

func TestCancelledExecutionReturnsContextError(t *testing.T) {
	rec := &execx.RecordingExecutor{Errors: map[string]error{"git": context.Canceled}}
	g := NewGit("/repo", rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Execute(ctx, action.Action{Kind: action.Status})
	assert.ErrorIs(t, err, context.Canceled)
}
