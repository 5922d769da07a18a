package execx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandErrorMessage(t *testing.T) {
	t.Run("with stderr", func(t *testing.T) {
		err := &CommandError{Args: []string{"git", "push"}, ExitCode: 1, Stderr: "fatal: no remote\n"}
		assert.Equal(t, "exec git push: fatal: no remote", err.Error())
	})

	t.Run("without stderr", func(t *testing.T) {
		err := &CommandError{Args: []string{"hg", "pull"}, ExitCode: 255}
		assert.Equal(t, "exec hg pull: exit status 255", err.Error())
	})
}

func TestRealExecutor(t *testing.T) {
	e := &RealExecutor{}

	t.Run("captures stdout", func(t *testing.T) {
		out, err := e.RunDir(context.Background(), t.TempDir(), "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := e.RunDir(context.Background(), dir, "pwd")
		require.NoError(t, err)
		assert.Contains(t, string(out), dir)
	})

	t.Run("non-zero exit yields CommandError", func(t *testing.T) {
		_, err := e.RunDir(context.Background(), t.TempDir(), "sh", "-c", "echo oops >&2; exit 3")
		var cmdErr *CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, 3, cmdErr.ExitCode)
		assert.Contains(t, cmdErr.Stderr, "oops")
	})

	t.Run("missing binary yields CommandError", func(t *testing.T) {
		_, err := e.RunDir(context.Background(), t.TempDir(), "definitely-not-a-command")
		var cmdErr *CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, -1, cmdErr.ExitCode)
	})

	t.Run("cancelled context reports ctx error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.RunDir(ctx, t.TempDir(), "sleep", "10")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestRecordingExecutor(t *testing.T) {
	rec := &RecordingExecutor{
		Outputs: map[string][]byte{
			"git status": []byte("specific"),
			"git":        []byte("fallback"),
		},
		Errors: map[string]error{
			"git push": errors.New("rejected"),
		},
	}

	out, err := rec.RunDir(context.Background(), "/repo", "git", "status")
	require.NoError(t, err)
	assert.Equal(t, "specific", string(out))

	out, err = rec.RunDir(context.Background(), "/repo", "git", "log")
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(out))

	_, err = rec.RunDir(context.Background(), "/repo", "git", "push")
	assert.EqualError(t, err, "rejected")

	assert.Equal(t, []string{"git status", "git log", "git push"}, rec.CommandLines())
	assert.Equal(t, "/repo", rec.Commands[0].Dir)

	rec.Reset()
	assert.Empty(t, rec.CommandLines())
}
