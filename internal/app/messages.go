package app

import (
	"github.com/fsnotify/fsnotify"

	"github.com/keyvc/vix/internal/runner"
)

// completionMsg carries one finished operation from the runner.
type completionMsg struct {
	c runner.Completion
}

// runnerClosedMsg is sent when the runner's completion channel closes.
type runnerClosedMsg struct{}

// fileChangeMsg is sent when the worktree changes on disk.
type fileChangeMsg struct {
	Path string
	Op   fsnotify.Op
}

// statusDebounceMsg fires after the debounce interval to fold a burst of
// file changes into a single status refresh.
type statusDebounceMsg struct{}
