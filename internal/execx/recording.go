package execx

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Dir  string
	Name string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Outputs and Errors are keyed by the full command line ("git status ...")
// with a fallback on the bare command name.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Outputs map[string][]byte
	Errors  map[string]error
}

// RunDir records the command and returns the configured output/error.
func (e *RecordingExecutor) RunDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{Dir: dir, Name: name, Args: args})

	key := strings.Join(append([]string{name}, args...), " ")

	var out []byte
	if e.Outputs != nil {
		if b, ok := e.Outputs[key]; ok {
			out = b
		} else {
			out = e.Outputs[name]
		}
	}
	var err error
	if e.Errors != nil {
		if v, ok := e.Errors[key]; ok {
			err = v
		} else {
			err = e.Errors[name]
		}
	}
	return out, err
}

// CommandLines returns the recorded commands as joined strings, oldest first.
func (e *RecordingExecutor) CommandLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, 0, len(e.Commands))
	for _, c := range e.Commands {
		lines = append(lines, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return lines
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
