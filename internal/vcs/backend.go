// Package vcs maps abstract actions onto concrete version-control commands.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/execx"
)

// ErrNoRepository is returned when no supported backend marker is found.
var ErrNoRepository = errors.New("no repository found in this directory or its ancestors")

// ErrInvalidCustomCommand is returned for a custom command with no argv.
var ErrInvalidCustomCommand = errors.New("custom command has no command line")

// LineKind tags a result line for presentation.
type LineKind int

const (
	KindContext LineKind = iota
	KindAdded
	KindRemoved
	KindHeader
)

// Line is one line of backend output. Ref optionally carries the
// machine-usable token of the line: a file path on status or change lines,
// a revision hash on log lines. Presentation never mutates lines.
type Line struct {
	Text string
	Kind LineKind
	Ref  string
}

// Result is the parsed outcome of one action.
type Result struct {
	OK    bool
	Lines []Line
	Err   string
}

// Text joins the result lines back into a single string.
func (r Result) Text() string {
	var sb strings.Builder
	for i, l := range r.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// OkResult builds a successful result with untagged lines.
func OkResult(text string) Result {
	return Result{OK: true, Lines: ContextLines(text)}
}

// FailResult builds a failed result whose output is still fully visible.
func FailResult(text, errMsg string) Result {
	return Result{OK: false, Lines: ContextLines(text), Err: errMsg}
}

// ContextLines splits text into untagged lines, passing every line through
// verbatim. Nothing is ever hidden from the operator.
func ContextLines(text string) []Line {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, t := range raw {
		lines[i] = Line{Text: strings.TrimRight(t, "\r"), Kind: KindContext}
	}
	return lines
}

// Backend translates actions into commands for one version-control system.
// Implementations are stateless apart from the repository root determined
// at detection time, and are safe for concurrent read-only calls.
type Backend interface {
	// Name identifies the backend ("git", "hg", "plastic").
	Name() string
	// Root returns the repository root directory.
	Root() string
	// Execute runs the commands for act and parses their output.
	// Command failures are reported as *execx.CommandError.
	Execute(ctx context.Context, act action.Action) (Result, error)
}

// Detect probes dir and its ancestors for a backend metadata marker and
// returns the matching backend. Git wins over Hg over Plastic when nested.
func Detect(dir string, exec execx.Executor) (Backend, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		if hasMarker(dir, ".git") {
			return NewGit(dir, exec), nil
		}
		if hasMarker(dir, ".hg") {
			return NewHg(dir, exec), nil
		}
		if hasMarker(dir, ".plastic") {
			return NewPlastic(dir, exec), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNoRepository
		}
		dir = parent
	}
}

// hasMarker accepts both directories and files: a .git entry is a plain
// file inside linked worktrees.
func hasMarker(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// step is one external command invocation.
type step struct {
	name string
	args []string
}

func (s step) String() string {
	return s.name + " " + strings.Join(s.args, " ")
}

// runSteps executes steps serially, concatenating their stdout. The first
// failure aborts the sequence.
func runSteps(ctx context.Context, exec execx.Executor, dir string, steps []step) (string, error) {
	var sb strings.Builder
	for _, s := range steps {
		out, err := exec.RunDir(ctx, dir, s.name, s.args...)
		if sb.Len() > 0 && len(out) > 0 {
			sb.WriteByte('\n')
		}
		sb.Write(out)
		if err != nil {
			return sb.String(), fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return sb.String(), nil
}

// executePlan resolves an action against a backend's plan lookup, runs the
// resulting command sequence, and parses the output. Custom commands are
// backend-independent and handled here. On command failure the returned
// Result still carries everything the processes printed, stderr included,
// alongside the error.
func executePlan(
	ctx context.Context,
	exec execx.Executor,
	root string,
	act action.Action,
	lookup func(action.Action) ([]step, func(string) []Line, error),
) (Result, error) {
	var (
		steps []step
		parse func(string) []Line
	)

	if act.Kind == action.Custom {
		if len(act.Argv) == 0 {
			return Result{}, ErrInvalidCustomCommand
		}
		steps = []step{{name: act.Argv[0], args: act.Argv[1:]}}
	} else {
		var err error
		steps, parse, err = lookup(act)
		if err != nil {
			return Result{}, err
		}
	}

	out, err := runSteps(ctx, exec, root, steps)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		var cmdErr *execx.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			if out != "" {
				out += "\n\n"
			}
			out += cmdErr.Stderr
		}
		return FailResult(out, err.Error()), err
	}

	if parse == nil {
		return OkResult(out), nil
	}
	return Result{OK: true, Lines: parse(out)}, nil
}

// TagDiff tags unified-diff text: file and hunk headers, added and removed
// lines. Anything unrecognized stays context, verbatim.
func TagDiff(text string) []Line {
	lines := ContextLines(text)
	for i := range lines {
		t := lines[i].Text
		switch {
		case strings.HasPrefix(t, "diff "),
			strings.HasPrefix(t, "index "),
			strings.HasPrefix(t, "@@"),
			strings.HasPrefix(t, "Index:"),
			strings.HasPrefix(t, "==="):
			lines[i].Kind = KindHeader
		case strings.HasPrefix(t, "+++"), strings.HasPrefix(t, "---"):
			lines[i].Kind = KindHeader
		case strings.HasPrefix(t, "+"):
			lines[i].Kind = KindAdded
		case strings.HasPrefix(t, "-"):
			lines[i].Kind = KindRemoved
		}
	}
	return lines
}
