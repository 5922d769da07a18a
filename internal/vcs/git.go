package vcs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/execx"
)

// Git drives a git repository through the git command-line tool.
type Git struct {
	root string
	exec execx.Executor
}

// NewGit creates a git backend rooted at dir.
func NewGit(root string, exec execx.Executor) *Git {
	return &Git{root: root, exec: exec}
}

func (g *Git) Name() string { return "git" }
func (g *Git) Root() string { return g.root }

// gitPlan builds the command sequence and output parser for one action.
// The table below is the single place that knows git's command line.
type gitPlan struct {
	build func(a action.Action) []step
	parse func(out string) []Line
}

var gitTable = map[action.Kind]gitPlan{
	action.Status: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"status", "--branch", "--porcelain"}}}
		},
		parse: parseGitStatus,
	},
	action.LogAll: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"log", "--all", "--decorate", "--oneline", "--graph", "-20"}}}
		},
		parse: parseGitLog,
	},
	action.LogCount: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"log", "--all", "--decorate", "--oneline", "--graph", "-" + strconv.Itoa(a.Count)}}}
		},
		parse: parseGitLog,
	},
	action.DiffAll: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"diff"}}}
		},
		parse: TagDiff,
	},
	action.DiffSelected: {
		build: func(a action.Action) []step {
			return []step{{"git", append([]string{"diff", "--"}, a.Paths...)}}
		},
		parse: TagDiff,
	},
	action.RevisionChanges: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"diff-tree", "--no-commit-id", "--name-status", "-r", a.Target}}}
		},
		parse: parseNameStatus,
	},
	action.RevisionDiff: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"diff", a.Target + "^!"}}}
		},
		parse: TagDiff,
	},
	action.CommitAll: {
		build: func(a action.Action) []step {
			return []step{
				{"git", []string{"add", "--all"}},
				{"git", []string{"commit", "-m", a.Message}},
			}
		},
	},
	action.CommitSelected: {
		build: func(a action.Action) []step {
			return []step{
				{"git", append([]string{"add", "--"}, a.Paths...)},
				{"git", []string{"commit", "-m", a.Message}},
			}
		},
	},
	action.RevertAll: {
		build: func(a action.Action) []step {
			return []step{
				{"git", []string{"reset", "--hard"}},
				{"git", []string{"clean", "-d", "--force"}},
			}
		},
	},
	action.RevertSelected: {
		build: func(a action.Action) []step {
			return []step{{"git", append([]string{"checkout", "--"}, a.Paths...)}}
		},
	},
	action.ListUnresolved: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"diff", "--name-only", "--diff-filter=U"}}}
		},
		parse: parsePathList,
	},
	action.ResolveTakeOther: {
		build: func(a action.Action) []step {
			if len(a.Paths) == 0 {
				return []step{{"git", []string{"checkout", "--theirs", "."}}}
			}
			return []step{{"git", append([]string{"checkout", "--theirs", "--"}, a.Paths...)}}
		},
	},
	action.ResolveTakeLocal: {
		build: func(a action.Action) []step {
			if len(a.Paths) == 0 {
				return []step{{"git", []string{"checkout", "--ours", "."}}}
			}
			return []step{{"git", append([]string{"checkout", "--ours", "--"}, a.Paths...)}}
		},
	},
	action.Fetch: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"fetch", "--all"}}}
		},
	},
	action.Pull: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"pull"}}}
		},
	},
	action.Push: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"push"}}}
		},
	},
	action.NewTag: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"tag", a.Target, "-f"}}}
		},
	},
	action.ListBranches: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"branch", "--all"}}}
		},
		parse: parseGitBranches,
	},
	action.NewBranch: {
		build: func(a action.Action) []step {
			return []step{
				{"git", []string{"branch", a.Target}},
				{"git", []string{"checkout", a.Target}},
			}
		},
	},
	action.DeleteBranch: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"branch", "-d", a.Target}}}
		},
	},
	action.CloseBranch: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"branch", "-d", a.Target}}}
		},
	},
	action.Checkout: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"checkout", a.Target}}}
		},
	},
	action.Merge: {
		build: func(a action.Action) []step {
			return []step{{"git", []string{"merge", a.Target}}}
		},
	},
}

// Execute runs the command sequence for act and parses its output.
func (g *Git) Execute(ctx context.Context, act action.Action) (Result, error) {
	return executePlan(ctx, g.exec, g.root, act, func(a action.Action) ([]step, func(string) []Line, error) {
		plan, ok := gitTable[a.Kind]
		if !ok {
			return nil, nil, fmt.Errorf("git: unsupported action %q", a.Kind.Name())
		}
		return plan.build(a), plan.parse, nil
	})
}

// parseGitStatus tags `git status --branch --porcelain` output. The branch
// header keeps its kind; entry lines carry the file path in Ref. A clean
// tree gets an explicit line so the operator sees a result, not a blank
// screen.
func parseGitStatus(out string) []Line {
	lines := ContextLines(out)
	entries := 0
	for i := range lines {
		t := lines[i].Text
		if strings.HasPrefix(t, "## ") {
			lines[i].Kind = KindHeader
			continue
		}
		if len(t) < 4 {
			continue
		}
		entries++
		path := strings.TrimSpace(t[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		lines[i].Ref = path
		switch {
		case t[0] == '?' || t[1] == '?' || t[0] == 'A':
			lines[i].Kind = KindAdded
		case t[0] == 'D' || t[1] == 'D':
			lines[i].Kind = KindRemoved
		}
	}
	if entries == 0 {
		lines = append(lines, Line{Text: "working tree clean", Kind: KindContext})
	}
	return lines
}

// parseGitLog extracts the revision hash of each graph line into Ref.
func parseGitLog(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		for _, tok := range strings.Fields(lines[i].Text) {
			if isHex(tok) && len(tok) >= 7 {
				lines[i].Ref = tok
				break
			}
		}
	}
	return lines
}

// parseGitBranches marks the checked-out branch and records branch names.
func parseGitBranches(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		t := lines[i].Text
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "* "))
		if strings.HasPrefix(strings.TrimSpace(t), "* ") {
			lines[i].Kind = KindHeader
		}
		if idx := strings.Index(name, " -> "); idx >= 0 {
			name = name[:idx]
		}
		lines[i].Ref = name
	}
	return lines
}

// parseNameStatus tags `--name-status` output (A/M/D\tpath).
func parseNameStatus(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		fields := strings.Fields(lines[i].Text)
		if len(fields) < 2 {
			continue
		}
		lines[i].Ref = fields[len(fields)-1]
		switch fields[0] {
		case "A":
			lines[i].Kind = KindAdded
		case "D":
			lines[i].Kind = KindRemoved
		}
	}
	return lines
}

// parsePathList records each non-empty line as a path ref.
func parsePathList(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		lines[i].Ref = strings.TrimSpace(lines[i].Text)
	}
	return lines
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
