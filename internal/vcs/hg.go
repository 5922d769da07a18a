package vcs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/execx"
)

// Hg drives a Mercurial repository through the hg command-line tool.
type Hg struct {
	root string
	exec execx.Executor
}

// NewHg creates a Mercurial backend rooted at dir.
func NewHg(root string, exec execx.Executor) *Hg {
	return &Hg{root: root, exec: exec}
}

func (h *Hg) Name() string { return "hg" }
func (h *Hg) Root() string { return h.root }

const hgLogTemplate = "{node|short} {author|person} {desc|firstline}\\n"

type hgPlan struct {
	build func(a action.Action) []step
	parse func(out string) []Line
}

var hgTable = map[action.Kind]hgPlan{
	action.Status: {
		build: func(a action.Action) []step {
			return []step{
				{"hg", []string{"summary"}},
				{"hg", []string{"status"}},
			}
		},
		parse: parseHgStatus,
	},
	action.LogAll: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"log", "--graph", "--template", hgLogTemplate, "-l", "20"}}}
		},
		parse: parseHgLog,
	},
	action.LogCount: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"log", "--graph", "--template", hgLogTemplate, "-l", strconv.Itoa(a.Count)}}}
		},
		parse: parseHgLog,
	},
	action.DiffAll: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"diff"}}}
		},
		parse: TagDiff,
	},
	action.DiffSelected: {
		build: func(a action.Action) []step {
			return []step{{"hg", append([]string{"diff", "--"}, a.Paths...)}}
		},
		parse: TagDiff,
	},
	action.RevisionChanges: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"status", "--change", a.Target}}}
		},
		parse: parseHgChanges,
	},
	action.RevisionDiff: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"diff", "--change", a.Target}}}
		},
		parse: TagDiff,
	},
	action.CommitAll: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"commit", "--addremove", "-m", a.Message}}}
		},
	},
	action.CommitSelected: {
		build: func(a action.Action) []step {
			return []step{
				{"hg", append([]string{"addremove"}, a.Paths...)},
				{"hg", append([]string{"commit", "-m", a.Message, "--"}, a.Paths...)},
			}
		},
	},
	action.RevertAll: {
		build: func(a action.Action) []step {
			return []step{
				{"hg", []string{"revert", "-C", "--all"}},
				{"hg", []string{"purge"}},
			}
		},
	},
	action.RevertSelected: {
		build: func(a action.Action) []step {
			return []step{{"hg", append([]string{"revert", "-C", "--"}, a.Paths...)}}
		},
	},
	action.ListUnresolved: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"resolve", "-l"}}}
		},
		parse: parseHgResolveList,
	},
	action.ResolveTakeOther: {
		build: func(a action.Action) []step {
			if len(a.Paths) == 0 {
				return []step{{"hg", []string{"resolve", "-a", "-t", "internal:other"}}}
			}
			return []step{{"hg", append([]string{"resolve", "-t", "internal:other", "--"}, a.Paths...)}}
		},
	},
	action.ResolveTakeLocal: {
		build: func(a action.Action) []step {
			if len(a.Paths) == 0 {
				return []step{{"hg", []string{"resolve", "-a", "-t", "internal:local"}}}
			}
			return []step{{"hg", append([]string{"resolve", "-t", "internal:local", "--"}, a.Paths...)}}
		},
	},
	action.Fetch: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"pull"}}}
		},
	},
	action.Pull: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"pull", "-u"}}}
		},
	},
	action.Push: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"push", "--new-branch"}}}
		},
	},
	action.NewTag: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"tag", a.Target, "-f"}}}
		},
	},
	action.ListBranches: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"branches"}}}
		},
		parse: parseHgBranches,
	},
	action.NewBranch: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"branch", a.Target}}}
		},
	},
	action.CloseBranch: {
		build: func(a action.Action) []step {
			return []step{
				{"hg", []string{"update", a.Target}},
				{"hg", []string{"commit", "-m", "close branch " + a.Target, "--close-branch"}},
			}
		},
	},
	action.Checkout: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"update", a.Target}}}
		},
	},
	action.Merge: {
		build: func(a action.Action) []step {
			return []step{{"hg", []string{"merge", a.Target}}}
		},
	},
}

// Execute runs the command sequence for act and parses its output.
// Mercurial named branches cannot be deleted, only closed.
func (h *Hg) Execute(ctx context.Context, act action.Action) (Result, error) {
	if act.Kind == action.DeleteBranch {
		return FailResult("", "mercurial branches cannot be deleted; close the branch instead"),
			fmt.Errorf("hg: branches cannot be deleted")
	}
	return executePlan(ctx, h.exec, h.root, act, func(a action.Action) ([]step, func(string) []Line, error) {
		plan, ok := hgTable[a.Kind]
		if !ok {
			return nil, nil, fmt.Errorf("hg: unsupported action %q", a.Kind.Name())
		}
		return plan.build(a), plan.parse, nil
	})
}

// parseHgStatus tags combined `hg summary` + `hg status` output. Summary
// lines look like "key: value"; status entries are "X path".
func parseHgStatus(out string) []Line {
	lines := ContextLines(out)
	entries := 0
	for i := range lines {
		t := lines[i].Text
		if strings.Contains(t, ": ") {
			lines[i].Kind = KindHeader
			continue
		}
		if len(t) < 3 || t[1] != ' ' {
			continue
		}
		entries++
		lines[i].Ref = strings.TrimSpace(t[2:])
		switch t[0] {
		case '?', 'A':
			lines[i].Kind = KindAdded
		case 'R', '!':
			lines[i].Kind = KindRemoved
		}
	}
	if entries == 0 {
		lines = append(lines, Line{Text: "working directory clean", Kind: KindContext})
	}
	return lines
}

// parseHgLog extracts the short node hash of each graph line into Ref.
func parseHgLog(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		for _, tok := range strings.Fields(lines[i].Text) {
			if isHex(tok) && len(tok) >= 12 {
				lines[i].Ref = tok
				break
			}
		}
	}
	return lines
}

// parseHgChanges tags `hg status --change` entries.
func parseHgChanges(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		t := lines[i].Text
		if len(t) < 3 || t[1] != ' ' {
			continue
		}
		lines[i].Ref = strings.TrimSpace(t[2:])
		switch t[0] {
		case 'A':
			lines[i].Kind = KindAdded
		case 'R':
			lines[i].Kind = KindRemoved
		}
	}
	return lines
}

// parseHgResolveList tags `hg resolve -l` entries; U lines are unresolved.
func parseHgResolveList(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		t := lines[i].Text
		if len(t) < 3 || t[1] != ' ' {
			continue
		}
		lines[i].Ref = strings.TrimSpace(t[2:])
		if t[0] == 'U' {
			lines[i].Kind = KindRemoved
		}
	}
	return lines
}

// parseHgBranches records branch names; the active branch is listed first
// by hg but carries no marker, so every line keeps context kind.
func parseHgBranches(out string) []Line {
	lines := ContextLines(out)
	for i := range lines {
		fields := strings.Fields(lines[i].Text)
		if len(fields) > 0 {
			lines[i].Ref = fields[0]
		}
	}
	return lines
}
