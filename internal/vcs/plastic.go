package vcs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/execx"
)

// Plastic drives a Plastic SCM workspace through the cm command-line tool.
// Plastic is centralized: checkins reach the server directly, so fetch and
// push have no analogue and report as unsupported instead of guessing.
type Plastic struct {
	root string
	exec execx.Executor
}

// NewPlastic creates a Plastic backend rooted at dir.
func NewPlastic(root string, exec execx.Executor) *Plastic {
	return &Plastic{root: root, exec: exec}
}

func (p *Plastic) Name() string { return "plastic" }
func (p *Plastic) Root() string { return p.root }

type plasticPlan struct {
	build func(a action.Action) []step
	parse func(out string) []Line
}

var plasticTable = map[action.Kind]plasticPlan{
	action.Status: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"status"}}}
		},
	},
	action.LogAll: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"log", "--allbranches"}}}
		},
	},
	action.LogCount: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"log", "--allbranches", "--limit", strconv.Itoa(a.Count)}}}
		},
	},
	action.DiffAll: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"diff"}}}
		},
		parse: TagDiff,
	},
	action.DiffSelected: {
		build: func(a action.Action) []step {
			return []step{{"cm", append([]string{"diff"}, a.Paths...)}}
		},
		parse: TagDiff,
	},
	action.RevisionChanges: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"log", "cs:" + a.Target}}}
		},
	},
	action.RevisionDiff: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"diff", "cs:" + a.Target}}}
		},
		parse: TagDiff,
	},
	action.CommitAll: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"checkin", "--all", "--applychanged", "-c", a.Message}}}
		},
	},
	action.CommitSelected: {
		build: func(a action.Action) []step {
			return []step{{"cm", append(append([]string{"checkin"}, a.Paths...), "-c", a.Message)}}
		},
	},
	action.RevertAll: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"undo", ".", "-r"}}}
		},
	},
	action.RevertSelected: {
		build: func(a action.Action) []step {
			return []step{{"cm", append([]string{"undo"}, a.Paths...)}}
		},
	},
	action.Pull: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"update"}}}
		},
	},
	action.NewTag: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"mklb", a.Target}}}
		},
	},
	action.ListBranches: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"branch", "list"}}}
		},
		parse: parsePathList,
	},
	action.NewBranch: {
		build: func(a action.Action) []step {
			return []step{
				{"cm", []string{"mkbranch", a.Target}},
				{"cm", []string{"switch", a.Target}},
			}
		},
	},
	action.DeleteBranch: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"rmbranch", a.Target}}}
		},
	},
	action.Checkout: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"switch", a.Target}}}
		},
	},
	action.Merge: {
		build: func(a action.Action) []step {
			return []step{{"cm", []string{"merge", a.Target, "--merge"}}}
		},
	},
}

// Execute runs the command sequence for act. Actions without a Plastic
// analogue fail with an explanatory result rather than a guessed command.
func (p *Plastic) Execute(ctx context.Context, act action.Action) (Result, error) {
	if act.Kind != action.Custom {
		if _, ok := plasticTable[act.Kind]; !ok {
			msg := fmt.Sprintf("%s is not supported by the plastic backend", act.Kind.Name())
			return FailResult("", msg), fmt.Errorf("plastic: %s", msg)
		}
	}
	return executePlan(ctx, p.exec, p.root, act, func(a action.Action) ([]step, func(string) []Line, error) {
		plan := plasticTable[a.Kind]
		return plan.build(a), plan.parse, nil
	})
}
