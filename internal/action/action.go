// Package action defines the backend-independent action vocabulary.
package action

// Kind enumerates every operation the client can ask a backend to perform.
type Kind int

const (
	Status Kind = iota
	LogAll
	LogCount
	DiffAll
	DiffSelected
	RevisionChanges
	RevisionDiff
	CommitAll
	CommitSelected
	RevertAll
	RevertSelected
	ListUnresolved
	ResolveTakeOther
	ResolveTakeLocal
	Fetch
	Pull
	Push
	NewTag
	ListBranches
	NewBranch
	DeleteBranch
	CloseBranch
	Checkout
	Merge
	Custom
)

// Name returns the human-readable action name shown in the header.
func (k Kind) Name() string {
	switch k {
	case Status:
		return "status"
	case LogAll:
		return "log"
	case LogCount:
		return "log count"
	case DiffAll:
		return "diff all"
	case DiffSelected:
		return "diff selected"
	case RevisionChanges:
		return "revision changes"
	case RevisionDiff:
		return "revision diff"
	case CommitAll:
		return "commit all"
	case CommitSelected:
		return "commit selected"
	case RevertAll:
		return "revert all"
	case RevertSelected:
		return "revert selected"
	case ListUnresolved:
		return "unresolved conflicts"
	case ResolveTakeOther:
		return "resolve taking other"
	case ResolveTakeLocal:
		return "resolve taking local"
	case Fetch:
		return "fetch"
	case Pull:
		return "pull"
	case Push:
		return "push"
	case NewTag:
		return "new tag"
	case ListBranches:
		return "branches"
	case NewBranch:
		return "new branch"
	case DeleteBranch:
		return "delete branch"
	case CloseBranch:
		return "close branch"
	case Checkout:
		return "checkout"
	case Merge:
		return "merge"
	case Custom:
		return "custom command"
	default:
		return "unknown"
	}
}

// ReadOnly reports whether the action only inspects repository state.
// Read-only actions run concurrently on the task runner and are allowed
// when the session is configured read-only. Fetch only touches remote
// tracking data, never the working directory, so it counts as read-only.
func (k Kind) ReadOnly() bool {
	switch k {
	case Status, LogAll, LogCount, DiffAll, DiffSelected,
		RevisionChanges, RevisionDiff, ListUnresolved, ListBranches, Fetch:
		return true
	default:
		return false
	}
}

// Blocking reports whether the action belongs to the blocking admission
// class: at most one such operation may be in flight at a time. Custom
// commands are treated as blocking since their effects are unknown.
func (k Kind) Blocking() bool {
	return !k.ReadOnly()
}

// Action is a fully-resolved user intent, immutable once constructed.
// Which argument fields are meaningful depends on Kind.
type Action struct {
	Kind    Kind
	Message string   // commit message
	Target  string   // revision, branch, or tag name
	Count   int      // log entry count
	Paths   []string // files for the ...Selected variants
	Key     string   // custom command shortcut
	Argv    []string // custom command argv
}

func (a Action) Name() string {
	if a.Kind == Custom && a.Key != "" {
		return "custom: " + a.Key
	}
	return a.Kind.Name()
}
