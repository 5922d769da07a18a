// Package dispatch turns raw key events into actions.
//
// The dispatcher is a modal state machine: transitions are pure functions
// of (state, key) and produce at most one event, so the whole key table is
// unit-testable without a terminal. Key names follow bubbletea's
// KeyMsg.String() encoding ("a", "A", "enter", "esc", "backspace").
package dispatch

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/config"
)

// Mode is the dispatcher's current input mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAwaitingSecond
	ModeEnteringText
	ModeFiltering
	ModeSelecting
	ModeHelp
)

// TextTarget says which action argument an EnteringText prompt captures.
type TextTarget int

const (
	TargetCommitMessage TextTarget = iota
	TargetCommitSelectedMessage
	TargetLogCount
	TargetRevisionChanges
	TargetRevisionDiff
	TargetCheckout
	TargetMerge
	TargetTagName
	TargetNewBranch
	TargetDeleteBranch
	TargetCloseBranch
)

// Prompt returns the placeholder text shown while capturing this target.
func (t TextTarget) Prompt() string {
	switch t {
	case TargetCommitMessage, TargetCommitSelectedMessage:
		return "commit message"
	case TargetLogCount:
		return "entry count"
	case TargetRevisionChanges, TargetRevisionDiff:
		return "revision"
	case TargetCheckout:
		return "checkout target"
	case TargetMerge:
		return "merge target"
	case TargetTagName:
		return "tag name"
	case TargetNewBranch:
		return "branch name"
	case TargetDeleteBranch:
		return "branch to delete"
	case TargetCloseBranch:
		return "branch to close"
	default:
		return ""
	}
}

// EventKind classifies what a key step produced.
type EventKind int

const (
	// EventNone: key consumed, nothing to do beyond re-rendering.
	EventNone EventKind = iota
	// EventAction: a fully-resolved action to submit.
	EventAction
	// EventQuit: the session should end.
	EventQuit
	// EventCancel: cancel key pressed in Normal mode; the controller
	// cancels in-flight operations, or quits when none are pending.
	EventCancel
	// EventFilterChanged: the live filter text changed.
	EventFilterChanged
	// EventSelectKey: a key for the viewport while Selecting.
	EventSelectKey
)

// Event is the outcome of feeding one key to the dispatcher.
type Event struct {
	Kind   EventKind
	Action action.Action
	Filter string
	Key    string
}

// seqEntry describes the resolution of a committed key sequence: either an
// immediate action kind or a transition to a text prompt for one argument.
type seqEntry struct {
	kind   action.Kind
	prompt TextTarget
	text   bool
}

// singleKeys and secondKeys form the static keybind table. The table is
// prefix-free at each depth: first keys either resolve directly or appear
// only as prefixes in secondKeys.
var singleKeys = map[string]seqEntry{
	"s": {kind: action.Status},
	"c": {prompt: TargetCommitMessage, text: true},
	"C": {prompt: TargetCommitSelectedMessage, text: true},
	"f": {kind: action.Fetch},
	"p": {kind: action.Push},
	"P": {kind: action.Pull},
	"u": {prompt: TargetCheckout, text: true},
	"t": {prompt: TargetTagName, text: true},
}

var secondKeys = map[string]seqEntry{
	"ll": {kind: action.LogAll},
	"lc": {prompt: TargetLogCount, text: true},
	"dd": {kind: action.DiffAll},
	"ds": {kind: action.DiffSelected},
	"dc": {prompt: TargetRevisionChanges, text: true},
	"dr": {prompt: TargetRevisionDiff, text: true},
	"rr": {kind: action.RevertAll},
	"rs": {kind: action.RevertSelected},
	"bb": {kind: action.ListBranches},
	"bn": {prompt: TargetNewBranch, text: true},
	"bd": {prompt: TargetDeleteBranch, text: true},
	"bc": {prompt: TargetCloseBranch, text: true},
	"mm": {prompt: TargetMerge, text: true},
	"mc": {kind: action.ListUnresolved},
	"mo": {kind: action.ResolveTakeOther},
	"ml": {kind: action.ResolveTakeLocal},
}

// prefixKeys are first keys that await a second key.
var prefixKeys = map[string]bool{"l": true, "d": true, "r": true, "b": true, "m": true}

// customPrefix starts a lookup against the loaded custom action table.
const customPrefix = "x"

// Dispatcher accumulates key events into actions and mode transitions.
type Dispatcher struct {
	mode    Mode
	partial string // pending first key, or accumulated custom lookup
	custom  bool   // partial is a custom lookup
	buffer  string // EnteringText line buffer
	target  TextTarget
	filter  string

	customs []config.CustomAction
}

// New creates a dispatcher in Normal mode over the given custom actions.
func New(customs []config.CustomAction) *Dispatcher {
	return &Dispatcher{customs: customs}
}

func (d *Dispatcher) Mode() Mode         { return d.mode }
func (d *Dispatcher) Partial() string    { return d.partial }
func (d *Dispatcher) Buffer() string     { return d.buffer }
func (d *Dispatcher) FilterText() string { return d.filter }
func (d *Dispatcher) Target() TextTarget { return d.target }

// reset returns the dispatcher to Normal, clearing any partial input.
// The live filter text survives: only the Filtering mode ends.
func (d *Dispatcher) reset() {
	d.mode = ModeNormal
	d.partial = ""
	d.custom = false
	d.buffer = ""
}

// Step feeds one key to the state machine.
func (d *Dispatcher) Step(key string) Event {
	if key == "ctrl+c" {
		if d.mode == ModeNormal {
			return Event{Kind: EventQuit}
		}
		d.reset()
		return Event{Kind: EventNone}
	}

	switch d.mode {
	case ModeNormal:
		return d.stepNormal(key)
	case ModeAwaitingSecond:
		return d.stepAwaiting(key)
	case ModeEnteringText:
		return d.stepText(key)
	case ModeFiltering:
		return d.stepFilter(key)
	case ModeSelecting:
		return d.stepSelecting(key)
	case ModeHelp:
		d.reset()
		return Event{Kind: EventNone}
	default:
		d.reset()
		return Event{Kind: EventNone}
	}
}

func (d *Dispatcher) stepNormal(key string) Event {
	switch key {
	case "q":
		return Event{Kind: EventQuit}
	case "esc":
		return Event{Kind: EventCancel}
	case "h", "?":
		d.mode = ModeHelp
		return Event{Kind: EventNone}
	case "/":
		d.mode = ModeFiltering
		d.filter = ""
		return Event{Kind: EventFilterChanged, Filter: ""}
	case "v":
		d.mode = ModeSelecting
		return Event{Kind: EventNone}
	case customPrefix:
		d.mode = ModeAwaitingSecond
		d.custom = true
		d.partial = ""
		return Event{Kind: EventNone}
	}

	if entry, ok := singleKeys[key]; ok {
		return d.resolve(entry)
	}
	if prefixKeys[key] {
		d.mode = ModeAwaitingSecond
		d.partial = key
		return Event{Kind: EventNone}
	}
	return Event{Kind: EventNone}
}

func (d *Dispatcher) stepAwaiting(key string) Event {
	if key == "esc" {
		d.reset()
		return Event{Kind: EventNone}
	}
	if d.custom {
		return d.stepCustom(key)
	}
	if !isRuneKey(key) {
		d.reset()
		return Event{Kind: EventNone}
	}

	seq := d.partial + key
	d.partial = ""
	d.mode = ModeNormal
	if entry, ok := secondKeys[seq]; ok {
		return d.resolve(entry)
	}
	// Unrecognized second key: silent reset, no error.
	return Event{Kind: EventNone}
}

// stepCustom accumulates keys and matches them against the custom action
// table. An exact key match resolves; when no entry has the accumulated
// text as a prefix, the lookup resets silently.
func (d *Dispatcher) stepCustom(key string) Event {
	if !isRuneKey(key) {
		d.reset()
		return Event{Kind: EventNone}
	}
	d.partial += key

	anyPrefix := false
	for _, ca := range d.customs {
		if ca.Key == d.partial {
			act := action.Action{Kind: action.Custom, Key: ca.Key, Argv: ca.Argv}
			d.reset()
			return Event{Kind: EventAction, Action: act}
		}
		if strings.HasPrefix(ca.Key, d.partial) {
			anyPrefix = true
		}
	}
	if !anyPrefix {
		d.reset()
	}
	return Event{Kind: EventNone}
}

func (d *Dispatcher) stepText(key string) Event {
	switch key {
	case "esc":
		d.reset()
		return Event{Kind: EventNone}
	case "enter":
		text := strings.TrimSpace(d.buffer)
		target := d.target
		d.reset()
		if text == "" {
			return Event{Kind: EventNone}
		}
		return d.buildTextAction(target, text)
	case "backspace":
		if d.buffer != "" {
			_, size := utf8.DecodeLastRuneInString(d.buffer)
			d.buffer = d.buffer[:len(d.buffer)-size]
		}
		return Event{Kind: EventNone}
	case " ", "space":
		d.buffer += " "
		return Event{Kind: EventNone}
	}
	if isRuneKey(key) {
		d.buffer += key
	}
	return Event{Kind: EventNone}
}

func (d *Dispatcher) buildTextAction(target TextTarget, text string) Event {
	act := action.Action{}
	switch target {
	case TargetCommitMessage:
		act = action.Action{Kind: action.CommitAll, Message: text}
	case TargetCommitSelectedMessage:
		act = action.Action{Kind: action.CommitSelected, Message: text}
	case TargetLogCount:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 {
			return Event{Kind: EventNone}
		}
		act = action.Action{Kind: action.LogCount, Count: n}
	case TargetRevisionChanges:
		act = action.Action{Kind: action.RevisionChanges, Target: text}
	case TargetRevisionDiff:
		act = action.Action{Kind: action.RevisionDiff, Target: text}
	case TargetCheckout:
		act = action.Action{Kind: action.Checkout, Target: text}
	case TargetMerge:
		act = action.Action{Kind: action.Merge, Target: text}
	case TargetTagName:
		act = action.Action{Kind: action.NewTag, Target: text}
	case TargetNewBranch:
		act = action.Action{Kind: action.NewBranch, Target: text}
	case TargetDeleteBranch:
		act = action.Action{Kind: action.DeleteBranch, Target: text}
	case TargetCloseBranch:
		act = action.Action{Kind: action.CloseBranch, Target: text}
	}
	return Event{Kind: EventAction, Action: act}
}

func (d *Dispatcher) stepFilter(key string) Event {
	switch key {
	case "esc":
		d.filter = ""
		d.reset()
		return Event{Kind: EventFilterChanged, Filter: ""}
	case "enter", "ctrl+f":
		// Keep the filter applied, return to Normal.
		d.reset()
		return Event{Kind: EventNone}
	case "backspace":
		if d.filter != "" {
			_, size := utf8.DecodeLastRuneInString(d.filter)
			d.filter = d.filter[:len(d.filter)-size]
		}
		return Event{Kind: EventFilterChanged, Filter: d.filter}
	case " ", "space":
		d.filter += " "
		return Event{Kind: EventFilterChanged, Filter: d.filter}
	}
	if isRuneKey(key) {
		d.filter += key
		return Event{Kind: EventFilterChanged, Filter: d.filter}
	}
	return Event{Kind: EventNone}
}

func (d *Dispatcher) stepSelecting(key string) Event {
	switch key {
	case "esc", "enter", "v":
		d.reset()
		return Event{Kind: EventNone}
	}
	return Event{Kind: EventSelectKey, Key: key}
}

func (d *Dispatcher) resolve(entry seqEntry) Event {
	if entry.text {
		d.mode = ModeEnteringText
		d.target = entry.prompt
		d.buffer = ""
		return Event{Kind: EventNone}
	}
	d.reset()
	return Event{Kind: EventAction, Action: action.Action{Kind: entry.kind}}
}

// isRuneKey reports whether key is a single printable rune rather than a
// named key like "enter" or "ctrl+d".
func isRuneKey(key string) bool {
	return utf8.RuneCountInString(key) == 1
}
