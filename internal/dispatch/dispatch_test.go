package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/config"
)

func feed(t *testing.T, d *Dispatcher, keys string) Event {
	t.Helper()
	var ev Event
	for _, r := range keys {
		ev = d.Step(string(r))
	}
	return ev
}

func TestSingleKeyActions(t *testing.T) {
	cases := map[string]action.Kind{
		"s": action.Status,
		"f": action.Fetch,
		"p": action.Push,
		"P": action.Pull,
	}
	for key, want := range cases {
		t.Run(key, func(t *testing.T) {
			d := New(nil)
			ev := d.Step(key)
			require.Equal(t, EventAction, ev.Kind)
			assert.Equal(t, want, ev.Action.Kind)
			assert.Equal(t, ModeNormal, d.Mode())
		})
	}
}

func TestTwoKeySequences(t *testing.T) {
	cases := map[string]action.Kind{
		"ll": action.LogAll,
		"dd": action.DiffAll,
		"ds": action.DiffSelected,
		"rr": action.RevertAll,
		"rs": action.RevertSelected,
		"bb": action.ListBranches,
		"mc": action.ListUnresolved,
		"mo": action.ResolveTakeOther,
		"ml": action.ResolveTakeLocal,
	}
	for seq, want := range cases {
		t.Run(seq, func(t *testing.T) {
			d := New(nil)

			ev := d.Step(seq[:1])
			assert.Equal(t, EventNone, ev.Kind)
			assert.Equal(t, ModeAwaitingSecond, d.Mode())

			ev = d.Step(seq[1:])
			require.Equal(t, EventAction, ev.Kind)
			assert.Equal(t, want, ev.Action.Kind)
			assert.Equal(t, ModeNormal, d.Mode())
		})
	}
}

func TestUnrecognizedSecondKeyResetsSilently(t *testing.T) {
	d := New(nil)

	d.Step("l")
	ev := d.Step("z")

	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())

	// The next key is interpreted fresh.
	ev = d.Step("s")
	assert.Equal(t, EventAction, ev.Kind)
	assert.Equal(t, action.Status, ev.Action.Kind)
}

func TestEscCancelsPendingSequence(t *testing.T) {
	d := New(nil)

	d.Step("d")
	ev := d.Step("esc")

	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestCommitMessageFlow(t *testing.T) {
	d := New(nil)

	ev := d.Step("c")
	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeEnteringText, d.Mode())
	assert.Equal(t, "commit message", d.Target().Prompt())

	for _, r := range "fix" {
		d.Step(string(r))
	}
	d.Step("space")
	for _, r := range "bug" {
		d.Step(string(r))
	}
	assert.Equal(t, "fix bug", d.Buffer())

	ev = d.Step("enter")
	require.Equal(t, EventAction, ev.Kind)
	assert.Equal(t, action.CommitAll, ev.Action.Kind)
	assert.Equal(t, "fix bug", ev.Action.Message)
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestTextPromptBackspace(t *testing.T) {
	d := New(nil)

	d.Step("t")
	feed(t, d, "v1x")
	d.Step("backspace")
	ev := d.Step("enter")

	require.Equal(t, EventAction, ev.Kind)
	assert.Equal(t, action.NewTag, ev.Action.Kind)
	assert.Equal(t, "v1", ev.Action.Target)
}

func TestEmptyTextSubmitsNothing(t *testing.T) {
	d := New(nil)

	d.Step("c")
	ev := d.Step("enter")

	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestWhitespaceOnlyTextSubmitsNothing(t *testing.T) {
	d := New(nil)

	d.Step("c")
	d.Step("space")
	d.Step("space")
	ev := d.Step("enter")

	assert.Equal(t, EventNone, ev.Kind)
}

func TestEscCancelsTextPrompt(t *testing.T) {
	d := New(nil)

	d.Step("c")
	feed(t, d, "wip")
	ev := d.Step("esc")

	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
	assert.Empty(t, d.Buffer())
}

func TestLogCountValidation(t *testing.T) {
	t.Run("valid count", func(t *testing.T) {
		d := New(nil)
		d.Step("l")
		d.Step("c")
		feed(t, d, "15")
		ev := d.Step("enter")

		require.Equal(t, EventAction, ev.Kind)
		assert.Equal(t, action.LogCount, ev.Action.Kind)
		assert.Equal(t, 15, ev.Action.Count)
	})

	t.Run("non-numeric count", func(t *testing.T) {
		d := New(nil)
		d.Step("l")
		d.Step("c")
		feed(t, d, "many")
		ev := d.Step("enter")

		assert.Equal(t, EventNone, ev.Kind)
	})

	t.Run("zero count", func(t *testing.T) {
		d := New(nil)
		d.Step("l")
		d.Step("c")
		d.Step("0")
		ev := d.Step("enter")

		assert.Equal(t, EventNone, ev.Kind)
	})
}

func TestTargetPrompts(t *testing.T) {
	cases := []struct {
		keys   string
		text   string
		kind   action.Kind
		target string
	}{
		{"u", "main", action.Checkout, "main"},
		{"mm", "develop", action.Merge, "develop"},
		{"bn", "feature", action.NewBranch, "feature"},
		{"bd", "stale", action.DeleteBranch, "stale"},
		{"bc", "done", action.CloseBranch, "done"},
		{"dc", "abc123", action.RevisionChanges, "abc123"},
		{"dr", "abc123", action.RevisionDiff, "abc123"},
	}
	for _, tc := range cases {
		t.Run(tc.keys, func(t *testing.T) {
			d := New(nil)
			feed(t, d, tc.keys)
			require.Equal(t, ModeEnteringText, d.Mode())
			feed(t, d, tc.text)
			ev := d.Step("enter")
			require.Equal(t, EventAction, ev.Kind)
			assert.Equal(t, tc.kind, ev.Action.Kind)
			assert.Equal(t, tc.target, ev.Action.Target)
		})
	}
}

func TestCustomLookup(t *testing.T) {
	customs := []config.CustomAction{
		{Key: "gv", Argv: []string{"git", "version"}},
		{Key: "gp", Argv: []string{"git", "prune"}},
	}

	t.Run("exact match resolves", func(t *testing.T) {
		d := New(customs)
		d.Step("x")
		assert.Equal(t, ModeAwaitingSecond, d.Mode())

		ev := d.Step("g")
		assert.Equal(t, EventNone, ev.Kind)

		ev = d.Step("v")
		require.Equal(t, EventAction, ev.Kind)
		assert.Equal(t, action.Custom, ev.Action.Kind)
		assert.Equal(t, "gv", ev.Action.Key)
		assert.Equal(t, []string{"git", "version"}, ev.Action.Argv)
	})

	t.Run("no prefix candidate resets", func(t *testing.T) {
		d := New(customs)
		d.Step("x")
		ev := d.Step("z")

		assert.Equal(t, EventNone, ev.Kind)
		assert.Equal(t, ModeNormal, d.Mode())
	})

	t.Run("empty table resets on first key", func(t *testing.T) {
		d := New(nil)
		d.Step("x")
		ev := d.Step("g")

		assert.Equal(t, EventNone, ev.Kind)
		assert.Equal(t, ModeNormal, d.Mode())
	})
}

func TestFilterMode(t *testing.T) {
	d := New(nil)

	ev := d.Step("/")
	assert.Equal(t, EventFilterChanged, ev.Kind)
	assert.Empty(t, ev.Filter)
	assert.Equal(t, ModeFiltering, d.Mode())

	ev = feed(t, d, "src")
	assert.Equal(t, EventFilterChanged, ev.Kind)
	assert.Equal(t, "src", ev.Filter)

	// enter keeps the filter applied.
	ev = d.Step("enter")
	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
	assert.Equal(t, "src", d.FilterText())
}

func TestFilterEscClears(t *testing.T) {
	d := New(nil)

	d.Step("/")
	feed(t, d, "abc")
	ev := d.Step("esc")

	assert.Equal(t, EventFilterChanged, ev.Kind)
	assert.Empty(t, ev.Filter)
	assert.Equal(t, ModeNormal, d.Mode())
	assert.Empty(t, d.FilterText())
}

func TestSelectingMode(t *testing.T) {
	d := New(nil)

	d.Step("v")
	assert.Equal(t, ModeSelecting, d.Mode())

	ev := d.Step("j")
	require.Equal(t, EventSelectKey, ev.Kind)
	assert.Equal(t, "j", ev.Key)

	ev = d.Step("space")
	require.Equal(t, EventSelectKey, ev.Kind)
	assert.Equal(t, "space", ev.Key)

	d.Step("esc")
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	d := New(nil)

	d.Step("?")
	assert.Equal(t, ModeHelp, d.Mode())

	ev := d.Step("s")
	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestQuitKeys(t *testing.T) {
	d := New(nil)
	assert.Equal(t, EventQuit, d.Step("q").Kind)

	d = New(nil)
	assert.Equal(t, EventQuit, d.Step("ctrl+c").Kind)
}

func TestCtrlCResetsNonNormalModes(t *testing.T) {
	d := New(nil)

	d.Step("c")
	feed(t, d, "half a message")
	ev := d.Step("ctrl+c")

	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, ModeNormal, d.Mode())
}

func TestEscInNormalIsCancel(t *testing.T) {
	d := New(nil)
	assert.Equal(t, EventCancel, d.Step("esc").Kind)
}

func TestKeyTableIsPrefixFree(t *testing.T) {
	for seq := range secondKeys {
		first := seq[:1]
		_, clash := singleKeys[first]
		assert.False(t, clash, "prefix %q of %q also bound as a single key", first, seq)
		assert.True(t, prefixKeys[first], "prefix %q of %q missing from prefixKeys", first, seq)
	}
	for key := range singleKeys {
		assert.False(t, prefixKeys[key], "key %q bound both single and prefix", key)
		assert.False(t, strings.HasPrefix(customPrefix, key), "key %q shadows custom prefix", key)
	}
}
