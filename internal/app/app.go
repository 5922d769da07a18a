// Package app wires the dispatcher, task runner, and result view into the
// root bubbletea model.
package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/components/output"
	"github.com/keyvc/vix/internal/config"
	"github.com/keyvc/vix/internal/dispatch"
	"github.com/keyvc/vix/internal/runner"
	"github.com/keyvc/vix/internal/theme"
	"github.com/keyvc/vix/internal/vcs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// statusDebounceInterval folds bursts of worktree events into one refresh.
const statusDebounceInterval = 500 * time.Millisecond

// Model is the root application model. All mutable session state lives
// here; the backend and runner are shared with their own goroutines.
type Model struct {
	cfg   config.Config
	theme *theme.Theme
	keys  KeyMap
	log   zerolog.Logger

	backend vcs.Backend
	runner  *runner.Runner
	disp    *dispatch.Dispatcher
	output  output.Model
	spin    spinner.Model

	// pending tracks in-flight operations for the busy indicator. Entries
	// are removed on completion or cleared wholesale on cancel-all, since
	// cancelled operations never report back.
	pending map[runner.Handle]action.Action

	lastTitle string
	lastOK    bool
	hasLast   bool

	// notice is a transient status line for rejected submissions. It never
	// touches the result view and clears on the next keypress or completion.
	notice string

	watcher    *fsnotify.Watcher
	debouncing bool

	width  int
	height int
	ready  bool
}

// New builds the session model. The runner must already be started; its
// shutdown belongs to the caller.
func New(backend vcs.Backend, run *runner.Runner, cfg config.Config, customs []config.CustomAction, log zerolog.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	t := theme.Default()

	// Watcher failures degrade to manual refresh only.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("worktree watcher unavailable")
		watcher = nil
	}

	return Model{
		cfg:     cfg,
		theme:   t,
		keys:    DefaultKeyMap(),
		log:     log,
		backend: backend,
		runner:  run,
		disp:    dispatch.New(customs),
		output:  output.New(t),
		spin:    sp,
		pending: make(map[runner.Handle]action.Action),
		watcher: watcher,
	}
}

// Init starts the completion listener, the worktree watcher, and the
// initial status load.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listenCompletions()}

	if m.watcher != nil {
		m.addWatchRecursive(m.backend.Root())
		cmds = append(cmds, m.watchFilesCmd())
	}

	if cmd := m.submit(action.Action{Kind: action.Status}); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// addWatchRecursive watches the worktree directories, skipping the
// backend metadata and common build output.
func (m Model) addWatchRecursive(root string) {
	skip := map[string]bool{
		".git":         true,
		".hg":          true,
		".plastic":     true,
		"node_modules": true,
		"vendor":       true,
		"target":       true,
	}
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		name := info.Name()
		if skip[name] || (path != root && strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		m.watcher.Add(path)
		return nil
	})
}

// watchFilesCmd blocks until the watcher reports a worktree change.
func (m Model) watchFilesCmd() tea.Cmd {
	return func() tea.Msg {
		if m.watcher == nil {
			return nil
		}
		for {
			select {
			case event, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				return fileChangeMsg{Path: event.Name, Op: event.Op}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

// listenCompletions blocks until the runner reports one finished operation.
func (m Model) listenCompletions() tea.Cmd {
	return func() tea.Msg {
		c, ok := <-m.runner.Completions()
		if !ok {
			return runnerClosedMsg{}
		}
		return completionMsg{c}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.output.SetSize(msg.Width, max(1, msg.Height-2))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case completionMsg:
		return m.handleCompletion(msg.c)

	case runnerClosedMsg:
		return m, nil

	case fileChangeMsg:
		cmds := []tea.Cmd{m.watchFilesCmd()}
		if msg.Path == "" {
			return m, tea.Batch(cmds...)
		}
		if msg.Op&fsnotify.Create != 0 && m.watcher != nil {
			if info, err := os.Stat(msg.Path); err == nil && info.IsDir() {
				if !strings.HasPrefix(filepath.Base(msg.Path), ".") {
					m.watcher.Add(msg.Path)
				}
			}
		}
		if !m.debouncing {
			m.debouncing = true
			cmds = append(cmds, tea.Tick(statusDebounceInterval, func(time.Time) tea.Msg {
				return statusDebounceMsg{}
			}))
		}
		return m, tea.Batch(cmds...)

	case statusDebounceMsg:
		m.debouncing = false
		// Refresh only when the status view is (or would be) showing, so a
		// diff or log the operator is reading never gets replaced.
		if m.output.HasContent() && m.output.Title() != action.Status.Name() {
			return m, nil
		}
		return m, m.submit(action.Action{Kind: action.Status})

	case spinner.TickMsg:
		if len(m.pending) == 0 && m.runner.Pending() == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	m.notice = ""

	// Viewport navigation is checked before the dispatcher, but only while
	// no sequence, prompt, or filter is being entered.
	if m.disp.Mode() == dispatch.ModeNormal {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.output.Scroll(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.output.Scroll(1)
			return m, nil
		case key.Matches(msg, m.keys.HalfUp):
			m.output.Scroll(-max(1, m.height/2))
			return m, nil
		case key.Matches(msg, m.keys.HalfDown):
			m.output.Scroll(max(1, m.height/2))
			return m, nil
		case key.Matches(msg, m.keys.Top):
			m.output.Scroll(-1 << 30)
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.output.Scroll(1 << 30)
			return m, nil
		}
	}

	ev := m.disp.Step(k)
	m.output.SetSelecting(m.disp.Mode() == dispatch.ModeSelecting)

	switch ev.Kind {
	case dispatch.EventQuit:
		return m.quit()

	case dispatch.EventCancel:
		if m.runner.Pending() > 0 {
			m.log.Info().Int("pending", m.runner.Pending()).Msg("cancelling operations")
			m.runner.CancelAll()
			m.pending = make(map[runner.Handle]action.Action)
			return m, nil
		}
		return m.quit()

	case dispatch.EventAction:
		return m, m.submit(ev.Action)

	case dispatch.EventFilterChanged:
		m.output.ApplyFilter(ev.Filter)
		return m, nil

	case dispatch.EventSelectKey:
		m.output.HandleSelectKey(ev.Key)
		return m, nil
	}
	return m, nil
}

// submit resolves selected-line arguments and admission, then hands the
// action to the runner. Policy rejections surface as failed results;
// admission rejections surface as a status notice.
func (m *Model) submit(act action.Action) tea.Cmd {
	switch act.Kind {
	case action.DiffSelected, action.CommitSelected, action.RevertSelected:
		act.Paths = m.output.SelectedRefs()
		if len(act.Paths) == 0 {
			m.showLocal(act, vcs.FailResult("", "no lines selected"))
			return nil
		}
	}

	if m.cfg.ReadOnly && act.Kind.Blocking() {
		m.showLocal(act, vcs.FailResult("", act.Name()+" is disabled by configuration"))
		return nil
	}

	h, err := m.runner.Submit(act)
	if err != nil {
		// Busy and shutdown rejections stay out of the result view so the
		// operator keeps whatever they were reading.
		m.notice = act.Name() + ": " + err.Error()
		return nil
	}
	m.pending[h] = act
	return m.spin.Tick
}

// showLocal displays a result produced without running anything.
func (m *Model) showLocal(act action.Action, r vcs.Result) {
	m.lastTitle = act.Name()
	m.lastOK = false
	m.hasLast = true
	m.output.SetContent(act.Name(), r, false)
}

func (m Model) handleCompletion(c runner.Completion) (tea.Model, tea.Cmd) {
	delete(m.pending, c.Handle)

	m.notice = ""
	m.lastTitle = c.Action.Name()
	m.lastOK = c.Result.OK
	m.hasLast = true

	isDiff := false
	switch c.Action.Kind {
	case action.DiffAll, action.DiffSelected, action.RevisionDiff:
		isDiff = true
	}
	m.output.SetContent(c.Action.Name(), c.Result, isDiff)

	cmds := []tea.Cmd{m.listenCompletions()}
	if len(m.pending) > 0 {
		cmds = append(cmds, m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.watcher != nil {
		m.watcher.Close()
	}
	return m, tea.Quit
}

// View renders header, result view, and the mode-dependent footer.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.renderHeader()

	var body string
	if m.disp.Mode() == dispatch.ModeHelp {
		body = m.renderHelp()
	} else {
		body = m.output.View()
	}

	footer := m.renderFooter()

	bodyHeight := max(1, m.height-2)
	bodyLines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(bodyLines) > bodyHeight {
		bodyLines = bodyLines[:bodyHeight]
	}
	for len(bodyLines) < bodyHeight {
		bodyLines = append(bodyLines, "")
	}

	return header + "\n" + strings.Join(bodyLines, "\n") + "\n" + footer
}

func (m Model) renderHeader() string {
	left := m.theme.Header.Render(" vix ") +
		m.theme.HeaderMode.Render(m.backend.Name()) +
		m.theme.Header.Render(" "+m.backend.Root())

	var status string
	switch {
	case m.notice != "":
		status = m.theme.StatusErr.Render(m.notice)
	case len(m.pending) > 0:
		names := make([]string, 0, len(m.pending))
		for _, act := range m.pending {
			names = append(names, act.Name())
		}
		status = m.theme.StatusBusy.Render(m.spin.View() + strings.Join(names, ", "))
	case m.hasLast && m.lastOK:
		status = m.theme.StatusOK.Render(m.lastTitle + " ok")
	case m.hasLast:
		status = m.theme.StatusErr.Render(m.lastTitle + " failed")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderFooter() string {
	switch m.disp.Mode() {
	case dispatch.ModeEnteringText:
		prompt := m.disp.Target().Prompt()
		line := m.theme.Prompt.Render(" "+prompt+": "+m.disp.Buffer()) + m.theme.LineCursor.Render(" ")
		if m.disp.Buffer() == "" {
			line += "  " + m.theme.Placeholder.Render("enter to confirm, esc to cancel")
		}
		return line
	case dispatch.ModeFiltering:
		return m.theme.FilterPrefix.Render(" / ") + m.theme.Prompt.Render(m.disp.FilterText()) + m.theme.LineCursor.Render(" ")
	case dispatch.ModeSelecting:
		return m.theme.Help.Render(" select: j/k move  space toggle  a all  enter done  esc done")
	case dispatch.ModeAwaitingSecond:
		return m.theme.Help.Render(" " + m.disp.Partial() + "-")
	case dispatch.ModeHelp:
		return m.theme.Help.Render(" any key to close")
	default:
		hints := " ?:help  /:filter  v:select  esc:cancel  q:quit"
		// The indicator follows the filter actually applied to the view:
		// new content clears the viewport filter, and the footer with it.
		if m.output.FilterText() != "" {
			return m.theme.FilterPrefix.Render(" /"+m.output.FilterText()+" ") + m.theme.Help.Render(hints)
		}
		if m.cfg.ReadOnly {
			return m.theme.FilterPrefix.Render(" read-only ") + m.theme.Help.Render(hints)
		}
		return m.theme.Help.Render(hints)
	}
}

func (m Model) renderHelp() string {
	cols := [][2]string{
		{"s", "status"},
		{"ll", "log"},
		{"lc", "log with entry count"},
		{"dd", "diff of the working directory"},
		{"ds", "diff of the selected files"},
		{"dc", "changes in a revision"},
		{"dr", "diff of a revision"},
		{"c", "commit all changes"},
		{"C", "commit selected files"},
		{"rr", "revert all changes"},
		{"rs", "revert selected files"},
		{"mc", "list unresolved conflicts"},
		{"mo", "resolve conflicts taking other"},
		{"ml", "resolve conflicts taking local"},
		{"f", "fetch"},
		{"P", "pull"},
		{"p", "push"},
		{"t", "create or move a tag"},
		{"bb", "list branches"},
		{"bn", "create a branch and switch to it"},
		{"bd", "delete a branch"},
		{"bc", "close a branch"},
		{"u", "checkout a revision or branch"},
		{"mm", "merge a revision or branch"},
		{"x", "custom command lookup"},
		{"/", "filter the current view"},
		{"v", "select lines"},
		{"esc", "cancel running operations, or quit"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(m.theme.LineHeader.Render(" keys"))
	sb.WriteByte('\n')
	for _, c := range cols {
		sb.WriteString(m.theme.Prompt.Render("  "+pad(c[0], 4)) + m.theme.Help.Render(c[1]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
