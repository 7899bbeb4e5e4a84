package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Panel is the controller the TUI presents. *panel.Controller implements it.
type Panel interface {
	EnsureLoaded(ctx context.Context) error
	State() view.PageState
	Subscribe() (<-chan view.PageState, func())
	Trigger(ctx context.Context, name string) error
	Remove(ctx context.Context, key string) error
	Add(ctx context.Context, ssid, password string) error
	RefreshSaved(ctx context.Context) error
	RefreshScanned(ctx context.Context) error
}

// Focus is the table receiving row keys.
type Focus int

const (
	FocusSaved Focus = iota
	FocusAvailable
)

// Messages
type (
	stateMsg  view.PageState
	closedMsg struct{}
	doneMsg   struct{ err error }
)

// panelKeyMap defines key bindings for the panel screen
type panelKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Enter   key.Binding
	Scan    key.Binding
	Start   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Tab, k.Enter, k.Scan, k.Start, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.Enter},
		{k.Scan, k.Start, k.Refresh, k.Quit},
	}
}

// promptKeyMap defines key bindings while the password prompt is open
type promptKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

func (k promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// Model is the panel screen.
type Model struct {
	panel   Panel
	device  string
	updates <-chan view.PageState
	cancel  func()

	State   view.PageState
	Focus   Focus
	Cursor  int
	Busy    bool
	Closed  bool
	LastErr error

	// Prompting is set while the password for PromptSSID is being entered
	Prompting     bool
	PromptSSID    string
	PasswordInput textinput.Model

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    panelKeyMap
	PKeys   promptKeyMap
}

// NewModel creates the panel screen for p. device labels the header.
func NewModel(p Panel, device string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 63
	pw.Width = 30

	width, height := GetTerminalSize()
	updates, cancel := p.Subscribe()

	return Model{
		panel:         p,
		device:        device,
		updates:       updates,
		cancel:        cancel,
		State:         p.State(),
		PasswordInput: pw,
		Width:         width,
		Height:        height,
		Spinner:       s,
		Help:          help.New(),
		Keys: panelKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "down"),
			),
			Tab: key.NewBinding(
				key.WithKeys("tab"),
				key.WithHelp("tab", "switch table"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "remove/add"),
			),
			Scan: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "scan"),
			),
			Start: key.NewBinding(
				key.WithKeys("S"),
				key.WithHelp("S", "start"),
			),
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		PKeys: promptKeyMap{
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "add"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "cancel"),
			),
		},
	}
}

// Init loads the panel and starts listening for state changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(func(ctx context.Context) error { return m.panel.EnsureLoaded(ctx) }),
		waitForState(m.updates),
		m.Spinner.Tick,
	)
}

func waitForState(updates <-chan view.PageState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

// run executes a blocking panel operation off the update loop.
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: fn(context.Background())}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case stateMsg:
		m.State = view.PageState(msg)
		m.clampCursor()
		return m, waitForState(m.updates)

	case closedMsg:
		m.Closed = true
		return m, tea.Quit

	case doneMsg:
		m.Busy = false
		m.LastErr = msg.err
		m.State = m.panel.State()
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.Prompting {
			return m.updatePrompt(msg)
		}
		return m.updatePanel(msg)
	}
	return m, nil
}

func (m Model) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < m.rowCount()-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.Keys.Tab):
		if m.Focus == FocusSaved {
			m.Focus = FocusAvailable
		} else {
			m.Focus = FocusSaved
		}
		m.Cursor = 0

	case key.Matches(msg, m.Keys.Enter):
		return m.activateRow()

	case key.Matches(msg, m.Keys.Scan):
		return m.trigger(wifiapi.ActionScan)

	case key.Matches(msg, m.Keys.Start):
		return m.trigger(wifiapi.ActionStart)

	case key.Matches(msg, m.Keys.Refresh):
		if m.Busy {
			return m, nil
		}
		m.Busy = true
		return m, m.run(func(ctx context.Context) error {
			if err := m.panel.RefreshSaved(ctx); err != nil {
				return err
			}
			return m.panel.RefreshScanned(ctx)
		})
	}
	return m, nil
}

func (m Model) trigger(name string) (tea.Model, tea.Cmd) {
	if m.Busy {
		return m, nil
	}
	m.Busy = true
	return m, m.run(func(ctx context.Context) error { return m.panel.Trigger(ctx, name) })
}

// activateRow removes the selected saved network or prompts for the password
// of the selected scanned one.
func (m Model) activateRow() (tea.Model, tea.Cmd) {
	if m.Busy || m.Cursor >= m.rowCount() {
		return m, nil
	}

	if m.Focus == FocusSaved {
		rows := view.SavedRows(m.State.Saved)
		id := rows[m.Cursor].Key
		m.Busy = true
		return m, m.run(func(ctx context.Context) error { return m.panel.Remove(ctx, id) })
	}

	m.Prompting = true
	m.PromptSSID = m.State.Scanned[m.Cursor].SSID
	m.PasswordInput.SetValue("")
	return m, m.PasswordInput.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.PKeys.Cancel):
		m.Prompting = false
		m.PasswordInput.Blur()
		return m, nil

	case key.Matches(msg, m.PKeys.Confirm):
		ssid, password := m.PromptSSID, m.PasswordInput.Value()
		m.Prompting = false
		m.PasswordInput.Blur()
		m.Busy = true
		return m, m.run(func(ctx context.Context) error { return m.panel.Add(ctx, ssid, password) })
	}

	var cmd tea.Cmd
	m.PasswordInput, cmd = m.PasswordInput.Update(msg)
	return m, cmd
}

func (m Model) rowCount() int {
	if m.Focus == FocusSaved {
		return len(m.State.Saved)
	}
	return len(m.State.Scanned)
}

func (m *Model) clampCursor() {
	if n := m.rowCount(); m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// View renders the panel screen
func (m Model) View() string {
	var footer string
	if m.Prompting {
		footer = m.Help.View(m.PKeys)
	} else {
		footer = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(m.device, m.buildContent(), footer, m.Width, m.Height)
}

func (m Model) buildContent() string {
	var b strings.Builder

	actions := make([]string, 0, len(m.State.Actions))
	for _, name := range m.State.Actions {
		actions = append(actions, "["+view.ActionLabel(name)+"]")
	}
	b.WriteString(strings.Join(actions, " "))
	if m.Busy {
		b.WriteString("  " + m.Spinner.View())
	}
	b.WriteString("\n")
	if msg := MessageString(m.State.Snack); msg != "" {
		b.WriteString(msg)
	}
	b.WriteString("\n\n")

	if !m.State.Loaded {
		b.WriteString(CaptionStyle.Render("Loading..."))
		return b.String()
	}

	savedSel, availSel := -1, -1
	if m.Focus == FocusSaved {
		savedSel = m.Cursor
	} else {
		availSel = m.Cursor
	}

	sections := []string{
		Section("Status", "", StatusList(m.State.Status), ""),
		Section("Saved networks", view.Caption(m.State.SavedUpdated),
			SavedTable(m.State.Saved, savedSel), view.RowCount(len(m.State.Saved))),
		Section("Available networks", view.Caption(m.State.ScannedUpdated),
			ScannedTable(m.State.Scanned, availSel), view.RowCount(len(m.State.Scanned))),
	}
	b.WriteString(strings.Join(sections, "\n\n"))

	if m.Prompting {
		b.WriteString("\n\n")
		b.WriteString(PromptStyle.Render("Password for " + m.PromptSSID + "\n" + m.PasswordInput.View()))
	}
	return b.String()
}

// Run shows the panel until the user quits or ctx is done.
func Run(ctx context.Context, p Panel, device string) error {
	m := NewModel(p, device)
	defer m.cancel()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
