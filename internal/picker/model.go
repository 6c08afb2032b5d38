// Package picker implements the Bubble Tea model for the selection UI.
// Requests arrive from the lifecycle manager through Program.Send; the
// model acknowledges display, collects the user's choice, and reports it
// back through the Coordinator.
package picker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/ava/internal/lifecycle"
	"github.com/runger/ava/internal/protocol"
)

// Coordinator is the lifecycle-manager surface the UI drives.
type Coordinator interface {
	BeginDisplay(p *lifecycle.Pending) bool
	Resolve(id uint64, res lifecycle.Result) bool
}

// RequestMsg delivers a pending request into the event loop. The
// request-forwarding goroutine sends one per queue entry.
type RequestMsg struct {
	Pending *lifecycle.Pending
}

// viewState is what the picker is currently showing.
type viewState int

const (
	stateWaiting  viewState = iota // idle screen between requests
	stateList                      // top-level item list
	stateChildren                  // track list of an expanded container
)

// KeyMap holds the picker key bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:   key.NewBinding(key.WithKeys("left", "backspace"), key.WithHelp("←", "back")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Model is the Bubble Tea model for the picker.
type Model struct {
	coord Coordinator
	keys  KeyMap

	state   viewState
	pending *lifecycle.Pending
	items   []protocol.Item
	title   string

	selection int // index into items
	parent    int // expanded container index; -1 in stateList
	childSel  int // index into the expanded container's children

	width  int
	height int
}

// NewModel creates a picker model driven by coord.
func NewModel(coord Coordinator) Model {
	return Model{
		coord:  coord,
		keys:   DefaultKeyMap(),
		state:  stateWaiting,
		parent: -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RequestMsg:
		return m.handleRequest(msg.Pending)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleRequest swaps in a new request. A stale entry (superseded while
// still queued, or already abandoned by its handler) is dropped without
// touching the current view.
func (m Model) handleRequest(p *lifecycle.Pending) (tea.Model, tea.Cmd) {
	if !m.coord.BeginDisplay(p) {
		return m, nil
	}
	m.pending = p
	m.title = p.Req.Title
	m.items = p.Req.Items
	m.state = stateList
	m.selection = 0
	m.parent = -1
	m.childSel = 0
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		// Resolve any displayed request before the process goes away so
		// the assistant is not left waiting out its full timeout.
		m = m.resolveCancel()
		return m, tea.Quit
	}

	if m.state == stateWaiting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)

	case key.Matches(msg, m.keys.Select):
		return m.handleSelect()

	case key.Matches(msg, m.keys.Back):
		if m.state == stateChildren {
			m.state = stateList
			m.parent = -1
		}

	case key.Matches(msg, m.keys.Cancel):
		if m.state == stateChildren {
			m.state = stateList
			m.parent = -1
			return m, nil
		}
		m = m.resolveCancel()

	default:
		// Digit keys select by displayed number.
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 {
			return m.selectNumber(n)
		}
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	switch m.state {
	case stateList:
		m.selection = clamp(m.selection+delta, 0, len(m.items)-1)
	case stateChildren:
		m.childSel = clamp(m.childSel+delta, 0, len(m.items[m.parent].Children)-1)
	}
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateList:
		if m.selection < 0 || m.selection >= len(m.items) {
			return m, nil
		}
		item := m.items[m.selection]
		if len(item.Children) > 0 {
			m.parent = m.selection
			m.childSel = 0
			m.state = stateChildren
			return m, nil
		}
		return m.resolve(lifecycle.Result{Index: m.selection, ChildIndex: -1}), nil

	case stateChildren:
		return m.resolve(lifecycle.Result{Index: m.parent, ChildIndex: m.childSel}), nil
	}
	return m, nil
}

func (m Model) selectNumber(n int) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateList:
		if n <= len(m.items) {
			item := m.items[n-1]
			if len(item.Children) > 0 {
				m.selection = n - 1
				m.parent = n - 1
				m.childSel = 0
				m.state = stateChildren
				return m, nil
			}
			return m.resolve(lifecycle.Result{Index: n - 1, ChildIndex: -1}), nil
		}
	case stateChildren:
		if n <= len(m.items[m.parent].Children) {
			return m.resolve(lifecycle.Result{Index: m.parent, ChildIndex: n - 1}), nil
		}
	}
	return m, nil
}

// resolve reports the result and returns to the idle screen.
func (m Model) resolve(res lifecycle.Result) Model {
	if m.pending != nil {
		m.coord.Resolve(m.pending.ID, res)
	}
	m.pending = nil
	m.items = nil
	m.state = stateWaiting
	m.parent = -1
	return m
}

func (m Model) resolveCancel() Model {
	if m.pending == nil {
		return m
	}
	return m.resolve(lifecycle.Result{
		Index:          -1,
		ChildIndex:     -1,
		Cancelled:      true,
		ExplicitCancel: true,
	})
}

// Displaying reports whether a request is currently on screen.
func (m Model) Displaying() bool {
	return m.pending != nil
}

// --- View rendering ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	kindStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.state {
	case stateList:
		return m.viewList(m.title, m.listRows(), m.selection)
	case stateChildren:
		parent := m.items[m.parent]
		return m.viewList(parent.Text, m.childRows(parent), m.childSel)
	default:
		return dimStyle.Render("Waiting for the assistant…") + "\n\n" +
			dimStyle.Render("ctrl+c quit")
	}
}

func (m Model) listRows() []string {
	rows := make([]string, len(m.items))
	for i, it := range m.items {
		label := it.Text
		if it.Kind.CanHaveChildren() && len(it.Children) > 0 {
			label += " " + kindStyle.Render(fmt.Sprintf("(%s, %d tracks)", it.Kind, len(it.Children)))
		}
		rows[i] = label
	}
	return rows
}

func (m Model) childRows(parent protocol.Item) []string {
	rows := make([]string, len(parent.Children))
	for i, c := range parent.Children {
		rows[i] = c.Text
	}
	return rows
}

func (m Model) viewList(title string, rows []string, selected int) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n\n")
	}

	for i, row := range rows {
		display := row
		if m.width > 6 {
			display = MiddleTruncate(StripANSI(display), m.width-6)
		}
		line := fmt.Sprintf("%2d. %s", i+1, display)
		if i == selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteRune('\n')
	}

	b.WriteString("\n")
	if m.state == stateChildren {
		b.WriteString(dimStyle.Render("enter select · ← back · digits jump"))
	} else {
		b.WriteString(dimStyle.Render("enter select · esc cancel · digits jump"))
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
