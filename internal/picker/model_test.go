package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ava/internal/lifecycle"
	"github.com/runger/ava/internal/protocol"
)

// fakeCoord records BeginDisplay/Resolve calls without a real manager.
type fakeCoord struct {
	displayable bool
	displayed   []uint64
	resolvedID  uint64
	resolved    *lifecycle.Result
}

func (f *fakeCoord) BeginDisplay(p *lifecycle.Pending) bool {
	if !f.displayable {
		return false
	}
	f.displayed = append(f.displayed, p.ID)
	return true
}

func (f *fakeCoord) Resolve(id uint64, res lifecycle.Result) bool {
	f.resolvedID = id
	f.resolved = &res
	return true
}

func pendingReq(id uint64, items []protocol.Item) *lifecycle.Pending {
	return &lifecycle.Pending{
		ID: id,
		Req: &protocol.SelectionRequest{
			Type:  protocol.TypeSelectionRequest,
			Title: "Which one?",
			Items: items,
			Page:  1,
		},
	}
}

func flatItems() []protocol.Item {
	return []protocol.Item{
		{Text: "Adagio", Kind: protocol.KindSimple},
		{Text: "Symphony No.5", Kind: protocol.KindSimple},
		{Text: "Boléro", Kind: protocol.KindSimple},
	}
}

func albumItems() []protocol.Item {
	return []protocol.Item{
		{
			Text: "Holst: The Planets",
			Kind: protocol.KindAlbum,
			Children: []protocol.Child{
				{Text: "Mars", Kind: protocol.KindTrack},
				{Text: "Venus", Kind: protocol.KindTrack},
			},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestIdleUntilRequestArrives(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	assert.False(t, m.Displaying())
	assert.Contains(t, m.View(), "Waiting for the assistant")

	m = update(t, m, RequestMsg{Pending: pendingReq(1, flatItems())})
	assert.True(t, m.Displaying())
	assert.Equal(t, []uint64{1}, coord.displayed)

	view := m.View()
	assert.Contains(t, view, "Which one?")
	assert.Contains(t, view, "1. Adagio")
	assert.Contains(t, view, "3. Boléro")
}

func TestStaleRequestIgnored(t *testing.T) {
	coord := &fakeCoord{displayable: false}
	m := NewModel(coord)

	m = update(t, m, RequestMsg{Pending: pendingReq(1, flatItems())})
	assert.False(t, m.Displaying())
	assert.Empty(t, coord.displayed)
}

func TestEnterSelectsHighlighted(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(7, flatItems())},
		keyMsg("down"),
		keyMsg("enter"),
	)

	require.NotNil(t, coord.resolved)
	assert.Equal(t, uint64(7), coord.resolvedID)
	assert.Equal(t, 1, coord.resolved.Index)
	assert.Equal(t, -1, coord.resolved.ChildIndex)
	assert.False(t, coord.resolved.Cancelled)
	assert.False(t, m.Displaying(), "model returns to idle after resolving")
}

func TestDigitSelectsDirectly(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	update(t, m,
		RequestMsg{Pending: pendingReq(2, flatItems())},
		keyMsg("3"),
	)

	require.NotNil(t, coord.resolved)
	assert.Equal(t, 2, coord.resolved.Index)
}

func TestChildSelection(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(3, albumItems())},
		keyMsg("enter"), // expand the album
	)
	view := m.View()
	assert.Contains(t, view, "Holst: The Planets")
	assert.Contains(t, view, "1. Mars")
	assert.Contains(t, view, "2. Venus")

	m = update(t, m,
		keyMsg("down"),
		keyMsg("enter"), // choose Venus
	)

	require.NotNil(t, coord.resolved)
	assert.Equal(t, 0, coord.resolved.Index)
	assert.Equal(t, 1, coord.resolved.ChildIndex)
	assert.False(t, m.Displaying())
}

func TestBackFromChildrenKeepsRequest(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(3, albumItems())},
		keyMsg("enter"),
		keyMsg("left"),
	)

	assert.Nil(t, coord.resolved, "backing out of a track list is not a cancel")
	assert.True(t, m.Displaying())
	assert.Contains(t, m.View(), "Which one?")
}

func TestEscCancelsExplicitly(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(4, flatItems())},
		keyMsg("esc"),
	)

	require.NotNil(t, coord.resolved)
	assert.True(t, coord.resolved.Cancelled)
	assert.True(t, coord.resolved.ExplicitCancel)
	assert.Equal(t, -1, coord.resolved.Index)
	assert.False(t, m.Displaying())
}

func TestNewRequestReplacesDisplayed(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(1, flatItems())},
		RequestMsg{Pending: pendingReq(2, albumItems())},
	)

	assert.Equal(t, []uint64{1, 2}, coord.displayed)
	assert.Contains(t, m.View(), "Holst: The Planets")
}

func TestQuitResolvesDisplayedRequest(t *testing.T) {
	coord := &fakeCoord{displayable: true}
	m := NewModel(coord)

	m = update(t, m,
		RequestMsg{Pending: pendingReq(9, flatItems())},
		keyMsg("ctrl+c"),
	)

	require.NotNil(t, coord.resolved)
	assert.True(t, coord.resolved.ExplicitCancel)
}

func TestMiddleTruncate(t *testing.T) {
	assert.Equal(t, "short", MiddleTruncate("short", 10))
	got := MiddleTruncate("a very long item title indeed", 12)
	assert.LessOrEqual(t, len([]rune(got)), 13)
	assert.Contains(t, got, "…")
	assert.Equal(t, "", MiddleTruncate("anything", 0))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "plain", StripANSI("\x1b[31mplain\x1b[0m"))
}
