// Package present decides how an ambiguous result set is resolved: over
// IPC to the picker process when one is reachable, or by a paginated
// voice dialogue inside the assistant otherwise.
package present

import (
	"log/slog"
	"time"

	"github.com/runger/ava/internal/mode"
	"github.com/runger/ava/internal/protocol"
)

// Spoken feedback for the two user-visible failure outcomes. A
// superseded request is deliberately silent.
const (
	msgTimedOut  = "Selection timed out. Please say the command again."
	msgCancelled = "Selection cancelled."
)

// Speaker voices text to the user. The speech engine behind it is an
// external collaborator.
type Speaker interface {
	Speak(text string) error
}

// Client is the selection-protocol client surface the presenter needs.
type Client interface {
	IsReachable() bool
	Send(req *protocol.SelectionRequest, timeout time.Duration) (*protocol.SelectionResponse, error)
}

// Selection is the terminal outcome of one ambiguous result set.
type Selection struct {
	// Index into the request's items; -1 if nothing was chosen.
	Index int
	// ChildIndex into the chosen item's children; -1 when the parent
	// itself was chosen.
	ChildIndex int

	Cancelled      bool
	ExplicitCancel bool
	TimedOut       bool

	// Item and Child are resolved against the request for convenience;
	// nil when nothing was chosen.
	Item  *protocol.Item
	Child *protocol.Child
}

// Presenter routes ambiguous result sets to the picker or the voice
// fallback.
type Presenter struct {
	client      Client
	speaker     Speaker
	modes       *mode.Machine
	pageSize    int
	sendTimeout time.Duration
	logger      *slog.Logger
}

// New creates a Presenter. pageSize <= 0 selects 5; sendTimeout <= 0
// selects the client default at send time. A nil logger discards output.
func New(client Client, speaker Speaker, modes *mode.Machine, pageSize int, sendTimeout time.Duration, logger *slog.Logger) *Presenter {
	if pageSize <= 0 {
		pageSize = 5
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Presenter{
		client:      client,
		speaker:     speaker,
		modes:       modes,
		pageSize:    pageSize,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Resolve handles one ambiguous result set.
//
// If a picker is reachable the request goes over IPC with children
// pre-resolved, the assistant never enters AwaitingSelection, and the
// returned Selection is terminal. Otherwise a VoiceSession is returned,
// the mode machine moves to AwaitingSelection, and the caller must feed
// follow-up utterances to the session until it resolves.
func (p *Presenter) Resolve(title string, items []protocol.Item) (*Selection, *VoiceSession) {
	if p.client.IsReachable() {
		if sel := p.ResolveViaPicker(title, items); sel != nil {
			return sel, nil
		}
		// Reachable a moment ago but the send failed: treat as IPC
		// unavailable and fall back.
	}
	return nil, p.StartVoiceSession(title, items)
}

// ResolveViaPicker sends the request and applies the response. It blocks
// until the picker answers or the send timeout fires, so callers that
// must stay responsive run it on its own goroutine. A nil return means
// the IPC path failed and the caller should fall back.
func (p *Presenter) ResolveViaPicker(title string, items []protocol.Item) *Selection {
	req := &protocol.SelectionRequest{
		Type:  protocol.TypeSelectionRequest,
		Title: title,
		Items: items,
		Page:  1,
	}

	resp, err := p.client.Send(req, p.sendTimeout)
	if err != nil {
		p.logger.Info("picker unavailable, falling back", "error", err)
		return nil
	}

	sel := p.applyResponse(items, resp)
	switch {
	case sel.TimedOut:
		p.speaker.Speak(msgTimedOut)
	case sel.ExplicitCancel:
		p.speaker.Speak(msgCancelled)
	case sel.Cancelled:
		// Superseded by a newer request: silent. The newer request's own
		// outcome is the user-visible one.
	}
	return sel
}

// applyResponse maps a wire response onto the request's items.
func (p *Presenter) applyResponse(items []protocol.Item, resp *protocol.SelectionResponse) *Selection {
	sel := &Selection{
		Index:          -1,
		ChildIndex:     -1,
		Cancelled:      resp.Cancelled,
		ExplicitCancel: resp.ExplicitCancel,
		TimedOut:       resp.TimedOut,
	}
	if resp.Cancelled || resp.Index < 0 || resp.Index >= len(items) {
		return sel
	}

	sel.Index = resp.Index
	sel.Item = &items[resp.Index]
	if resp.ChildIndex != nil {
		ci := *resp.ChildIndex
		if ci >= 0 && ci < len(sel.Item.Children) {
			sel.ChildIndex = ci
			sel.Child = &sel.Item.Children[ci]
		}
	}
	return sel
}
