// Package lifecycle serializes concurrently-arriving selection requests
// into the picker's single-threaded UI and supersedes older requests when
// a newer one arrives.
//
// Each connection goroutine calls Handle, which queues the request for
// the UI, waits (bounded) for the UI to acknowledge display, then waits
// on a shared result signal. Resolution is matched to the waiter by
// request id: a waiter that wakes and finds a result tagged with its own
// id won; one marked superseded lost and reports a silent cancellation.
package lifecycle

import (
	"log/slog"
	"sync"
	"time"

	"github.com/runger/ava/internal/protocol"
)

// DefaultDisplayWait bounds how long a handler waits for the UI to start
// rendering before giving up and reporting cancellation.
const DefaultDisplayWait = 5 * time.Second

// Result is the UI's answer to one displayed request.
type Result struct {
	Index          int
	Cancelled      bool
	ExplicitCancel bool
	// ChildIndex is -1 unless the user descended into a container item.
	ChildIndex int
}

// Response converts the result to its wire form.
func (r Result) Response() *protocol.SelectionResponse {
	resp := &protocol.SelectionResponse{
		Type:           protocol.TypeSelectionResponse,
		Index:          r.Index,
		Cancelled:      r.Cancelled,
		ExplicitCancel: r.ExplicitCancel,
	}
	if r.ChildIndex >= 0 {
		child := r.ChildIndex
		resp.ChildIndex = &child
	}
	return resp
}

// Pending is one request travelling from a connection goroutine to the
// UI. The id is its identity for its entire lifetime.
type Pending struct {
	ID  uint64
	Req *protocol.SelectionRequest

	// displayed is closed by the UI when it begins rendering this
	// request.
	displayed chan struct{}

	// superseded is guarded by the manager mutex. Set before the waiter
	// is woken, so the woken goroutine observes cancellation and never a
	// stale result.
	superseded bool
}

// Manager owns the request counter, the active-request tracking and the
// shared result signal. All cross-goroutine state lives behind one mutex.
type Manager struct {
	displayWait time.Duration
	logger      *slog.Logger

	requests chan *Pending
	done     chan struct{}

	mu       sync.Mutex
	cond     *sync.Cond
	nextID   uint64
	current  *Pending // newest unresolved request (queued or displayed)
	activeID uint64   // id the UI is currently rendering; 0 = none
	resID    uint64   // id the deposited result belongs to; 0 = none
	res      Result
	closed   bool
}

// New creates a Manager. displayWait <= 0 selects DefaultDisplayWait. A
// nil logger discards output.
func New(displayWait time.Duration, logger *slog.Logger) *Manager {
	if displayWait <= 0 {
		displayWait = DefaultDisplayWait
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		displayWait: displayWait,
		logger:      logger,
		requests:    make(chan *Pending, 8),
		done:        make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Requests returns the channel the UI consumes. Entries may be stale by
// the time the UI sees them; BeginDisplay filters those out.
func (m *Manager) Requests() <-chan *Pending {
	return m.requests
}

// Done is closed when the manager shuts down.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Handle serves one request end to end and is safe for concurrent use.
// It blocks until the request is resolved, superseded, or the display
// wait expires, and always returns a terminal response.
func (m *Manager) Handle(req *protocol.SelectionRequest) *protocol.SelectionResponse {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return protocol.CancelledResponse()
	}

	m.nextID++
	p := &Pending{
		ID:        m.nextID,
		Req:       req,
		displayed: make(chan struct{}),
	}

	// Newest wins: wake the older waiter with its cancellation already
	// recorded. If it is still queued rather than displayed it resolves
	// through its own display-wait instead.
	if old := m.current; old != nil {
		old.superseded = true
		m.cond.Broadcast()
		m.logger.Info("request superseded", "old_id", old.ID, "new_id", p.ID)
	}
	m.current = p
	m.mu.Unlock()

	// Queue for the UI. The channel is consumed by the UI event loop;
	// if the loop is wedged the display wait bounds us anyway.
	select {
	case m.requests <- p:
	case <-m.done:
		return m.abandon(p)
	case <-time.After(m.displayWait):
		m.logger.Warn("UI queue full, dropping request", "id", p.ID)
		return m.abandon(p)
	}

	// Wait for the UI to acknowledge display.
	select {
	case <-p.displayed:
	case <-m.done:
		return m.abandon(p)
	case <-time.After(m.displayWait):
		m.logger.Warn("display not acknowledged in time", "id", p.ID)
		return m.abandon(p)
	}

	// Wait for the shared result signal, then check identity.
	m.mu.Lock()
	for m.resID != p.ID && !p.superseded && !m.closed {
		m.cond.Wait()
	}

	if p.superseded || m.closed {
		m.detachLocked(p)
		m.mu.Unlock()
		return protocol.CancelledResponse()
	}

	res := m.res
	m.resID = 0
	m.detachLocked(p)
	m.mu.Unlock()
	return res.Response()
}

// abandon clears the request's claim to being current and reports a
// silent cancellation.
func (m *Manager) abandon(p *Pending) *protocol.SelectionResponse {
	m.mu.Lock()
	m.detachLocked(p)
	m.mu.Unlock()
	return protocol.CancelledResponse()
}

// detachLocked removes p from current/active tracking. Caller holds mu.
func (m *Manager) detachLocked(p *Pending) {
	if m.current == p {
		m.current = nil
	}
	if m.activeID == p.ID {
		m.activeID = 0
	}
}

// BeginDisplay is called by the UI when it dequeues a request. It reports
// whether the request is still current; a stale or superseded entry must
// not be rendered. On success the display signal is fired and the request
// becomes the active one.
func (m *Manager) BeginDisplay(p *Pending) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.current != p || p.superseded {
		return false
	}
	m.activeID = p.ID
	close(p.displayed)
	return true
}

// Resolve is called by the UI when the user acts on the displayed
// request. It reports whether a matching request was still active; a
// false return means the waiter already gave up (display timeout) or was
// superseded, and the result is dropped.
func (m *Manager) Resolve(id uint64, res Result) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID != id {
		return false
	}
	m.res = res
	m.resID = id
	m.activeID = 0
	m.cond.Broadcast()
	return true
}

// ActiveID returns the id the UI is currently rendering, 0 if none.
func (m *Manager) ActiveID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Close wakes every waiter with a cancellation and stops accepting new
// requests. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.current != nil {
		m.current.superseded = true
		m.current = nil
	}
	m.activeID = 0
	m.cond.Broadcast()
	m.mu.Unlock()
	close(m.done)
}
