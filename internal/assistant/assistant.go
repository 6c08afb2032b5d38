// Package assistant is the control loop of the assistant process: wake
// phrase gating, the command window, request dispatch to the picker, and
// the voice fallback dialogue.
package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/mode"
	"github.com/runger/ava/internal/present"
	"github.com/runger/ava/internal/protocol"
	"github.com/runger/ava/internal/storage"
)

// Searcher turns a spoken command into a result set. More than one item
// means the user has to choose.
type Searcher interface {
	Search(query string) (title string, items []protocol.Item, err error)
}

// Options configure an Assistant. Searcher, Speaker and Client are
// required; Store and Logger are optional. Clock overrides the command
// window's time source.
type Options struct {
	Config   *config.Config
	Searcher Searcher
	Speaker  present.Speaker
	Client   present.Client
	Store    *storage.Store
	Logger   *slog.Logger
	Clock    func() time.Time
}

// outcome is the result of one picker round trip, delivered back to the
// control goroutine.
type outcome struct {
	title string
	items []protocol.Item
	sel   *present.Selection // nil when the IPC path failed mid-flight
}

// Assistant owns the mode machine and any active voice session. All
// state is touched only by the control goroutine; picker round trips run
// on worker goroutines and report back through the outcomes channel.
type Assistant struct {
	cfg       *config.Config
	sessionID string
	modes     *mode.Machine
	presenter *present.Presenter
	searcher  Searcher
	speaker   present.Speaker
	client    present.Client
	store     *storage.Store
	logger    *slog.Logger

	outcomes chan outcome

	voice      *present.VoiceSession
	voiceTitle string
}

// New creates an Assistant with a fresh session id.
func New(opts Options) *Assistant {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	modes := mode.NewWithClock(cfg.CommandWindow(), opts.Clock)
	return &Assistant{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		modes:     modes,
		presenter: present.New(opts.Client, opts.Speaker, modes, cfg.Assistant.SelectionPageSize, cfg.SendTimeout(), logger),
		searcher:  opts.Searcher,
		speaker:   opts.Speaker,
		client:    opts.Client,
		store:     opts.Store,
		logger:    logger,
		outcomes:  make(chan outcome, 4),
	}
}

// SessionID returns the id stamped into logs and history rows.
func (a *Assistant) SessionID() string {
	return a.sessionID
}

// Mode returns the current assistant mode.
func (a *Assistant) Mode() mode.Mode {
	return a.modes.Mode()
}

// Run reads utterances line by line until input is exhausted or ctx is
// cancelled. The speech recognizer feeds the same text path, so a console
// works identically.
func (a *Assistant) Run(ctx context.Context, input io.Reader) error {
	a.logger.Info("assistant started", "session", a.sessionID, "wake_phrase", a.cfg.Assistant.WakePhrase)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(input)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-a.outcomes:
			a.finishPickerOutcome(o)
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			a.HandleUtterance(line)
		}
	}
}

// HandleUtterance routes one utterance according to the current mode.
// It must only be called from the control goroutine.
func (a *Assistant) HandleUtterance(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	// A picker outcome may be queued ahead of this utterance.
	a.drainOutcomes()

	if a.modes.ExpireIfStale() {
		a.logger.Debug("command window expired")
	}

	switch a.modes.Mode() {
	case mode.AwaitingSelection:
		// A fresh wake phrase abandons the open selection dialogue and is
		// re-dispatched as a new interaction.
		if rest, ok := stripWakePhrase(text, a.cfg.Assistant.WakePhrase); ok {
			a.abandonVoiceSession()
			a.modes.Set(mode.CommandWindow)
			if rest == "" {
				a.speaker.Speak("Yes?")
				return
			}
			a.runCommand(rest)
			return
		}
		a.handleSelectionUtterance(text)

	case mode.Listening:
		rest, ok := stripWakePhrase(text, a.cfg.Assistant.WakePhrase)
		if !ok {
			return
		}
		a.modes.Set(mode.CommandWindow)
		if rest == "" {
			a.speaker.Speak("Yes?")
			return
		}
		a.runCommand(rest)

	case mode.CommandWindow:
		a.modes.Refresh()
		a.runCommand(text)
	}
}

func (a *Assistant) drainOutcomes() {
	for {
		select {
		case o := <-a.outcomes:
			a.finishPickerOutcome(o)
		default:
			return
		}
	}
}

// runCommand resolves a command into zero, one, or many results.
func (a *Assistant) runCommand(query string) {
	title, items, err := a.searcher.Search(query)
	if err != nil {
		a.logger.Error("search failed", "query", query, "error", err)
		a.speaker.Speak("Something went wrong. Please try again.")
		return
	}

	switch len(items) {
	case 0:
		a.speaker.Speak("I couldn't find anything for " + query + ".")

	case 1:
		a.confirm(title, &present.Selection{Index: 0, ChildIndex: -1, Item: &items[0]})

	default:
		if a.client.IsReachable() {
			// The send can block for minutes; a newer command simply issues
			// a newer request and this one comes back as a silent cancel.
			go func() {
				sel := a.presenter.ResolveViaPicker(title, items)
				a.outcomes <- outcome{title: title, items: items, sel: sel}
			}()
			return
		}
		a.voice = a.presenter.StartVoiceSession(title, items)
		a.voiceTitle = title
	}
}

// abandonVoiceSession drops the active dialogue without feedback.
func (a *Assistant) abandonVoiceSession() {
	if a.voice != nil {
		a.voice.Abandon()
	}
	a.voice = nil
	a.voiceTitle = ""
}

// handleSelectionUtterance feeds the active voice session.
func (a *Assistant) handleSelectionUtterance(text string) {
	if a.voice == nil {
		// AwaitingSelection with no session should not happen; recover.
		a.modes.Set(mode.Listening)
		return
	}
	sel, done := a.voice.HandleUtterance(text)
	if !done {
		return
	}
	title := a.voiceTitle
	a.voice = nil
	a.voiceTitle = ""

	if sel.ExplicitCancel {
		a.speaker.Speak("Cancelled.")
		return
	}
	a.confirm(title, sel)
}

// finishPickerOutcome applies the result of a picker round trip.
func (a *Assistant) finishPickerOutcome(o outcome) {
	if o.sel == nil {
		// The picker vanished between the probe and the send. Fall back to
		// voice unless another selection dialogue started meanwhile.
		if a.modes.Mode() == mode.AwaitingSelection {
			return
		}
		a.voice = a.presenter.StartVoiceSession(o.title, o.items)
		a.voiceTitle = o.title
		return
	}

	// Timeout, explicit cancel and supersession feedback was already
	// spoken (or deliberately withheld) on the picker path.
	if o.sel.Cancelled || o.sel.TimedOut || o.sel.Item == nil {
		return
	}
	a.confirm(o.title, o.sel)
}

// confirm voices the chosen item and records it.
func (a *Assistant) confirm(title string, sel *present.Selection) {
	name := sel.Item.Text
	childText := ""
	if sel.Child != nil {
		childText = sel.Child.Text
		name = childText + " from " + sel.Item.Text
	}
	a.speaker.Speak("Playing " + name + ".")

	a.logger.Info("selection made",
		"session", a.sessionID,
		"title", title,
		"item", sel.Item.Text,
		"child", childText,
		"kind", string(sel.Item.Kind))

	if a.store == nil || !a.cfg.Assistant.HistoryEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.store.Record(ctx, storage.SelectionRecord{
		SessionID: a.sessionID,
		Title:     title,
		ItemText:  sel.Item.Text,
		ItemKind:  string(sel.Item.Kind),
		ChildText: childText,
	})
	if err != nil {
		a.logger.Warn("history write failed", "error", err)
	}
}

// stripWakePhrase reports whether text starts with the wake phrase and
// returns the remainder. "hey ava" alone opens the command window;
// "hey ava play boléro" carries the command inline.
func stripWakePhrase(text, phrase string) (rest string, ok bool) {
	lt := strings.ToLower(text)
	lp := strings.ToLower(strings.TrimSpace(phrase))
	if lp == "" {
		return text, true
	}
	if lt == lp {
		return "", true
	}
	if strings.HasPrefix(lt, lp+" ") || strings.HasPrefix(lt, lp+",") {
		return strings.TrimSpace(strings.TrimLeft(text[len(lp):], " ,")), true
	}
	return "", false
}

// Greeting is what the assistant says when it starts.
func Greeting(wakePhrase string) string {
	return fmt.Sprintf("Say %q to get my attention.", wakePhrase)
}
