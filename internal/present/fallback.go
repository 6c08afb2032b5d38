package present

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runger/ava/internal/mode"
	"github.com/runger/ava/internal/protocol"
)

// VoiceSession is the voice/console fallback for one ambiguous result
// set: a flattened, paginated list resolved by follow-up utterances. It
// is driven by the assistant's single control goroutine.
type VoiceSession struct {
	title    string
	items    []protocol.Item
	pageSize int
	page     int // 0-based
	speaker  Speaker
	modes    *mode.Machine
}

// StartVoiceSession flattens the result list, enters AwaitingSelection
// and speaks the first page. It must run on the goroutine that owns the
// mode machine.
func (p *Presenter) StartVoiceSession(title string, items []protocol.Item) *VoiceSession {
	s := &VoiceSession{
		title:    title,
		items:    items,
		pageSize: p.pageSize,
		speaker:  p.speaker,
		modes:    p.modes,
	}
	if s.modes != nil {
		s.modes.Set(mode.AwaitingSelection)
	}
	s.speaker.Speak(s.pageText())
	return s
}

// Page returns the current 0-based page index.
func (s *VoiceSession) Page() int {
	return s.page
}

// HandleUtterance consumes one follow-up utterance. done=false means the
// session is still open (it spoke a new page or a re-prompt); done=true
// carries the terminal Selection, and the mode machine is back in
// Listening.
func (s *VoiceSession) HandleUtterance(text string) (sel *Selection, done bool) {
	choice := parseChoice(text)
	switch choice.kind {
	case choiceNext:
		if s.lastPage() {
			s.speaker.Speak("No more items.")
			return nil, false
		}
		s.page++
		s.speaker.Speak(s.pageText())
		return nil, false

	case choiceCancel:
		s.finish()
		return &Selection{Index: -1, ChildIndex: -1, Cancelled: true, ExplicitCancel: true}, true

	case choiceNumber:
		// Numbering is global across pages, matching the running totals
		// that were spoken.
		if choice.n < 1 || choice.n > len(s.items) {
			s.speaker.Speak(fmt.Sprintf("There is no item %d. Say a number between 1 and %d.", choice.n, len(s.items)))
			return nil, false
		}
		s.finish()
		idx := choice.n - 1
		return &Selection{
			Index:      idx,
			ChildIndex: -1,
			Item:       &s.items[idx],
		}, true

	default:
		s.speaker.Speak("Say a number, 'next', or 'cancel'.")
		return nil, false
	}
}

// Abandon closes the session without a selection and without feedback.
// A new wake phrase replaces the dialogue; whatever the replacement says
// is the user-visible response.
func (s *VoiceSession) Abandon() {
	s.finish()
}

func (s *VoiceSession) finish() {
	if s.modes != nil {
		s.modes.Set(mode.Listening)
	}
}

func (s *VoiceSession) lastPage() bool {
	return (s.page+1)*s.pageSize >= len(s.items)
}

// pageText renders the current page with global numbering, a running
// total, and a trailer hint when more pages follow.
func (s *VoiceSession) pageText() string {
	start := s.page * s.pageSize
	end := start + s.pageSize
	if end > len(s.items) {
		end = len(s.items)
	}

	var b strings.Builder
	if s.page == 0 && s.title != "" {
		b.WriteString(s.title)
		b.WriteString(" ")
	}
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%d: %s. ", i+1, s.items[i].Text)
	}
	fmt.Fprintf(&b, "Showing %d to %d of %d.", start+1, end, len(s.items))
	if !s.lastPage() {
		b.WriteString(" Say 'next' for more.")
	}
	return b.String()
}

// --- utterance parsing ---

type choiceKind int

const (
	choiceUnknown choiceKind = iota
	choiceNext
	choiceCancel
	choiceNumber
)

type choice struct {
	kind choiceKind
	n    int
}

// numberWords maps spoken cardinals and ordinals to item numbers. Speech
// engines emit either form.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// parseChoice classifies a follow-up utterance.
func parseChoice(text string) choice {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return choice{kind: choiceUnknown}
	}

	switch strings.Join(fields, " ") {
	case "next", "more", "next page":
		return choice{kind: choiceNext}
	case "cancel", "stop", "never mind", "nevermind":
		return choice{kind: choiceCancel}
	}

	// Accept "three", "number three", "the third".
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			return choice{kind: choiceNumber, n: n}
		}
		if n, ok := numberWords[f]; ok {
			return choice{kind: choiceNumber, n: n}
		}
	}
	return choice{kind: choiceUnknown}
}
