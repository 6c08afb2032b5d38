package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ava/internal/config"
	"github.com/runger/ava/internal/mode"
	"github.com/runger/ava/internal/protocol"
	"github.com/runger/ava/internal/storage"
)

type fakeSpeaker struct {
	spoken []string
}

func (s *fakeSpeaker) Speak(text string) error {
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *fakeSpeaker) last() string {
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}

type fakeSearcher struct {
	title string
	items []protocol.Item
	err   error

	queries []string
}

func (f *fakeSearcher) Search(query string) (string, []protocol.Item, error) {
	f.queries = append(f.queries, query)
	return f.title, f.items, f.err
}

type fakeClient struct {
	reachable bool
	resp      *protocol.SelectionResponse
	err       error

	sent []*protocol.SelectionRequest
}

func (c *fakeClient) IsReachable() bool { return c.reachable }

func (c *fakeClient) Send(req *protocol.SelectionRequest, timeout time.Duration) (*protocol.SelectionResponse, error) {
	c.sent = append(c.sent, req)
	return c.resp, c.err
}

func items(texts ...string) []protocol.Item {
	out := make([]protocol.Item, len(texts))
	for i, t := range texts {
		out[i] = protocol.Item{Text: t, Kind: protocol.KindSimple}
	}
	return out
}

func newTestAssistant(searcher *fakeSearcher, client *fakeClient) (*Assistant, *fakeSpeaker) {
	sp := &fakeSpeaker{}
	a := New(Options{
		Config:   config.Default(),
		Searcher: searcher,
		Speaker:  sp,
		Client:   client,
	})
	return a, sp
}

func TestIgnoresUtterancesWithoutWakePhrase(t *testing.T) {
	searcher := &fakeSearcher{}
	a, sp := newTestAssistant(searcher, &fakeClient{})

	a.HandleUtterance("play some jazz")

	assert.Equal(t, mode.Listening, a.Mode())
	assert.Empty(t, sp.spoken)
	assert.Empty(t, searcher.queries)
}

func TestBareWakePhraseOpensCommandWindow(t *testing.T) {
	a, sp := newTestAssistant(&fakeSearcher{}, &fakeClient{})

	a.HandleUtterance("hey ava")

	assert.Equal(t, mode.CommandWindow, a.Mode())
	assert.Equal(t, "Yes?", sp.last())
}

func TestInlineCommandAfterWakePhrase(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	a, sp := newTestAssistant(searcher, &fakeClient{})

	a.HandleUtterance("Hey Ava, play boléro")

	require.Equal(t, []string{"play boléro"}, searcher.queries)
	assert.Equal(t, "Playing Boléro.", sp.last())
	assert.Equal(t, mode.CommandWindow, a.Mode())
}

func TestCommandWindowAcceptsBareCommands(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	a, _ := newTestAssistant(searcher, &fakeClient{})

	a.HandleUtterance("hey ava")
	a.HandleUtterance("play boléro")

	assert.Equal(t, []string{"play boléro"}, searcher.queries)
}

func TestNoResultsIsSpoken(t *testing.T) {
	searcher := &fakeSearcher{title: "Results."}
	a, sp := newTestAssistant(searcher, &fakeClient{})

	a.HandleUtterance("hey ava play nothingness")

	assert.Equal(t, "I couldn't find anything for play nothingness.", sp.last())
}

func TestSingleResultAutoSelects(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("Adagio for Strings")}
	a, sp := newTestAssistant(searcher, &fakeClient{})

	a.HandleUtterance("hey ava play adagio")

	assert.Equal(t, "Playing Adagio for Strings.", sp.last())
}

func TestMultipleResultsGoToPickerWhenReachable(t *testing.T) {
	client := &fakeClient{
		reachable: true,
		resp: &protocol.SelectionResponse{
			Type:  protocol.TypeSelectionResponse,
			Index: 1,
		},
	}
	searcher := &fakeSearcher{title: "I found 2 results.", items: items("Boléro", "La Valse")}
	a, sp := newTestAssistant(searcher, client)

	a.HandleUtterance("hey ava play ravel")

	// The round trip runs on a worker goroutine.
	select {
	case o := <-a.outcomes:
		a.finishPickerOutcome(o)
	case <-time.After(2 * time.Second):
		t.Fatal("no picker outcome")
	}

	require.Len(t, client.sent, 1)
	assert.Equal(t, "I found 2 results.", client.sent[0].Title)
	assert.Equal(t, "Playing La Valse.", sp.last())
	assert.NotEqual(t, mode.AwaitingSelection, a.Mode())
}

func TestSupersededPickerOutcomeIsSilent(t *testing.T) {
	client := &fakeClient{
		reachable: true,
		resp:      protocol.CancelledResponse(),
	}
	searcher := &fakeSearcher{title: "Results.", items: items("A", "B")}
	a, sp := newTestAssistant(searcher, client)

	a.HandleUtterance("hey ava play something")
	select {
	case o := <-a.outcomes:
		before := len(sp.spoken)
		a.finishPickerOutcome(o)
		assert.Len(t, sp.spoken, before)
	case <-time.After(2 * time.Second):
		t.Fatal("no picker outcome")
	}
}

func TestFallsBackToVoiceWhenUnreachable(t *testing.T) {
	searcher := &fakeSearcher{title: "I found 2 results.", items: items("Boléro", "La Valse")}
	a, sp := newTestAssistant(searcher, &fakeClient{reachable: false})

	a.HandleUtterance("hey ava play ravel")

	require.Equal(t, mode.AwaitingSelection, a.Mode())
	assert.Contains(t, sp.last(), "1: Boléro.")

	a.HandleUtterance("two")

	assert.Equal(t, mode.Listening, a.Mode())
	assert.Equal(t, "Playing La Valse.", sp.last())
}

func TestWakePhraseAbandonsVoiceSession(t *testing.T) {
	searcher := &fakeSearcher{title: "I found 2 results.", items: items("Boléro", "La Valse")}
	a, sp := newTestAssistant(searcher, &fakeClient{reachable: false})

	a.HandleUtterance("hey ava play ravel")
	require.Equal(t, mode.AwaitingSelection, a.Mode())

	// A fresh wake phrase drops the dialogue and runs the new command.
	searcher.items = items("The Planets")
	a.HandleUtterance("hey ava play the planets")

	assert.Equal(t, []string{"play ravel", "play the planets"}, searcher.queries)
	assert.Equal(t, "Playing The Planets.", sp.last())
	assert.Equal(t, mode.CommandWindow, a.Mode())
	assert.NotContains(t, sp.spoken, "Say a number, 'next', or 'cancel'.")
}

func TestBareWakePhraseAbandonsVoiceSessionSilently(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("A", "B")}
	a, sp := newTestAssistant(searcher, &fakeClient{reachable: false})

	a.HandleUtterance("hey ava play something")
	require.Equal(t, mode.AwaitingSelection, a.Mode())

	a.HandleUtterance("hey ava")

	assert.Equal(t, mode.CommandWindow, a.Mode())
	assert.Equal(t, "Yes?", sp.last())
	assert.NotContains(t, sp.spoken, "Cancelled.")
}

func TestExpiredCommandWindowIgnoresBareCommands(t *testing.T) {
	current := time.Unix(1000, 0)
	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	sp := &fakeSpeaker{}
	a := New(Options{
		Config:   config.Default(),
		Searcher: searcher,
		Speaker:  sp,
		Client:   &fakeClient{},
		Clock:    func() time.Time { return current },
	})

	a.HandleUtterance("hey ava")
	require.Equal(t, mode.CommandWindow, a.Mode())

	// Past the window, a bare command must not reach the searcher.
	current = current.Add(21 * time.Second)
	a.HandleUtterance("play boléro")

	assert.Equal(t, mode.Listening, a.Mode())
	assert.Empty(t, searcher.queries)

	// A wake-phrase utterance still works after the expiry.
	a.HandleUtterance("hey ava play boléro")
	assert.Equal(t, []string{"play boléro"}, searcher.queries)
	assert.Equal(t, "Playing Boléro.", sp.last())
}

func TestCommandWindowSurvivesWithinTimeout(t *testing.T) {
	current := time.Unix(1000, 0)
	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	a := New(Options{
		Config:   config.Default(),
		Searcher: searcher,
		Speaker:  &fakeSpeaker{},
		Client:   &fakeClient{},
		Clock:    func() time.Time { return current },
	})

	a.HandleUtterance("hey ava")
	current = current.Add(19 * time.Second)
	a.HandleUtterance("play boléro")

	assert.Equal(t, []string{"play boléro"}, searcher.queries)
}

func TestVoiceCancelIsConfirmed(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("A", "B")}
	a, sp := newTestAssistant(searcher, &fakeClient{reachable: false})

	a.HandleUtterance("hey ava play something")
	require.Equal(t, mode.AwaitingSelection, a.Mode())

	a.HandleUtterance("cancel")

	assert.Equal(t, mode.Listening, a.Mode())
	assert.Equal(t, "Cancelled.", sp.last())
}

func TestSendFailureFallsBackToVoice(t *testing.T) {
	client := &fakeClient{reachable: true, err: context.DeadlineExceeded}
	searcher := &fakeSearcher{title: "Results.", items: items("A", "B")}
	a, _ := newTestAssistant(searcher, client)

	a.HandleUtterance("hey ava play something")
	select {
	case o := <-a.outcomes:
		a.finishPickerOutcome(o)
	case <-time.After(2 * time.Second):
		t.Fatal("no picker outcome")
	}

	assert.Equal(t, mode.AwaitingSelection, a.Mode())
}

func TestSelectionsAreRecorded(t *testing.T) {
	store, err := storage.Open(t.TempDir() + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	sp := &fakeSpeaker{}
	a := New(Options{
		Config:   config.Default(),
		Searcher: searcher,
		Speaker:  sp,
		Client:   &fakeClient{},
		Store:    store,
	})

	a.HandleUtterance("hey ava play boléro")

	recs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Boléro", recs[0].ItemText)
	assert.Equal(t, a.SessionID(), recs[0].SessionID)
}

func TestRunConsumesInput(t *testing.T) {
	searcher := &fakeSearcher{title: "Results.", items: items("Boléro")}
	a, sp := newTestAssistant(searcher, &fakeClient{})

	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background(), strings.NewReader("hey ava play boléro\n"))
	}()

	require.NoError(t, <-done)
	assert.Equal(t, "Playing Boléro.", sp.last())
}

func TestStripWakePhrase(t *testing.T) {
	cases := []struct {
		in   string
		rest string
		ok   bool
	}{
		{"hey ava", "", true},
		{"Hey Ava", "", true},
		{"hey ava play boléro", "play boléro", true},
		{"hey ava, play boléro", "play boléro", true},
		{"play boléro", "", false},
		{"hey avanti", "", false},
	}
	for _, tc := range cases {
		rest, ok := stripWakePhrase(tc.in, "hey ava")
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.rest, rest, tc.in)
	}
}
