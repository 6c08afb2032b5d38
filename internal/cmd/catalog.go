package cmd

import (
	"fmt"
	"strings"

	"github.com/runger/ava/internal/protocol"
)

// catalogSearcher is the built-in demo library. A real deployment wires
// a music service behind the same interface; the selection protocol does
// not care where results come from.
type catalogSearcher struct {
	entries []catalogEntry
}

type catalogEntry struct {
	item     protocol.Item
	keywords []string
}

// leading verbs stripped from spoken commands before matching.
var commandVerbs = []string{"play ", "put on ", "listen to ", "find ", "search for ", "queue "}

func newCatalogSearcher() *catalogSearcher {
	return &catalogSearcher{entries: []catalogEntry{
		{
			item: protocol.Item{
				Text: "Boléro", Kind: protocol.KindSimple,
			},
			keywords: []string{"bolero", "ravel"},
		},
		{
			item: protocol.Item{
				Text: "La Valse", Kind: protocol.KindSimple,
			},
			keywords: []string{"la valse", "valse", "ravel"},
		},
		{
			item: protocol.Item{
				Text: "The Planets", Kind: protocol.KindAlbum,
				Children: []protocol.Child{
					{Text: "Mars, the Bringer of War", Kind: protocol.KindTrack, Key: "planets-1"},
					{Text: "Venus, the Bringer of Peace", Kind: protocol.KindTrack, Key: "planets-2"},
					{Text: "Mercury, the Winged Messenger", Kind: protocol.KindTrack, Key: "planets-3"},
					{Text: "Jupiter, the Bringer of Jollity", Kind: protocol.KindTrack, Key: "planets-4"},
				},
			},
			keywords: []string{"planets", "holst", "mars", "jupiter"},
		},
		{
			item: protocol.Item{
				Text: "Symphony No. 5", Kind: protocol.KindAlbum,
				Children: []protocol.Child{
					{Text: "I. Allegro con brio", Kind: protocol.KindTrack, Key: "lvb5-1"},
					{Text: "II. Andante con moto", Kind: protocol.KindTrack, Key: "lvb5-2"},
					{Text: "III. Scherzo. Allegro", Kind: protocol.KindTrack, Key: "lvb5-3"},
					{Text: "IV. Allegro", Kind: protocol.KindTrack, Key: "lvb5-4"},
				},
			},
			keywords: []string{"symphony", "fifth", "beethoven"},
		},
		{
			item: protocol.Item{
				Text: "Adagio for Strings", Kind: protocol.KindSimple,
			},
			keywords: []string{"adagio", "barber", "strings"},
		},
		{
			item: protocol.Item{
				Text: "Quiet Evening", Kind: protocol.KindPlaylist,
				Children: []protocol.Child{
					{Text: "Clair de Lune", Kind: protocol.KindTrack, Key: "qe-1"},
					{Text: "Gymnopédie No. 1", Kind: protocol.KindTrack, Key: "qe-2"},
					{Text: "Spiegel im Spiegel", Kind: protocol.KindTrack, Key: "qe-3"},
				},
			},
			keywords: []string{"quiet", "evening", "calm", "relax"},
		},
		{
			item: protocol.Item{
				Text: "Ravel Mix", Kind: protocol.KindArtistMix,
				Children: []protocol.Child{
					{Text: "Pavane pour une infante défunte", Kind: protocol.KindTrack, Key: "rm-1"},
					{Text: "Daphnis et Chloé, Suite No. 2", Kind: protocol.KindTrack, Key: "rm-2"},
				},
			},
			keywords: []string{"ravel", "mix"},
		},
		{
			item: protocol.Item{
				Text: "Kitchen speaker", Kind: protocol.KindPlayer,
			},
			keywords: []string{"kitchen", "speaker"},
		},
		{
			item: protocol.Item{
				Text: "Living room speaker", Kind: protocol.KindPlayer,
			},
			keywords: []string{"living room", "speaker"},
		},
	}}
}

// Search matches the query against texts and keywords, case-insensitive.
func (c *catalogSearcher) Search(query string) (string, []protocol.Item, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, v := range commandVerbs {
		if strings.HasPrefix(q, v) {
			q = strings.TrimSpace(strings.TrimPrefix(q, v))
			break
		}
	}
	if q == "" {
		return "", nil, nil
	}

	var items []protocol.Item
	for _, e := range c.entries {
		if e.matches(q) {
			items = append(items, e.item)
		}
	}

	title := ""
	if len(items) > 1 {
		title = fmt.Sprintf("I found %d results.", len(items))
	}
	return title, items, nil
}

func (e *catalogEntry) matches(q string) bool {
	if strings.Contains(strings.ToLower(e.item.Text), q) {
		return true
	}
	for _, kw := range e.keywords {
		if strings.Contains(kw, q) || strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
