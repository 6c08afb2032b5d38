package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ava/internal/protocol"
)

func TestCatalogStripsCommandVerbs(t *testing.T) {
	c := newCatalogSearcher()

	_, direct, err := c.Search("bolero")
	require.NoError(t, err)
	_, withVerb, err := c.Search("play bolero")
	require.NoError(t, err)

	assert.Equal(t, direct, withVerb)
	require.NotEmpty(t, direct)
	assert.Equal(t, "Boléro", direct[0].Text)
}

func TestCatalogAmbiguousQueryReturnsSeveral(t *testing.T) {
	c := newCatalogSearcher()

	title, items, err := c.Search("play ravel")
	require.NoError(t, err)

	require.Greater(t, len(items), 1)
	assert.Contains(t, title, "results")
	for _, it := range items {
		assert.NoError(t, it.Validate())
	}
}

func TestCatalogContainersCarryChildren(t *testing.T) {
	c := newCatalogSearcher()

	_, items, err := c.Search("the planets")
	require.NoError(t, err)
	require.NotEmpty(t, items)

	album := items[0]
	assert.Equal(t, protocol.KindAlbum, album.Kind)
	require.NotEmpty(t, album.Children)
	for _, ch := range album.Children {
		assert.Equal(t, protocol.KindTrack, ch.Kind)
		assert.NotEmpty(t, ch.Key)
	}
}

func TestCatalogNoMatches(t *testing.T) {
	c := newCatalogSearcher()

	title, items, err := c.Search("play polka dots")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, title)
}

func TestCatalogEmptyQuery(t *testing.T) {
	c := newCatalogSearcher()

	_, items, err := c.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConsoleSpeakerWritesPrefixedLine(t *testing.T) {
	var buf bytes.Buffer
	s := &consoleSpeaker{out: &buf}

	require.NoError(t, s.Speak("Yes?"))
	assert.Contains(t, buf.String(), "ava:")
	assert.Contains(t, buf.String(), "Yes?")
}
