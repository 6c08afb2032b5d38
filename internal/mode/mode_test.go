package mode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStateIsListening(t *testing.T) {
	m := New(20 * time.Second)
	assert.Equal(t, Listening, m.Mode())
	assert.True(t, m.WindowStartedAt().IsZero())
}

func TestSetRejectsUnknownTarget(t *testing.T) {
	m := New(20 * time.Second)
	assert.Error(t, m.Set(Mode(42)))
	assert.Error(t, m.Set(Mode(-1)))
	assert.Equal(t, Listening, m.Mode())
}

func TestOnlyCommandWindowCarriesTimestamp(t *testing.T) {
	m := New(20 * time.Second)

	require.NoError(t, m.Set(CommandWindow))
	assert.False(t, m.WindowStartedAt().IsZero())

	require.NoError(t, m.Set(AwaitingSelection))
	assert.True(t, m.WindowStartedAt().IsZero())

	require.NoError(t, m.Set(CommandWindow))
	require.NoError(t, m.Set(Listening))
	assert.True(t, m.WindowStartedAt().IsZero())
}

func TestRefreshRestampsWindow(t *testing.T) {
	clock := time.Unix(1000, 0)
	m := New(20 * time.Second)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(CommandWindow))
	first := m.WindowStartedAt()

	clock = clock.Add(10 * time.Second)
	m.Refresh()
	assert.True(t, m.WindowStartedAt().After(first))

	// Refresh in other states is a no-op.
	require.NoError(t, m.Set(Listening))
	m.Refresh()
	assert.True(t, m.WindowStartedAt().IsZero())
}

func TestExpiryForcesListening(t *testing.T) {
	clock := time.Unix(1000, 0)
	m := NewWithClock(20*time.Second, func() time.Time { return clock })

	require.NoError(t, m.Set(CommandWindow))

	// Within the window: no expiry.
	clock = clock.Add(19 * time.Second)
	assert.False(t, m.ExpireIfStale())
	assert.Equal(t, CommandWindow, m.Mode())

	// Across the boundary: expired, back to Listening.
	clock = clock.Add(2 * time.Second)
	assert.True(t, m.ExpireIfStale())
	assert.Equal(t, Listening, m.Mode())
	assert.True(t, m.WindowStartedAt().IsZero())

	// Already Listening: nothing to expire.
	assert.False(t, m.ExpireIfStale())
}

func TestRefreshKeepsWindowAlive(t *testing.T) {
	clock := time.Unix(1000, 0)
	m := New(20 * time.Second)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(CommandWindow))
	for range 5 {
		clock = clock.Add(15 * time.Second)
		assert.False(t, m.ExpireIfStale())
		m.Refresh()
	}
	assert.Equal(t, CommandWindow, m.Mode())
}

func TestNewWithClockNilUsesWallClock(t *testing.T) {
	m := NewWithClock(20*time.Second, nil)
	require.NoError(t, m.Set(CommandWindow))
	assert.False(t, m.WindowStartedAt().IsZero())
}

func TestStringNames(t *testing.T) {
	assert.Equal(t, "listening", Listening.String())
	assert.Equal(t, "command_window", CommandWindow.String())
	assert.Equal(t, "awaiting_selection", AwaitingSelection.String())
}
