package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"x-platformer/backend/internal/character"
)

var _ character.Observer = (*Manager)(nil)

func TestManager_RecordsAndCaps(t *testing.T) {
	tm := NewManager(zap.NewNop().Sugar())
	tm.maxEntries = 3

	tm.StateChanged(1, character.Idle, character.Jumping)
	tm.StateChanged(1, character.Jumping, character.Falling)
	tm.Respawned(1, 2, false)
	tm.Respawned(1, 3, true)

	entries := tm.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, character.Falling, entries[0].To, "oldest entry dropped")
	assert.Equal(t, KindRespawn, entries[2].Kind)
	assert.True(t, entries[2].Reset)

	counters := tm.Counters()
	assert.Equal(t, 1, counters["state_jumping"])
	assert.Equal(t, 1, counters["respawn"])
	assert.Equal(t, 1, counters["respawn_reset"])
}

func TestManager_Disabled(t *testing.T) {
	tm := NewManager(zap.NewNop().Sugar())
	tm.SetEnabled(false)
	tm.StateChanged(1, character.Idle, character.Running)
	assert.Empty(t, tm.Entries())
}

func TestManager_PrintSummaryRespectsInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tm := NewManager(zap.New(core).Sugar())

	clock := time.Unix(1000, 0)
	tm.now = func() time.Time { return clock }
	tm.lastPrint = clock

	tm.StateChanged(7, character.Idle, character.Running)
	tm.PrintSummary()
	assert.Zero(t, logs.Len(), "interval not elapsed")

	clock = clock.Add(11 * time.Second)
	tm.PrintSummary()
	assert.NotZero(t, logs.Len())
	assert.NotEmpty(t, logs.FilterMessageSnippet("Игрок 7").All())
	assert.Empty(t, tm.Counters(), "counters reset after summary")
}

func TestManager_JSONAndClear(t *testing.T) {
	tm := NewManager(zap.NewNop().Sugar())
	tm.StateChanged(2, character.Idle, character.DoubleJump)

	raw, err := tm.JSON()
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "double_jump", decoded[0]["to"])

	tm.Clear()
	assert.Empty(t, tm.Entries())
}
