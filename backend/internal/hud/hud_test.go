package hud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanel_IdempotentUpdates(t *testing.T) {
	p := NewPanel()

	_, changed := p.TakeChanged()
	assert.False(t, changed, "nothing reported yet")

	p.Update(Stats{Coins: 1, Lives: 3})
	stats, changed := p.TakeChanged()
	assert.True(t, changed)
	assert.Equal(t, Stats{Coins: 1, Lives: 3}, stats)

	for i := 0; i < 3; i++ {
		p.Update(Stats{Coins: 1, Lives: 3})
	}
	_, changed = p.TakeChanged()
	assert.False(t, changed, "same values do not count as a change")

	p.Update(Stats{Coins: 2, Lives: 3})
	assert.Equal(t, Stats{Coins: 2, Lives: 3}, p.Latest())
	_, changed = p.TakeChanged()
	assert.True(t, changed)
}

func TestPanel_FirstZeroUpdateCounts(t *testing.T) {
	p := NewPanel()
	p.Update(Stats{})
	_, changed := p.TakeChanged()
	assert.True(t, changed)
}

func TestSinkFunc(t *testing.T) {
	var got Stats
	var sink Sink = SinkFunc(func(s Stats) { got = s })
	sink.Update(Stats{Stars: 4})
	assert.Equal(t, 4, got.Stars)
}
