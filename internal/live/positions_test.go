package live

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-signal-lab/internal/domain"
)

func TestPositionBook(t *testing.T) {
	b := NewPositionBook("seeded")
	assert.True(t, b.HasPosition("seeded"))
	assert.False(t, b.HasPosition(mint))

	assert.False(t, b.Apply(Decision{Mint: mint, Signal: domain.SignalSell}), "sell without position")
	assert.True(t, b.Apply(Decision{Mint: mint, Signal: domain.SignalBuy, BarTime: 60_000}))
	assert.False(t, b.Apply(Decision{Mint: mint, Signal: domain.SignalBuy}), "already open")
	assert.True(t, b.HasPosition(mint))
	assert.Equal(t, []string{mint, "seeded"}, b.Open())

	assert.False(t, b.Apply(Decision{Mint: mint, Signal: domain.SignalHold}))
	assert.True(t, b.Apply(Decision{Mint: mint, Signal: domain.SignalSell}))
	assert.False(t, b.HasPosition(mint))
	assert.Equal(t, []string{"seeded"}, b.Open())
}
