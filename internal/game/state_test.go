package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

func roundTrip(t *testing.T, table *SkatTable) *SkatTable {
	t.Helper()
	data, err := json.Marshal(table.GetInternalState())
	require.NoError(t, err)

	var state TableState
	require.NoError(t, json.Unmarshal(data, &state))
	restored, err := NewSkatTableFromState(&state, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return restored
}

func TestInternalStateRoundTripMidTrick(t *testing.T) {
	table := newTestTable(t, "A", "B", "C", "D")
	makeDeclarer(t, table)
	require.NoError(t, table.SetGameType("B", contract.Color, cards.Spades))
	require.NoError(t, table.PerformPlayerAction("B", ActionStartGame))
	require.NoError(t, table.PlayCard("A", table.players[Forehand].Hand[0]))

	restored := roundTrip(t, table)

	assert.Equal(t, checksum(t, table), checksum(t, restored))
	assert.Equal(t, table.GetInternalState().Players, restored.GetInternalState().Players)
	assert.Equal(t, "D", restored.InactivePlayer().Name)
	assert.Equal(t, table.Stitch(), restored.Stitch())
	assert.Equal(t, "B", restored.CurrentPlayer().Name)
	assert.Equal(t, table.Matadors(), restored.Matadors())
	assert.Equal(t, table.CurrentBidValue(), restored.CurrentBidValue())
	assert.Equal(t, table.SkatResult().ID, restored.SkatResult().ID)
	assert.Same(t, restored.GamePlayer(), restored.players[Middlehand], "references resolve to seats")

	// both tables continue identically
	playOut(t, table)
	playOut(t, restored)
	assert.Equal(t, table.GameValue(), restored.GameValue())
	assert.Equal(t, checksum(t, table), checksum(t, restored))
}

func TestInternalStateRoundTripDuringBidding(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.PerformPlayerAction("B", ActionBid))

	restored := roundTrip(t, table)
	assert.True(t, restored.BidSaid())
	assert.Equal(t, 18, restored.CurrentBidValue())
	assert.Nil(t, restored.GamePlayer())
	require.NoError(t, restored.PerformPlayerAction("A", ActionHoldBid))
}

func TestNewSkatTableFromStateRejectsBrokenStates(t *testing.T) {
	valid := func() *TableState {
		table := newTestTable(t)
		return table.GetInternalState()
	}

	tests := []struct {
		name   string
		mutate func(s *TableState)
	}{
		{"two players", func(s *TableState) { s.Players = s.Players[:2] }},
		{"card out of range", func(s *TableState) { s.Players[0].Hand[0] = 40 }},
		{"duplicate card", func(s *TableState) { s.Skat[0] = s.Players[1].Hand[0] }},
		{"missing card", func(s *TableState) { s.Skat = s.Skat[:1] }},
		{"unknown declarer", func(s *TableState) { s.GamePlayer = "Z" }},
		{"stitch without players", func(s *TableState) { s.Stitch = []int{s.Skat[0]}; s.Skat = s.Skat[1:] }},
		{"bid index beyond ladder", func(s *TableState) { s.BidValueIndex = len(s.BidValues) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			_, err := NewSkatTableFromState(s)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}

	_, err := NewSkatTableFromState(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestInternalStateIsDetached(t *testing.T) {
	table := newTestTable(t)
	makeDeclarer(t, table)
	require.NoError(t, table.SetGameType("B", contract.Color, cards.Spades))
	require.NoError(t, table.PerformPlayerAction("B", ActionStartGame))

	state := table.GetInternalState()
	require.NoError(t, table.PlayCard("A", table.players[Forehand].Hand[0]))
	assert.Empty(t, state.CurrentHistory.Played, "snapshot keeps the moment it was taken")
	assert.NotSame(t, table.CurrentHistory(), state.CurrentHistory)
	assert.NotSame(t, table.SkatResult(), state.Result)

	restored, err := NewSkatTableFromState(state, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.NotSame(t, state.CurrentHistory, restored.CurrentHistory())
	assert.NotSame(t, state.Result, restored.SkatResult())

	playOut(t, table)
	playOut(t, restored)
	assert.Equal(t, 1, table.SkatResult().Size())
	assert.Equal(t, 1, restored.SkatResult().Size())
	assert.Empty(t, state.Result.Histories)
	assert.Same(t, restored.CurrentHistory(), restored.SkatResult().Last())
}

func TestRestoreKeepsRandomness(t *testing.T) {
	table := newTestTable(t)
	state := table.GetInternalState()
	want := checksum(t, table)

	require.NoError(t, table.PerformPlayerAction("B", ActionBid))
	random := table.random
	require.NoError(t, table.Restore(state))

	assert.Equal(t, want, checksum(t, table))
	assert.False(t, table.BidSaid())
	assert.Equal(t, random, table.random)

	bad := table.GetInternalState()
	bad.Players = bad.Players[:2]
	assert.ErrorIs(t, table.Restore(bad), ErrInvalidState)
	assert.Equal(t, want, checksum(t, table), "failed restore keeps the table")
}
