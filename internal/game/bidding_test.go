package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiddingMiddlehandAgainstForehandThenRearhand(t *testing.T) {
	table := newTestTable(t)

	require.NoError(t, table.PerformPlayerAction("B", ActionBid))
	assert.Equal(t, 18, table.CurrentBidValue())
	assert.True(t, table.BidSaid())
	assert.Equal(t, "A", table.GetActivePlayer().Name)

	require.NoError(t, table.PerformPlayerAction("A", ActionHoldBid))
	assert.False(t, table.BidSaid())
	require.NoError(t, table.PerformPlayerAction("B", ActionBid))
	assert.Equal(t, 20, table.CurrentBidValue())

	require.NoError(t, table.PerformPlayerAction("A", ActionPassHold))
	assert.Equal(t, StatusPass, table.players[Forehand].BidStatus)
	assert.Equal(t, StatusAccept, table.players[Middlehand].BidStatus)
	assert.Equal(t, StatusBid, table.players[Rearhand].BidStatus)
	assert.Nil(t, table.GamePlayer())

	require.NoError(t, table.PerformPlayerAction("C", ActionBid))
	assert.Equal(t, 22, table.CurrentBidValue())
	require.NoError(t, table.PerformPlayerAction("B", ActionHoldBid))
	require.NoError(t, table.PerformPlayerAction("C", ActionPassBid))

	require.NotNil(t, table.GamePlayer())
	assert.Equal(t, "B", table.GamePlayer().Name)
	assert.Equal(t, 22, table.CurrentBidValue())
	assert.Equal(t, "B", table.GetActivePlayer().Name)
	assert.Equal(t, "B", table.CurrentHistory().GamePlayer)
	assert.Equal(t, 22, table.CurrentHistory().BidValue)
}

func TestBiddingRearhandWinsAfterMiddlehandPasses(t *testing.T) {
	table := newTestTable(t)

	require.NoError(t, table.PerformPlayerAction("B", ActionPassBid))
	assert.Equal(t, StatusBid, table.players[Rearhand].BidStatus)
	assert.Equal(t, "C", table.GetActivePlayer().Name)

	require.NoError(t, table.PerformPlayerAction("C", ActionBid))
	require.NoError(t, table.PerformPlayerAction("A", ActionPassHold))

	require.NotNil(t, table.GamePlayer())
	assert.Equal(t, "C", table.GamePlayer().Name)
	assert.Equal(t, 18, table.CurrentBidValue())
}

func TestForehandMustBidOnceAfterTwoPasses(t *testing.T) {
	table := newTestTable(t)

	require.NoError(t, table.PerformPlayerAction("B", ActionPassBid))
	require.NoError(t, table.PerformPlayerAction("C", ActionPassBid))

	assert.Nil(t, table.GamePlayer(), "forehand is not declarer without a bid")
	assert.Equal(t, StatusBid, table.players[Forehand].BidStatus)
	assert.Equal(t, "A", table.GetActivePlayer().Name)

	require.NoError(t, table.PerformPlayerAction("A", ActionBid))
	require.NotNil(t, table.GamePlayer())
	assert.Equal(t, "A", table.GamePlayer().Name)
	assert.Equal(t, 18, table.CurrentBidValue())
	assert.False(t, table.BidSaid())
}

func TestAllPlayersPass(t *testing.T) {
	table := newTestTable(t)

	require.NoError(t, table.PerformPlayerAction("B", ActionPassBid))
	require.NoError(t, table.PerformPlayerAction("C", ActionPassBid))
	require.NoError(t, table.PerformPlayerAction("A", ActionPassBid))

	assert.True(t, table.GameEnded())
	assert.False(t, table.GameStarted())
	assert.True(t, table.CanStartNewGame())
	assert.Equal(t, 0, table.GameValue().Score)
	require.NotNil(t, table.GamePlayer())
	assert.Equal(t, "A", table.GamePlayer().Name)
	assert.Empty(t, table.Skat())
	for _, p := range table.Players() {
		assert.Empty(t, p.Hand)
		assert.Empty(t, p.Stitches)
		assert.Equal(t, 0, p.Score)
		assert.Equal(t, 0, p.TournamentScore)
	}
	assert.Nil(t, table.GetActivePlayer())

	result := table.SkatResult()
	require.Equal(t, 1, result.Size())
	last := result.Last()
	assert.True(t, last.AllPassed)
	assert.Equal(t, 0, last.GameValue.Score)
	assert.False(t, last.FinishedAt.IsZero())
}

func TestBiddingRejectsOutOfTurnActions(t *testing.T) {
	table := newTestTable(t)
	before := checksum(t, table)

	tests := []struct {
		name   string
		player string
		action ActionType
	}{
		{"forehand cannot bid first", "A", ActionBid},
		{"forehand cannot hold without a bid", "A", ActionHoldBid},
		{"rearhand waits", "C", ActionBid},
		{"rearhand cannot pass yet", "C", ActionPassBid},
		{"no skat before bidding ends", "B", ActionTakeSkat},
		{"no game before bidding ends", "B", ActionStartGame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, table.CanPerformPlayerAction(tt.player, tt.action))
			assert.ErrorIs(t, table.PerformPlayerAction(tt.player, tt.action), ErrActionNotAllowed)
		})
	}
	assert.Equal(t, before, checksum(t, table), "rejected actions must not change the table")

	assert.ErrorIs(t, table.PerformPlayerAction("Z", ActionBid), ErrUnknownPlayer)

	require.NoError(t, table.PerformPlayerAction("B", ActionBid))
	assert.ErrorIs(t, table.PerformPlayerAction("B", ActionBid), ErrActionNotAllowed, "bid must be answered first")
}

func TestBidLadderMonotonicDuringAuction(t *testing.T) {
	table := newTestTable(t)
	previous := table.CurrentBidValue()
	for i := 0; i < 20; i++ {
		require.GreaterOrEqual(t, table.NextBidValue(), table.CurrentBidValue())
		require.NoError(t, table.PerformPlayerAction("B", ActionBid))
		require.Greater(t, table.CurrentBidValue(), previous)
		assert.Contains(t, table.bidValues, table.CurrentBidValue())
		previous = table.CurrentBidValue()
		require.NoError(t, table.PerformPlayerAction("A", ActionHoldBid))
	}
}

func TestParseActionType(t *testing.T) {
	for _, a := range allActions {
		parsed, err := ParseActionType(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	_, err := ParseActionType("SHUFFLE")
	assert.Error(t, err)
}

func TestActionTypeJSON(t *testing.T) {
	data, err := json.Marshal([]ActionType{ActionBid, ActionPassHold})
	require.NoError(t, err)
	assert.JSONEq(t, `["BID","PASS_HOLD"]`, string(data))

	var back []ActionType
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []ActionType{ActionBid, ActionPassHold}, back)

	assert.Error(t, json.Unmarshal([]byte(`["SHUFFLE"]`), &back))
}
