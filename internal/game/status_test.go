package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerStatusDuringBidding(t *testing.T) {
	table := newTestTable(t)

	st, err := table.GetPlayerStatus("B")
	require.NoError(t, err)
	assert.True(t, st.IsActive)
	assert.ElementsMatch(t, []ActionType{ActionBid, ActionPassBid}, st.Actions)
	assert.Equal(t, "Bid 18 or pass", st.Prompt)
	assert.Equal(t, 18, st.BidValue)

	st, err = table.GetPlayerStatus("A")
	require.NoError(t, err)
	assert.False(t, st.IsActive)
	assert.Empty(t, st.Actions)
	assert.Equal(t, "Waiting for a bid", st.Prompt)
	assert.True(t, st.CanSetGameType)

	require.NoError(t, table.PerformPlayerAction("B", ActionBid))
	st, err = table.GetPlayerStatus("A")
	require.NoError(t, err)
	assert.ElementsMatch(t, []ActionType{ActionHoldBid, ActionPassHold}, st.Actions)
	assert.Equal(t, "Hold 18 or pass", st.Prompt)

	st, err = table.GetPlayerStatus("C")
	require.NoError(t, err)
	assert.Equal(t, "Waiting for the bidding", st.Prompt)

	_, err = table.GetPlayerStatus("Z")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPlayerStatusDuringSelectionAndPlay(t *testing.T) {
	table := newTestTable(t)
	makeDeclarer(t, table)

	st, err := table.GetPlayerStatus("B")
	require.NoError(t, err)
	assert.True(t, st.IsGamePlayer)
	assert.ElementsMatch(t, []ActionType{ActionTakeSkat, ActionStartGame, ActionPlayHand}, st.Actions)
	assert.True(t, st.CanSetHand)
	assert.True(t, st.CanSetOuvert)
	assert.False(t, st.CanSetSchneider)
	assert.Equal(t, "You play for 18, choose the game", st.Prompt)

	st, err = table.GetPlayerStatus("C")
	require.NoError(t, err)
	assert.Equal(t, "B chooses the game", st.Prompt)
	assert.False(t, st.CanSetHand)

	require.NoError(t, table.PerformPlayerAction("B", ActionStartGame))
	st, err = table.GetPlayerStatus("A")
	require.NoError(t, err)
	assert.True(t, st.IsActive)
	assert.Len(t, st.PlayableCards, 10, "forehand may lead anything")
	assert.Equal(t, "Play a card", st.Prompt)

	st, err = table.GetPlayerStatus("B")
	require.NoError(t, err)
	assert.Empty(t, st.PlayableCards)
	assert.True(t, st.CanSpeedUp)
	assert.False(t, st.CanGiveUp)
	assert.Equal(t, "Waiting for A", st.Prompt)
}

func TestPlayerStatusAfterRound(t *testing.T) {
	table := newTestTable(t)
	makeDeclarer(t, table)
	require.NoError(t, table.PerformPlayerAction("B", ActionStartGame))
	playOut(t, table)

	for _, p := range table.Players() {
		st, err := table.GetPlayerStatus(p.Name)
		require.NoError(t, err)
		assert.True(t, st.CanStartNewGame)
		assert.Equal(t, table.GameValue().Description, st.Prompt)
		assert.Empty(t, st.Actions)
	}
}

func TestGetBidPlayer(t *testing.T) {
	table := newTestTable(t)
	assert.Equal(t, "B", table.GetBidPlayer(StatusBid).Name)
	assert.Equal(t, "A", table.GetBidPlayer(StatusAccept).Name)
	assert.Equal(t, "C", table.GetBidPlayer(StatusWait).Name)
	assert.Nil(t, table.GetBidPlayer(StatusPass))
}
