package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skatclub/skat-server-go/internal/game/cards"
)

func c(s cards.Suit, r cards.Rank) cards.Card { return cards.Of(s, r) }

func newTestTable(t *testing.T, names ...string) *SkatTable {
	t.Helper()
	if len(names) == 0 {
		names = []string{"A", "B", "C"}
	}
	table, err := NewSkatTable(names,
		WithLogger(zaptest.NewLogger(t)),
		WithRandom(cards.NewSeededSource(42)),
	)
	require.NoError(t, err)
	return table
}

// makeDeclarer lets Middlehand win the auction at 18.
func makeDeclarer(t *testing.T, table *SkatTable) *Player {
	t.Helper()
	fore, middle, rear := table.players[Forehand].Name, table.players[Middlehand].Name, table.players[Rearhand].Name
	require.NoError(t, table.PerformPlayerAction(middle, ActionBid))
	require.NoError(t, table.PerformPlayerAction(fore, ActionPassHold))
	require.NoError(t, table.PerformPlayerAction(rear, ActionPassBid))
	require.NotNil(t, table.GamePlayer())
	require.Equal(t, middle, table.GamePlayer().Name)
	return table.GamePlayer()
}

// cardsOnTable counts every card held anywhere and fails on duplicates.
func cardsOnTable(t *testing.T, table *SkatTable) int {
	t.Helper()
	seen := make(map[cards.Card]bool)
	piles := [][]cards.Card{table.skat, table.stitch}
	for _, p := range table.players {
		piles = append(piles, p.Hand, p.Stitches)
	}
	for _, pile := range piles {
		for _, card := range pile {
			require.False(t, seen[card], "card %s held twice", card)
			seen[card] = true
		}
	}
	return len(seen)
}

// playOut plays the first legal card until the round is scored, checking that illegal cards
// are rejected on the way.
func playOut(t *testing.T, table *SkatTable) {
	t.Helper()
	for i := 0; !table.GameEnded(); i++ {
		require.Less(t, i, 100, "round does not terminate")
		require.Equal(t, cards.DeckSize, cardsOnTable(t, table))

		cp := table.CurrentPlayer()
		require.NotNil(t, cp)
		if len(table.Stitch()) == minPlayers {
			require.NoError(t, table.CollectStitch(cp.Name))
			continue
		}

		var legal []cards.Card
		for _, card := range cp.Hand {
			if table.CanPlayCard(cp.Name, card) {
				legal = append(legal, card)
			} else {
				assert.ErrorIs(t, table.PlayCard(cp.Name, card), ErrActionNotAllowed)
			}
		}
		require.NotEmpty(t, legal, "%s holds no legal card", cp.Name)
		require.NoError(t, table.PlayCard(cp.Name, legal[0]))
	}
}

func checksum(t *testing.T, table *SkatTable) string {
	t.Helper()
	sum, err := table.GetInternalState().Checksum()
	require.NoError(t, err)
	return sum.Hash
}

func TestNewSkatTable(t *testing.T) {
	table := newTestTable(t)

	require.Len(t, table.Players(), 3)
	assert.Nil(t, table.InactivePlayer())
	assert.Equal(t, 1, table.Round())
	for i, p := range table.Players() {
		assert.Equal(t, Position(i), p.Position)
		assert.Len(t, p.Hand, 10)
		assert.Empty(t, p.Stitches)
	}
	assert.Len(t, table.Skat(), 2)
	assert.Equal(t, cards.DeckSize, cardsOnTable(t, table))

	assert.Equal(t, StatusAccept, table.players[Forehand].BidStatus)
	assert.Equal(t, StatusBid, table.players[Middlehand].BidStatus)
	assert.Equal(t, StatusWait, table.players[Rearhand].BidStatus)
	assert.Equal(t, 0, table.CurrentBidValue())
	assert.Equal(t, 18, table.NextBidValue())
	assert.Equal(t, "B", table.GetActivePlayer().Name)

	history := table.CurrentHistory()
	require.NotNil(t, history)
	assert.Equal(t, []string{"A", "B", "C"}, history.Players)
	assert.Len(t, history.Dealt, 3)
	assert.Equal(t, table.Skat(), history.Skat)
}

func TestNewSkatTableValidation(t *testing.T) {
	_, err := NewSkatTable([]string{"A", "B"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewSkatTable([]string{"A", "B", "A"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewSkatTable([]string{"A", "", "C"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewSkatTable([]string{"A", "B", "C", "D", "E"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSeededDealsRepeat(t *testing.T) {
	first := newTestTable(t)
	second := newTestTable(t)
	for i := range first.players {
		assert.Equal(t, first.players[i].Hand, second.players[i].Hand)
	}
	assert.Equal(t, first.Skat(), second.Skat())
}

func TestFourPlayersStartWithLastInactive(t *testing.T) {
	table := newTestTable(t, "A", "B", "C", "D")
	require.NotNil(t, table.InactivePlayer())
	assert.Equal(t, "D", table.InactivePlayer().Name)
	assert.Equal(t, Inactive, table.InactivePlayer().Position)
	assert.Empty(t, table.InactivePlayer().Hand)
	assert.Equal(t, cards.DeckSize, cardsOnTable(t, table))

	_, err := table.GetPlayerStatus("D")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	p, ok := table.Player("D")
	assert.True(t, ok)
	assert.Equal(t, "D", p.Name)
}
