package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skatclub/skat-server-go/internal/game/cards"
)

func card(s cards.Suit, r cards.Rank) cards.Card { return cards.Of(s, r) }

func TestClubJackIsHighestInClubsGame(t *testing.T) {
	g := NewGame(Color, cards.Clubs)
	clubJack := card(cards.Clubs, cards.Jack)

	for _, c := range cards.GenerateDeck() {
		if c == clubJack {
			continue
		}
		assert.Greater(t, OrderValue(clubJack, g), OrderValue(c, g), "club jack vs %s", c)
	}
	assert.Greater(t, OrderValue(card(cards.Spades, cards.Jack), g), OrderValue(card(cards.Clubs, cards.Ace), g))
}

func TestTrumpRunAboveSideSuits(t *testing.T) {
	g := NewGame(Color, cards.Diamonds)
	lowestTrump := OrderValue(card(cards.Diamonds, cards.Seven), g)
	assert.Greater(t, lowestTrump, OrderValue(card(cards.Clubs, cards.Ace), g))
	assert.Less(t, OrderValue(card(cards.Diamonds, cards.Ace), g), OrderValue(card(cards.Diamonds, cards.Jack), g))
}

func TestTenRanksAboveKingOutsideNull(t *testing.T) {
	for _, g := range []Game{DefaultGame(), NewGame(Color, cards.NoSuit), NewGame(Color, cards.Hearts)} {
		ten := OrderValue(card(cards.Spades, cards.Ten), g)
		assert.Greater(t, ten, OrderValue(card(cards.Spades, cards.King), g), g.String())
		assert.Greater(t, OrderValue(card(cards.Spades, cards.King), g), OrderValue(card(cards.Spades, cards.Queen), g))
		assert.Greater(t, OrderValue(card(cards.Spades, cards.Queen), g), OrderValue(card(cards.Spades, cards.Nine), g))
		assert.Less(t, ten, OrderValue(card(cards.Spades, cards.Ace), g))
	}
}

func TestNullUsesNaturalOrder(t *testing.T) {
	g := NewGame(Null, cards.NoSuit)
	for _, c := range cards.GenerateDeck() {
		assert.Equal(t, c.Number(), OrderValue(c, g))
		assert.False(t, IsTrump(c, g))
	}
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name  string
		game  Game
		trick []cards.Card
		want  int
	}{
		{
			name:  "jack trumps in grand",
			game:  DefaultGame(),
			trick: []cards.Card{card(cards.Hearts, cards.Seven), card(cards.Hearts, cards.Ace), card(cards.Diamonds, cards.Jack)},
			want:  2,
		},
		{
			name:  "discard does not win",
			game:  DefaultGame(),
			trick: []cards.Card{card(cards.Hearts, cards.Seven), card(cards.Clubs, cards.Ace), card(cards.Hearts, cards.Eight)},
			want:  2,
		},
		{
			name:  "small trump beats led ace",
			game:  NewGame(Color, cards.Spades),
			trick: []cards.Card{card(cards.Hearts, cards.King), card(cards.Spades, cards.Seven), card(cards.Hearts, cards.Ace)},
			want:  1,
		},
		{
			name:  "higher jack wins trump trick",
			game:  NewGame(Color, cards.Spades),
			trick: []cards.Card{card(cards.Spades, cards.Ace), card(cards.Hearts, cards.Jack), card(cards.Clubs, cards.Jack)},
			want:  2,
		},
		{
			name:  "ten beats king",
			game:  NewGame(Color, cards.Clubs),
			trick: []cards.Card{card(cards.Hearts, cards.King), card(cards.Hearts, cards.Ten), card(cards.Hearts, cards.Queen)},
			want:  1,
		},
		{
			name:  "null ignores jacks as trumps",
			game:  NewGame(Null, cards.NoSuit),
			trick: []cards.Card{card(cards.Hearts, cards.Jack), card(cards.Hearts, cards.Queen), card(cards.Clubs, cards.Ace)},
			want:  1,
		},
		{
			name:  "null ten below jack",
			game:  NewGame(Null, cards.NoSuit),
			trick: []cards.Card{card(cards.Hearts, cards.Ten), card(cards.Hearts, cards.Jack), card(cards.Hearts, cards.Nine)},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrickWinner(tt.trick, tt.game))
		})
	}
}

func TestCanFollow(t *testing.T) {
	hearts := NewGame(Color, cards.Hearts)
	led := card(cards.Hearts, cards.Seven)
	hand := []cards.Card{card(cards.Diamonds, cards.Jack), card(cards.Spades, cards.Ace)}
	assert.True(t, CanFollow(led, card(cards.Diamonds, cards.Jack), hand, hearts), "jack is trump")
	assert.False(t, CanFollow(led, card(cards.Spades, cards.Ace), hand, hearts))

	grand := DefaultGame()
	led = card(cards.Hearts, cards.Nine)
	hand = []cards.Card{card(cards.Hearts, cards.Jack), card(cards.Spades, cards.Seven)}
	assert.True(t, CanFollow(led, card(cards.Spades, cards.Seven), hand, grand), "hearts jack is not a heart in grand")
	assert.True(t, CanFollow(led, card(cards.Hearts, cards.Jack), hand, grand))

	null := NewGame(Null, cards.NoSuit)
	assert.False(t, CanFollow(led, card(cards.Spades, cards.Seven), hand, null), "hearts jack must follow in null")
	assert.True(t, CanFollow(led, card(cards.Hearts, cards.Jack), hand, null))
}

func TestSortCards(t *testing.T) {
	hand := []cards.Card{card(cards.Hearts, cards.Ace), card(cards.Clubs, cards.Seven), card(cards.Diamonds, cards.Jack)}
	sorted := SortCards(hand, NewGame(Color, cards.Clubs))
	assert.Equal(t, []cards.Card{card(cards.Diamonds, cards.Jack), card(cards.Clubs, cards.Seven), card(cards.Hearts, cards.Ace)}, sorted)
	assert.Equal(t, card(cards.Hearts, cards.Ace), hand[0], "input must stay untouched")
}
