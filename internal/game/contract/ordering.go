package contract

import (
	"sort"

	"github.com/skatclub/skat-server-go/internal/game/cards"
)

const (
	jackBonus  = 64
	trumpBonus = 32
	tenBonus   = 3
	// trumpClass is the follow class shared by every trump card.
	trumpClass = -1
)

// OrderValue ranks a card under the contract. Higher values win tricks within the same
// follow class.
func OrderValue(c cards.Card, g Game) int {
	v := c.Number()
	if g.Type == Null {
		return v
	}
	switch c.Rank() {
	case cards.Jack:
		v += jackBonus
	case cards.Ten:
		v += tenBonus
	case cards.Queen, cards.King:
		v--
	}
	if g.HasTrump() && !c.IsJack() && c.Suit() == g.Trump {
		v += trumpBonus
	}
	return v
}

// IsTrump reports whether c is a trump card under g.
func IsTrump(c cards.Card, g Game) bool {
	switch g.Type {
	case Null:
		return false
	case Color:
		return c.IsJack() || (g.HasTrump() && c.Suit() == g.Trump)
	default:
		return c.IsJack()
	}
}

// followClass is the suit a card belongs to for follow rules; all trumps share one class.
func followClass(c cards.Card, g Game) int {
	if IsTrump(c, g) {
		return trumpClass
	}
	return int(c.Suit())
}

// SameClass reports whether b follows the class led by a.
func SameClass(led, b cards.Card, g Game) bool {
	return followClass(led, g) == followClass(b, g)
}

// Beats reports whether challenger takes the trick from the currently winning card.
func Beats(challenger, winning cards.Card, g Game) bool {
	ct, wt := IsTrump(challenger, g), IsTrump(winning, g)
	if ct != wt {
		return ct
	}
	if !SameClass(winning, challenger, g) {
		return false
	}
	return OrderValue(challenger, g) > OrderValue(winning, g)
}

// TrickWinner returns the index of the winning card in play order.
func TrickWinner(trick []cards.Card, g Game) int {
	best := 0
	for i := 1; i < len(trick); i++ {
		if Beats(trick[i], trick[best], g) {
			best = i
		}
	}
	return best
}

// CanFollow reports whether card may be played onto a trick led by led, given the hand.
func CanFollow(led, card cards.Card, hand []cards.Card, g Game) bool {
	if SameClass(led, card, g) {
		return true
	}
	for _, c := range hand {
		if SameClass(led, c, g) {
			return false
		}
	}
	return true
}

// SortCards orders cards from highest to lowest under g. The input is not modified.
func SortCards(cs []cards.Card, g Game) []cards.Card {
	out := make([]cards.Card, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		return OrderValue(out[i], g) > OrderValue(out[j], g)
	})
	return out
}
