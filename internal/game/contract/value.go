package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skatclub/skat-server-go/internal/game/cards"
)

const (
	// TotalPoints is the pip total of the deck.
	TotalPoints = 120
	// AllTricksCards is the number of cards in ten tricks.
	AllTricksCards = 30

	winPoints       = 61
	schneiderPoints = 90
	schneiderLimit  = 30
)

var colorBaseValues = map[cards.Suit]int{
	cards.Diamonds: 9,
	cards.Hearts:   10,
	cards.Spades:   11,
	cards.Clubs:    12,
}

const (
	grandBaseValue          = 24
	nullBaseValue           = 23
	nullHandBaseValue       = 35
	nullOuvertBaseValue     = 46
	nullOuvertHandBaseValue = 59
)

// Matadors is the trump run that drives the multiplier. Count is the play level, one more
// than the number of matadors ("with 2, play 3").
type Matadors struct {
	With  bool `json:"with"`
	Count int  `json:"count"`
}

// Jacks returns the number of matadors in the run.
func (m Matadors) Jacks() int {
	if m.Count == 0 {
		return 0
	}
	return m.Count - 1
}

func (m Matadors) String() string {
	if m.Count == 0 {
		return "no matadors"
	}
	word := "without"
	if m.With {
		word = "with"
	}
	return fmt.Sprintf("%s %d play %d", word, m.Jacks(), m.Count)
}

// matadorOrder lists the cards whose possession forms the run, highest first.
func (g Game) matadorOrder() []cards.Card {
	order := []cards.Card{
		cards.Of(cards.Clubs, cards.Jack),
		cards.Of(cards.Spades, cards.Jack),
		cards.Of(cards.Hearts, cards.Jack),
		cards.Of(cards.Diamonds, cards.Jack),
	}
	if g.HasTrump() {
		for _, r := range []cards.Rank{cards.Ace, cards.Ten, cards.King, cards.Queen, cards.Nine, cards.Eight, cards.Seven} {
			order = append(order, cards.Of(g.Trump, r))
		}
	}
	return order
}

// MatadorsJackStraight counts the run held (or missing) by the declarer over hand and Skat.
func (g Game) MatadorsJackStraight(hand, skat []cards.Card) Matadors {
	if g.Type == Null {
		return Matadors{}
	}
	all := make([]cards.Card, 0, len(hand)+len(skat))
	all = append(all, hand...)
	all = append(all, skat...)

	order := g.matadorOrder()
	with := cards.Contains(all, order[0])
	run := 0
	for _, c := range order {
		if cards.Contains(all, c) != with {
			break
		}
		run++
	}
	return Matadors{With: with, Count: run + 1}
}

// IsWinner applies the win condition to the declarer's stitches and the Skat.
func (g Game) IsWinner(stitches, skat []cards.Card) bool {
	if g.Type == Null {
		return len(stitches) == 0
	}
	points := cards.Points(stitches) + cards.Points(skat)
	switch {
	case g.Option.Has(Schwarz):
		return len(stitches) == AllTricksCards
	case g.Option.Has(Schneider):
		return points >= schneiderPoints
	default:
		return points >= winPoints
	}
}

// BaseValue returns the per-level value of the contract.
func (g Game) BaseValue() int {
	switch g.Type {
	case Null:
		hand, ouvert := g.Option.Has(Hand), g.Option.Has(Ouvert)
		switch {
		case hand && ouvert:
			return nullOuvertHandBaseValue
		case ouvert:
			return nullOuvertBaseValue
		case hand:
			return nullHandBaseValue
		default:
			return nullBaseValue
		}
	case Color:
		return colorBaseValues[g.Trump]
	default:
		return grandBaseValue
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// multiplier adds the declared and achieved extras to the play level. A declared Schneider
// or Schwarz counts once for being declared and once more as achieved-or-declared.
func (g Game) multiplier(m Matadors, schneider, schwarz bool) int {
	if g.Type == Null {
		return 1
	}
	declSchneider := g.Option.Has(Schneider)
	declSchwarz := g.Option.Has(Schwarz)
	return m.Count +
		b2i(g.Option.Has(Hand)) +
		b2i(g.Option.Has(Ouvert)) +
		b2i(schneider || declSchneider) +
		b2i(declSchneider) +
		b2i(schwarz || declSchwarz) +
		b2i(declSchwarz)
}

// BidValue is the nominal worth of the contract at the given run and achieved extras.
func (g Game) BidValue(m Matadors, schneider, schwarz bool) int {
	return g.multiplier(m, schneider, schwarz) * g.BaseValue()
}

// Value is the outcome of a scored round.
type Value struct {
	Score       int    `json:"score"`
	Points      int    `json:"points"`
	Multiplier  int    `json:"multiplier"`
	BaseValue   int    `json:"base_value"`
	BidValue    int    `json:"bid_value"`
	IsWinner    bool   `json:"is_winner"`
	IsOverBid   bool   `json:"is_over_bid"`
	Schneider   bool   `json:"schneider"`
	Schwarz     bool   `json:"schwarz"`
	Description string `json:"description"`
}

// GameValue scores a finished round. gaveUp suppresses schneider and schwarz that the
// opponents would otherwise force on a losing declarer.
func (g Game) GameValue(m Matadors, stitches, skat []cards.Card, bid int, gaveUp bool) Value {
	v := Value{BaseValue: g.BaseValue(), BidValue: bid}

	if g.Type == Null {
		v.Points = cards.Points(stitches)
	} else {
		v.Points = cards.Points(stitches) + cards.Points(skat)
		v.Schneider = v.Points >= schneiderPoints || (!gaveUp && v.Points <= schneiderLimit)
		v.Schwarz = len(stitches) == AllTricksCards || (!gaveUp && len(stitches) == 0)
	}

	v.Multiplier = g.multiplier(m, v.Schneider, v.Schwarz)
	raw := v.Multiplier * v.BaseValue

	if g.BidValue(m, v.Schneider, v.Schwarz) < bid {
		k := (bid + v.BaseValue - 1) / v.BaseValue
		v.IsOverBid = true
		v.IsWinner = false
		v.Score = -2 * k * v.BaseValue
		v.Description = g.describe(m, v, fmt.Sprintf("overbid %d: -2 x %d x %d = %d", bid, k, v.BaseValue, v.Score))
		return v
	}

	v.IsWinner = g.IsWinner(stitches, skat)
	if v.IsWinner {
		v.Score = raw
		v.Description = g.describe(m, v, fmt.Sprintf("%d x %d = %d", v.Multiplier, v.BaseValue, v.Score))
	} else {
		v.Score = -2 * raw
		v.Description = g.describe(m, v, fmt.Sprintf("lost: -2 x %d x %d = %d", v.Multiplier, v.BaseValue, v.Score))
	}
	return v
}

func (g Game) describe(m Matadors, v Value, calc string) string {
	parts := []string{g.String()}
	if g.Type != Null {
		parts = append(parts, m.String())
		if v.Schneider && !g.Option.Has(Schneider) {
			parts = append(parts, "Schneider")
		}
		if v.Schwarz && !g.Option.Has(Schwarz) {
			parts = append(parts, "Schwarz")
		}
	}
	parts = append(parts, fmt.Sprintf("%d points", v.Points))
	return strings.Join(parts, ", ") + ": " + calc
}

// BidLadder returns every value that can be bid, ascending and without duplicates.
func BidLadder() []int {
	seen := make(map[int]bool)
	add := func(v int) { seen[v] = true }

	for m := 2; m <= 17; m++ {
		for _, base := range colorBaseValues {
			add(m * base)
		}
	}
	for m := 2; m <= 11; m++ {
		add(m * grandBaseValue)
	}
	for _, v := range []int{nullBaseValue, nullHandBaseValue, nullOuvertBaseValue, nullOuvertHandBaseValue} {
		add(v)
	}

	ladder := make([]int, 0, len(seen))
	for v := range seen {
		ladder = append(ladder, v)
	}
	sort.Ints(ladder)
	return ladder
}
