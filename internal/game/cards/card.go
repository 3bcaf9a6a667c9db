package cards

import (
	"errors"
	"fmt"
	"strings"
)

// DeckSize is the number of cards in a Skat deck.
const DeckSize = 32

// ErrInvalidCard is returned when a card number lies outside 0..31.
var ErrInvalidCard = errors.New("invalid card")

// Suit is a card suit, ordered by Skat rank (Diamonds lowest).
type Suit int

const (
	Diamonds Suit = iota
	Hearts
	Spades
	Clubs

	// NoSuit marks the absence of a trump suit.
	NoSuit Suit = -1
)

var suitNames = map[Suit]string{
	Diamonds: "Diamonds",
	Hearts:   "Hearts",
	Spades:   "Spades",
	Clubs:    "Clubs",
	NoSuit:   "None",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUIT_%d", int(s))
}

// ParseSuit is the inverse of Suit.String. "None" and "" give NoSuit.
func ParseSuit(s string) (Suit, error) {
	if s == "" {
		return NoSuit, nil
	}
	for suit, name := range suitNames {
		if strings.EqualFold(name, s) {
			return suit, nil
		}
	}
	return NoSuit, fmt.Errorf("unknown suit %q", s)
}

// Valid reports whether s is one of the four real suits.
func (s Suit) Valid() bool {
	return s >= Diamonds && s <= Clubs
}

// Rank is a card rank in natural order (Seven lowest).
type Rank int

const (
	Seven Rank = iota
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = map[Rank]string{
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RANK_%d", int(r))
}

var rankPoints = map[Rank]int{
	Jack:  2,
	Queen: 3,
	King:  4,
	Ten:   10,
	Ace:   11,
}

// Card is one of the 32 Skat cards, encoded as suit*8 + rank.
type Card int

// New returns the card with internal number n.
func New(n int) (Card, error) {
	if n < 0 || n >= DeckSize {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCard, n)
	}
	return Card(n), nil
}

// Of returns the card of the given suit and rank.
func Of(s Suit, r Rank) Card {
	return Card(int(s)*8 + int(r))
}

// Number returns the internal number 0..31.
func (c Card) Number() int { return int(c) }

// Suit returns the suit of the card.
func (c Card) Suit() Suit { return Suit(int(c) / 8) }

// Rank returns the rank of the card.
func (c Card) Rank() Rank { return Rank(int(c) % 8) }

// IsJack reports whether the card is a Jack.
func (c Card) IsJack() bool { return c.Rank() == Jack }

// Points returns the pip value of the card, independent of the contract.
func (c Card) Points() int { return rankPoints[c.Rank()] }

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Suit(), c.Rank())
}

// Points sums the pip values of cards.
func Points(cs []Card) int {
	total := 0
	for _, c := range cs {
		total += c.Points()
	}
	return total
}

// Contains reports whether c is in cs.
func Contains(cs []Card, c Card) bool {
	return IndexOf(cs, c) >= 0
}

// IndexOf returns the position of c in cs or -1.
func IndexOf(cs []Card, c Card) int {
	for i, x := range cs {
		if x == c {
			return i
		}
	}
	return -1
}

// Remove returns cs without c and whether c was present. The input slice is not modified.
func Remove(cs []Card, c Card) ([]Card, bool) {
	idx := IndexOf(cs, c)
	if idx < 0 {
		return cs, false
	}
	out := make([]Card, 0, len(cs)-1)
	out = append(out, cs[:idx]...)
	out = append(out, cs[idx+1:]...)
	return out, true
}

// Numbers converts cards to their internal numbers.
func Numbers(cs []Card) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = int(c)
	}
	return out
}

// FromNumbers converts internal numbers back to cards, rejecting anything outside 0..31.
func FromNumbers(ns []int) ([]Card, error) {
	out := make([]Card, len(ns))
	for i, n := range ns {
		c, err := New(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
