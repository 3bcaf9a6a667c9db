package contract

import (
	"fmt"
	"strings"

	"github.com/skatclub/skat-server-go/internal/game/cards"
)

// GameType is the kind of contract.
type GameType int

const (
	Grand GameType = iota
	Color
	Null
)

var gameTypeNames = map[GameType]string{
	Grand: "Grand",
	Color: "Color",
	Null:  "Null",
}

func (t GameType) String() string {
	if name, ok := gameTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("GAME_TYPE_%d", int(t))
}

// ParseGameType is the inverse of GameType.String.
func ParseGameType(s string) (GameType, error) {
	for t, name := range gameTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown game type %q", s)
}

// GameOption is a bitset of declared extras.
type GameOption int

const (
	Ouvert GameOption = 1 << iota
	Hand
	Schneider
	Schwarz

	NoOption GameOption = 0
)

var optionNames = []struct {
	opt  GameOption
	name string
}{
	{Hand, "Hand"},
	{Schneider, "Schneider"},
	{Schwarz, "Schwarz"},
	{Ouvert, "Ouvert"},
}

// Has reports whether every bit of o is set.
func (g GameOption) Has(o GameOption) bool { return o != NoOption && g&o == o }

func (g GameOption) String() string {
	var parts []string
	for _, on := range optionNames {
		if g.Has(on.opt) {
			parts = append(parts, on.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "+")
}

// ParseGameOption parses a single option name.
func ParseGameOption(s string) (GameOption, error) {
	for _, on := range optionNames {
		if strings.EqualFold(on.name, s) {
			return on.opt, nil
		}
	}
	return NoOption, fmt.Errorf("unknown game option %q", s)
}

// Game is an immutable contract description. Modifiers return a new value.
type Game struct {
	Type   GameType   `json:"type"`
	Option GameOption `json:"option"`
	Trump  cards.Suit `json:"trump"`
}

// NewGame builds a contract. The trump suit is dropped for anything but Color.
func NewGame(t GameType, trump cards.Suit) Game {
	if t != Color {
		trump = cards.NoSuit
	}
	return Game{Type: t, Trump: trump}
}

// DefaultGame is a plain Grand, the initial sort context of every player.
func DefaultGame() Game {
	return NewGame(Grand, cards.NoSuit)
}

// WithOption returns g with o switched on.
func (g Game) WithOption(o GameOption) Game {
	g.Option |= o
	return g
}

// WithoutOption returns g with o switched off.
func (g Game) WithoutOption(o GameOption) Game {
	g.Option &^= o
	return g
}

// HasTrump reports whether a trump suit is assigned.
func (g Game) HasTrump() bool {
	return g.Type == Color && g.Trump.Valid()
}

func (g Game) String() string {
	name := g.Type.String()
	if g.Type == Color {
		name = g.Trump.String()
	}
	if g.Option != NoOption {
		name += " " + g.Option.String()
	}
	return name
}
