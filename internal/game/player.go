package game

import (
	"fmt"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// Position is a seat relative to the deal.
type Position int

const (
	Forehand Position = iota
	Middlehand
	Rearhand
	Inactive
)

var positionNames = map[Position]string{
	Forehand:   "FOREHAND",
	Middlehand: "MIDDLEHAND",
	Rearhand:   "REARHAND",
	Inactive:   "INACTIVE",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("POSITION_%d", int(p))
}

// BidStatus is a player's role in the auction.
type BidStatus int

const (
	StatusWait BidStatus = iota
	StatusBid
	StatusAccept
	StatusPass
)

var bidStatusNames = map[BidStatus]string{
	StatusWait:   "WAIT",
	StatusBid:    "BID",
	StatusAccept: "ACCEPT",
	StatusPass:   "PASS",
}

func (s BidStatus) String() string {
	if name, ok := bidStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("BID_STATUS_%d", int(s))
}

// initialBidStatus is the auction role every seat starts a round with.
func initialBidStatus(p Position) BidStatus {
	switch p {
	case Forehand:
		return StatusAccept
	case Middlehand:
		return StatusBid
	default:
		return StatusWait
	}
}

// Player is a seat at the table. Players live as long as the table and are cleared, not
// recreated, between rounds.
type Player struct {
	Name            string
	Position        Position
	Hand            []cards.Card
	Stitches        []cards.Card
	BidStatus       BidStatus
	Game            contract.Game
	Score           int
	TournamentScore int

	Played int
	Won    int
	Lost   int
}

// NewPlayer creates an inactive player with a plain Grand sort context.
func NewPlayer(name string) *Player {
	return &Player{
		Name:     name,
		Position: Inactive,
		Game:     contract.DefaultGame(),
	}
}

// Equal compares players by name.
func (p *Player) Equal(other *Player) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name
}

// Points returns the pip total of the stitches won so far.
func (p *Player) Points() int {
	return cards.Points(p.Stitches)
}

// setGame replaces the sort context and re-sorts the hand.
func (p *Player) setGame(g contract.Game) {
	p.Game = g
	p.sortHand()
}

func (p *Player) sortHand() {
	p.Hand = contract.SortCards(p.Hand, p.Game)
}

// resetRound clears everything that only lives for one round.
func (p *Player) resetRound() {
	p.Hand = nil
	p.Stitches = nil
	p.Game = contract.DefaultGame()
	if p.Position == Inactive {
		p.BidStatus = StatusWait
	} else {
		p.BidStatus = initialBidStatus(p.Position)
	}
}
