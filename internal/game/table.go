package game

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

const (
	handSize = 10
	skatSize = 2
	// minPlayers is the number of active seats; a fourth participant sits out in turn.
	minPlayers = 3
	maxPlayers = 4
)

// SkatTable is the rules engine of one physical table. It is not safe for concurrent use;
// callers serialise access (see internal/session).
type SkatTable struct {
	logger *zap.Logger
	random io.Reader

	players        []*Player // seat order: Forehand, Middlehand, Rearhand
	inactivePlayer *Player

	skat          []cards.Card
	stitch        []cards.Card
	stitchPlayers []*Player
	lastStitch    []cards.Card

	gamePlayer    *Player
	currentPlayer *Player
	gameStarted   bool
	gameEnded     bool
	skatTaken     bool

	bidValues     []int
	bidValueIndex int
	bidSaid       bool

	gameValue            contract.Value
	matadorsJackStraight contract.Matadors
	speedUpRequested     bool

	round          int
	currentHistory *GameHistory
	skatResult     *SkatResult
}

// Option configures a SkatTable.
type Option func(*SkatTable)

// WithLogger sets the table logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *SkatTable) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithRandom sets the randomness used for dealing.
func WithRandom(r io.Reader) Option {
	return func(t *SkatTable) {
		if r != nil {
			t.random = r
		}
	}
}

func newTable(opts []Option) *SkatTable {
	t := &SkatTable{
		logger:        zap.NewNop(),
		random:        cards.DefaultSource(),
		bidValues:     contract.BidLadder(),
		bidValueIndex: -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewSkatTable seats three or four players and deals the first round. With four names the
// last one starts out inactive.
func NewSkatTable(names []string, opts ...Option) (*SkatTable, error) {
	if len(names) < minPlayers || len(names) > maxPlayers {
		return nil, fmt.Errorf("%w: need %d or %d players, got %d", ErrInvalidState, minPlayers, maxPlayers, len(names))
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty player name", ErrInvalidState)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrInvalidState, name)
		}
		seen[name] = true
	}

	t := newTable(opts)
	for _, name := range names[:minPlayers] {
		t.players = append(t.players, NewPlayer(name))
	}
	if len(names) == maxPlayers {
		t.inactivePlayer = NewPlayer(names[maxPlayers-1])
	}
	t.skatResult = NewSkatResult(names)
	t.assignSeats()

	hands, skat, err := t.drawDeal()
	if err != nil {
		return nil, err
	}
	t.deal(hands, skat)
	return t, nil
}

func (t *SkatTable) assignSeats() {
	for i, p := range t.players {
		p.Position = Position(i)
	}
	if t.inactivePlayer != nil {
		t.inactivePlayer.Position = Inactive
	}
}

// drawDeal shuffles 10/10/10 and two cards for the Skat without touching the table.
func (t *SkatTable) drawDeal() ([][]cards.Card, []cards.Card, error) {
	deck := cards.GenerateDeck()
	hands := make([][]cards.Card, minPlayers)
	for i := range hands {
		hand, err := cards.DrawRandom(&deck, handSize, t.random)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to deal hand %d: %w", i+1, err)
		}
		hands[i] = hand
	}
	skat, err := cards.DrawRandom(&deck, skatSize, t.random)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to deal skat: %w", err)
	}
	return hands, skat, nil
}

// deal resets the round and hands out a drawn deal in seat order.
func (t *SkatTable) deal(hands [][]cards.Card, skat []cards.Card) {
	t.resetRound()

	for i, p := range t.players {
		p.Hand = hands[i]
		p.sortHand()
	}
	t.skat = skat
	t.round++
	t.currentHistory = newGameHistory(t.round, t.players, t.skat)

	t.logger.Debug("dealt round",
		zap.Int("round", t.round),
		zap.String("forehand", t.players[Forehand].Name),
	)
}

func (t *SkatTable) resetRound() {
	for _, p := range t.players {
		p.resetRound()
	}
	if t.inactivePlayer != nil {
		t.inactivePlayer.resetRound()
	}
	t.skat = nil
	t.stitch = nil
	t.stitchPlayers = nil
	t.lastStitch = nil
	t.gamePlayer = nil
	t.currentPlayer = nil
	t.gameStarted = false
	t.gameEnded = false
	t.skatTaken = false
	t.bidValueIndex = -1
	t.bidSaid = false
	t.gameValue = contract.Value{}
	t.matadorsJackStraight = contract.Matadors{}
	t.speedUpRequested = false
}

// player returns the active player with the given name.
func (t *SkatTable) player(name string) (*Player, error) {
	for _, p := range t.players {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
}

// nextSeat returns the player following p in the direction of play.
func (t *SkatTable) nextSeat(p *Player) *Player {
	return t.players[(int(p.Position)+1)%len(t.players)]
}

// opponents returns the active players other than the declarer, in seat order.
func (t *SkatTable) opponents() []*Player {
	out := make([]*Player, 0, len(t.players)-1)
	for _, p := range t.players {
		if p != t.gamePlayer {
			out = append(out, p)
		}
	}
	return out
}

// Player looks up any participant, active or sitting out.
func (t *SkatTable) Player(name string) (*Player, bool) {
	if p, err := t.player(name); err == nil {
		return p, true
	}
	if t.inactivePlayer != nil && t.inactivePlayer.Name == name {
		return t.inactivePlayer, true
	}
	return nil, false
}

// Players returns the active players in seat order.
func (t *SkatTable) Players() []*Player {
	return append([]*Player(nil), t.players...)
}

// InactivePlayer returns the participant sitting out this round, or nil.
func (t *SkatTable) InactivePlayer() *Player { return t.inactivePlayer }

// Skat returns a copy of the cards in the Skat.
func (t *SkatTable) Skat() []cards.Card { return append([]cards.Card(nil), t.skat...) }

// Stitch returns a copy of the trick in progress.
func (t *SkatTable) Stitch() []cards.Card { return append([]cards.Card(nil), t.stitch...) }

// LastStitch returns a copy of the previously collected trick.
func (t *SkatTable) LastStitch() []cards.Card { return append([]cards.Card(nil), t.lastStitch...) }

// GamePlayer returns the declarer, or nil while the bidding runs.
func (t *SkatTable) GamePlayer() *Player { return t.gamePlayer }

// CurrentPlayer returns the player whose turn it is during play, or nil.
func (t *SkatTable) CurrentPlayer() *Player { return t.currentPlayer }

// GameStarted reports whether the contract is fixed and cards may be played.
func (t *SkatTable) GameStarted() bool { return t.gameStarted }

// GameEnded reports whether the round is scored.
func (t *SkatTable) GameEnded() bool { return t.gameEnded }

// SkatTaken reports whether the declarer picked up the Skat.
func (t *SkatTable) SkatTaken() bool { return t.skatTaken }

// BidSaid reports whether a bid waits for the holder's answer.
func (t *SkatTable) BidSaid() bool { return t.bidSaid }

// SpeedUpRequested reports whether the declarer's claim waits for the opponents.
func (t *SkatTable) SpeedUpRequested() bool { return t.speedUpRequested }

// Round returns the number of the current round, starting at 1.
func (t *SkatTable) Round() int { return t.round }

// GameValue returns the score of the finished round.
func (t *SkatTable) GameValue() contract.Value { return t.gameValue }

// Matadors returns the declarer's run, fixed when the game starts.
func (t *SkatTable) Matadors() contract.Matadors {
	return t.matadorsJackStraight
}

// Game returns the contract in force, which is the declarer's selection.
func (t *SkatTable) Game() contract.Game {
	if t.gamePlayer == nil {
		return contract.DefaultGame()
	}
	return t.gamePlayer.Game
}

// CurrentHistory returns the record of the round in progress.
func (t *SkatTable) CurrentHistory() *GameHistory { return t.currentHistory }

// SkatResult returns the accumulated history of the table.
func (t *SkatTable) SkatResult() *SkatResult { return t.skatResult }

// CurrentBidValue returns the value on the table, zero before the first bid.
func (t *SkatTable) CurrentBidValue() int {
	if t.bidValueIndex < 0 {
		return 0
	}
	return t.bidValues[t.bidValueIndex]
}

// NextBidValue returns the value a bidder would say next.
func (t *SkatTable) NextBidValue() int {
	if t.bidValueIndex+1 < len(t.bidValues) {
		return t.bidValues[t.bidValueIndex+1]
	}
	return t.bidValues[len(t.bidValues)-1]
}
