package game

import (
	"fmt"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// PlayerState is the externalised form of a Player.
type PlayerState struct {
	Name            string        `json:"name"`
	Position        Position      `json:"position"`
	Hand            []int         `json:"hand"`
	Stitches        []int         `json:"stitches"`
	BidStatus       BidStatus     `json:"bid_status"`
	Game            contract.Game `json:"game"`
	Score           int           `json:"score"`
	TournamentScore int           `json:"tournament_score"`
	Played          int           `json:"played"`
	Won             int           `json:"won"`
	Lost            int           `json:"lost"`
}

// TableState is an opaque snapshot of a SkatTable. Players are referenced by name and cards
// by their internal number.
type TableState struct {
	Players          []PlayerState     `json:"players"`
	Inactive         *PlayerState      `json:"inactive,omitempty"`
	Skat             []int             `json:"skat"`
	Stitch           []int             `json:"stitch"`
	StitchPlayers    []string          `json:"stitch_players"`
	LastStitch       []int             `json:"last_stitch"`
	GamePlayer       string            `json:"game_player,omitempty"`
	CurrentPlayer    string            `json:"current_player,omitempty"`
	GameStarted      bool              `json:"game_started"`
	GameEnded        bool              `json:"game_ended"`
	SkatTaken        bool              `json:"skat_taken"`
	BidValues        []int             `json:"bid_values"`
	BidValueIndex    int               `json:"bid_value_index"`
	BidSaid          bool              `json:"bid_said"`
	GameValue        contract.Value    `json:"game_value"`
	Matadors         contract.Matadors `json:"matadors"`
	SpeedUpRequested bool              `json:"speed_up_requested"`
	Round            int               `json:"round"`
	CurrentHistory   *GameHistory      `json:"current_history,omitempty"`
	Result           *SkatResult       `json:"result,omitempty"`
}

func exportPlayer(p *Player) PlayerState {
	return PlayerState{
		Name:            p.Name,
		Position:        p.Position,
		Hand:            cards.Numbers(p.Hand),
		Stitches:        cards.Numbers(p.Stitches),
		BidStatus:       p.BidStatus,
		Game:            p.Game,
		Score:           p.Score,
		TournamentScore: p.TournamentScore,
		Played:          p.Played,
		Won:             p.Won,
		Lost:            p.Lost,
	}
}

func importPlayer(s PlayerState) (*Player, error) {
	hand, err := cards.FromNumbers(s.Hand)
	if err != nil {
		return nil, fmt.Errorf("hand of %s: %w", s.Name, err)
	}
	stitches, err := cards.FromNumbers(s.Stitches)
	if err != nil {
		return nil, fmt.Errorf("stitches of %s: %w", s.Name, err)
	}
	return &Player{
		Name:            s.Name,
		Position:        s.Position,
		Hand:            hand,
		Stitches:        stitches,
		BidStatus:       s.BidStatus,
		Game:            s.Game,
		Score:           s.Score,
		TournamentScore: s.TournamentScore,
		Played:          s.Played,
		Won:             s.Won,
		Lost:            s.Lost,
	}, nil
}

func nameOf(p *Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// GetInternalState snapshots every field of the table.
func (t *SkatTable) GetInternalState() *TableState {
	s := &TableState{
		Players:          make([]PlayerState, 0, len(t.players)),
		Skat:             cards.Numbers(t.skat),
		Stitch:           cards.Numbers(t.stitch),
		StitchPlayers:    make([]string, 0, len(t.stitchPlayers)),
		LastStitch:       cards.Numbers(t.lastStitch),
		GamePlayer:       nameOf(t.gamePlayer),
		CurrentPlayer:    nameOf(t.currentPlayer),
		GameStarted:      t.gameStarted,
		GameEnded:        t.gameEnded,
		SkatTaken:        t.skatTaken,
		BidValues:        append([]int(nil), t.bidValues...),
		BidValueIndex:    t.bidValueIndex,
		BidSaid:          t.bidSaid,
		GameValue:        t.gameValue,
		Matadors:         t.matadorsJackStraight,
		SpeedUpRequested: t.speedUpRequested,
		Round:            t.round,
	}
	s.CurrentHistory, s.Result = cloneLog(t.currentHistory, t.skatResult)
	for _, p := range t.players {
		s.Players = append(s.Players, exportPlayer(p))
	}
	if t.inactivePlayer != nil {
		inactive := exportPlayer(t.inactivePlayer)
		s.Inactive = &inactive
	}
	for _, p := range t.stitchPlayers {
		s.StitchPlayers = append(s.StitchPlayers, p.Name)
	}
	return s
}

// NewSkatTableFromState rebuilds a table from a snapshot taken with GetInternalState.
func NewSkatTableFromState(s *TableState, opts ...Option) (*SkatTable, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if len(s.Players) != minPlayers {
		return nil, fmt.Errorf("%w: need %d active players, got %d", ErrInvalidState, minPlayers, len(s.Players))
	}

	t := newTable(opts)
	for _, ps := range s.Players {
		p, err := importPlayer(ps)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		t.players = append(t.players, p)
	}
	if s.Inactive != nil {
		p, err := importPlayer(*s.Inactive)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		t.inactivePlayer = p
	}

	var err error
	if t.skat, err = cards.FromNumbers(s.Skat); err != nil {
		return nil, fmt.Errorf("%w: skat: %v", ErrInvalidState, err)
	}
	if t.stitch, err = cards.FromNumbers(s.Stitch); err != nil {
		return nil, fmt.Errorf("%w: stitch: %v", ErrInvalidState, err)
	}
	if t.lastStitch, err = cards.FromNumbers(s.LastStitch); err != nil {
		return nil, fmt.Errorf("%w: last stitch: %v", ErrInvalidState, err)
	}
	if len(s.StitchPlayers) != len(s.Stitch) {
		return nil, fmt.Errorf("%w: %d stitch players for %d cards", ErrInvalidState, len(s.StitchPlayers), len(s.Stitch))
	}
	for _, name := range s.StitchPlayers {
		p, err := t.player(name)
		if err != nil {
			return nil, fmt.Errorf("%w: stitch: %v", ErrInvalidState, err)
		}
		t.stitchPlayers = append(t.stitchPlayers, p)
	}
	if t.gamePlayer, err = t.optionalPlayer(s.GamePlayer); err != nil {
		return nil, err
	}
	if t.currentPlayer, err = t.optionalPlayer(s.CurrentPlayer); err != nil {
		return nil, err
	}

	if len(s.BidValues) > 0 {
		t.bidValues = append([]int(nil), s.BidValues...)
	}
	if s.BidValueIndex < -1 || s.BidValueIndex >= len(t.bidValues) {
		return nil, fmt.Errorf("%w: bid index %d", ErrInvalidState, s.BidValueIndex)
	}
	t.bidValueIndex = s.BidValueIndex
	t.bidSaid = s.BidSaid
	t.gameStarted = s.GameStarted
	t.gameEnded = s.GameEnded
	t.skatTaken = s.SkatTaken
	t.gameValue = s.GameValue
	t.matadorsJackStraight = s.Matadors
	t.speedUpRequested = s.SpeedUpRequested
	t.round = s.Round

	t.currentHistory, t.skatResult = cloneLog(s.CurrentHistory, s.Result)
	if t.currentHistory == nil {
		t.currentHistory = newGameHistory(t.round, t.players, t.skat)
	}
	if t.skatResult == nil {
		names := make([]string, 0, maxPlayers)
		for _, p := range t.players {
			names = append(names, p.Name)
		}
		if t.inactivePlayer != nil {
			names = append(names, t.inactivePlayer.Name)
		}
		t.skatResult = NewSkatResult(names)
	}

	if err := t.checkDeck(); err != nil {
		return nil, err
	}
	return t, nil
}

// Restore replaces the table with a snapshot. The logger and the randomness source stay.
func (t *SkatTable) Restore(s *TableState) error {
	restored, err := NewSkatTableFromState(s, WithLogger(t.logger), WithRandom(t.random))
	if err != nil {
		return err
	}
	*t = *restored
	return nil
}

func (t *SkatTable) optionalPlayer(name string) (*Player, error) {
	if name == "" {
		return nil, nil
	}
	p, err := t.player(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return p, nil
}

// checkDeck verifies that no card is held twice. A complete partition is only required while
// cards are in play; an all-pass round has cleared everything.
func (t *SkatTable) checkDeck() error {
	seen := make(map[cards.Card]bool, cards.DeckSize)
	piles := [][]cards.Card{t.skat, t.stitch}
	for _, p := range t.players {
		piles = append(piles, p.Hand, p.Stitches)
	}
	total := 0
	for _, pile := range piles {
		for _, c := range pile {
			if seen[c] {
				return fmt.Errorf("%w: card %s appears twice", ErrInvalidState, c)
			}
			seen[c] = true
			total++
		}
	}
	if total != 0 && total != cards.DeckSize {
		return fmt.Errorf("%w: %d cards on the table", ErrInvalidState, total)
	}
	return nil
}
