package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/game/contract"
)

// HandRecord is a dealt hand.
type HandRecord struct {
	Player   string       `json:"player"`
	Position Position     `json:"position"`
	Cards    []cards.Card `json:"cards"`
}

// PlayedCard is one card put on the table.
type PlayedCard struct {
	Player string     `json:"player"`
	Card   cards.Card `json:"card"`
}

// GameHistory records one round from the deal to the score.
type GameHistory struct {
	Round      int                `json:"round"`
	Players    []string           `json:"players"`
	Dealt      []HandRecord       `json:"dealt"`
	Skat       []cards.Card       `json:"skat"`
	GamePlayer string             `json:"game_player,omitempty"`
	Game       contract.Game      `json:"game"`
	BidValue   int                `json:"bid_value"`
	Matadors   contract.Matadors  `json:"matadors"`
	Discarded  []cards.Card       `json:"discarded,omitempty"`
	Played     []PlayedCard       `json:"played,omitempty"`
	GameValue  contract.Value     `json:"game_value"`
	AllPassed  bool               `json:"all_passed,omitempty"`
	GaveUp     bool               `json:"gave_up,omitempty"`
	SpeedUp    bool               `json:"speed_up,omitempty"`
	Tournament map[string]int     `json:"tournament,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

func newGameHistory(round int, players []*Player, skat []cards.Card) *GameHistory {
	h := &GameHistory{
		Round:     round,
		Players:   make([]string, 0, len(players)),
		Dealt:     make([]HandRecord, 0, len(players)),
		Skat:      append([]cards.Card(nil), skat...),
		StartedAt: time.Now().UTC(),
	}
	for _, p := range players {
		h.Players = append(h.Players, p.Name)
		h.Dealt = append(h.Dealt, HandRecord{
			Player:   p.Name,
			Position: p.Position,
			Cards:    append([]cards.Card(nil), p.Hand...),
		})
	}
	return h
}

// SkatResult accumulates the histories of every round played at a table.
type SkatResult struct {
	ID        string         `json:"id"`
	Players   []string       `json:"players"`
	CreatedAt time.Time      `json:"created_at"`
	Histories []*GameHistory `json:"histories"`
}

// NewSkatResult starts an empty log for the given participants.
func NewSkatResult(players []string) *SkatResult {
	return &SkatResult{
		ID:        uuid.New().String(),
		Players:   append([]string(nil), players...),
		CreatedAt: time.Now().UTC(),
		Histories: make([]*GameHistory, 0),
	}
}

// Append adds a finished round.
func (r *SkatResult) Append(h *GameHistory) {
	r.Histories = append(r.Histories, h)
}

// Size returns the number of finished rounds.
func (r *SkatResult) Size() int {
	return len(r.Histories)
}

// Last returns the most recent round or nil.
func (r *SkatResult) Last() *GameHistory {
	if len(r.Histories) == 0 {
		return nil
	}
	return r.Histories[len(r.Histories)-1]
}

// Clone returns a deep copy of the history.
func (h *GameHistory) Clone() *GameHistory {
	if h == nil {
		return nil
	}
	c := *h
	c.Players = append([]string(nil), h.Players...)
	c.Dealt = make([]HandRecord, len(h.Dealt))
	for i, d := range h.Dealt {
		d.Cards = append([]cards.Card(nil), d.Cards...)
		c.Dealt[i] = d
	}
	c.Skat = append([]cards.Card(nil), h.Skat...)
	c.Discarded = append([]cards.Card(nil), h.Discarded...)
	c.Played = append([]PlayedCard(nil), h.Played...)
	if h.Tournament != nil {
		c.Tournament = make(map[string]int, len(h.Tournament))
		for name, score := range h.Tournament {
			c.Tournament[name] = score
		}
	}
	return &c
}

// Clone returns a deep copy of the log.
func (r *SkatResult) Clone() *SkatResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = append([]string(nil), r.Players...)
	c.Histories = make([]*GameHistory, len(r.Histories))
	for i, h := range r.Histories {
		c.Histories[i] = h.Clone()
	}
	return &c
}

// cloneLog copies the current history and the log together. When the current history is the
// last finished round it stays shared with the copied log.
func cloneLog(current *GameHistory, result *SkatResult) (*GameHistory, *SkatResult) {
	resultCopy := result.Clone()
	if current != nil && result != nil && current == result.Last() {
		return resultCopy.Last(), resultCopy
	}
	return current.Clone(), resultCopy
}
