package tournament

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game"
)

// TournamentState represents the state of a tournament
type TournamentState int

const (
	TournamentStateWaiting TournamentState = iota
	TournamentStateInProgress
	TournamentStateFinished
)

func (s TournamentState) String() string {
	switch s {
	case TournamentStateWaiting:
		return "WAITING"
	case TournamentStateInProgress:
		return "IN_PROGRESS"
	case TournamentStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Player represents a tournament participant
type Player struct {
	Name   string
	Points int // tournament list points
	Score  int // sum of declared game scores
	Games  int
	Won    int
	Lost   int
	Quit   bool
}

// Round is one finished Skat round booked into the list.
type Round struct {
	Number    int
	TableID   string
	Declarer  string
	Game      string
	Score     int
	Won       bool
	AllPassed bool
	Deltas    map[string]int
	Finished  time.Time
}

// PlayerSnapshot captures tournament player data for external use.
type PlayerSnapshot struct {
	Name   string
	Points int
	Score  int
	Games  int
	Won    int
	Lost   int
	Quit   bool
}

// RoundSnapshot captures round data for external use.
type RoundSnapshot struct {
	Number    int
	TableID   string
	Declarer  string
	Game      string
	Score     int
	Won       bool
	AllPassed bool
	Deltas    map[string]int
	Finished  time.Time
}

// TournamentSnapshot captures a consistent view of a tournament.
type TournamentSnapshot struct {
	ID         string
	Name       string
	State      TournamentState
	Players    []PlayerSnapshot
	Rounds     []RoundSnapshot
	Tables     []string
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
}

// Tournament is a Seeger-Fabian list across any number of tables.
type Tournament struct {
	ID          string
	Name        string
	State       TournamentState
	Players     map[string]*Player
	PlayerOrder []string // Maintains insertion order
	Rounds      []*Round
	Tables      map[string]bool
	CreateTime  time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	mu          sync.RWMutex
}

// NewTournament creates a new tournament
func NewTournament(name string) *Tournament {
	return &Tournament{
		ID:          uuid.New().String(),
		Name:        name,
		State:       TournamentStateWaiting,
		Players:     make(map[string]*Player),
		PlayerOrder: make([]string, 0),
		Rounds:      make([]*Round, 0),
		Tables:      make(map[string]bool),
		CreateTime:  time.Now(),
	}
}

// AddPlayer adds a player to the tournament
func (t *Tournament) AddPlayer(playerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State == TournamentStateFinished {
		return fmt.Errorf("tournament already finished")
	}
	if playerName == "" {
		return fmt.Errorf("player name is empty")
	}
	if _, exists := t.Players[playerName]; exists {
		return fmt.Errorf("player already joined")
	}
	t.addPlayerLocked(playerName)
	return nil
}

func (t *Tournament) addPlayerLocked(playerName string) *Player {
	player := &Player{Name: playerName}
	t.Players[playerName] = player
	t.PlayerOrder = append(t.PlayerOrder, playerName)
	return player
}

// RemovePlayer removes a player from the tournament
func (t *Tournament) RemovePlayer(playerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateWaiting {
		return fmt.Errorf("tournament already started")
	}

	if _, exists := t.Players[playerName]; !exists {
		return fmt.Errorf("player not found")
	}

	delete(t.Players, playerName)

	for i, name := range t.PlayerOrder {
		if name == playerName {
			t.PlayerOrder = append(t.PlayerOrder[:i], t.PlayerOrder[i+1:]...)
			break
		}
	}

	return nil
}

// GetPlayerCount returns the number of players
func (t *Tournament) GetPlayerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Players)
}

// QuitPlayer marks a player as having quit an active tournament.
func (t *Tournament) QuitPlayer(playerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	player, exists := t.Players[playerName]
	if !exists {
		return fmt.Errorf("player not found")
	}

	player.Quit = true
	return nil
}

// GetState returns the current tournament state
func (t *Tournament) GetState() TournamentState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// Start opens the list for round results.
func (t *Tournament) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateWaiting {
		return fmt.Errorf("tournament already started")
	}

	now := time.Now()
	t.StartTime = &now
	t.State = TournamentStateInProgress
	return nil
}

// Finish closes the list. Later results are rejected.
func (t *Tournament) Finish() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateInProgress {
		return fmt.Errorf("tournament not in progress")
	}

	now := time.Now()
	t.EndTime = &now
	t.State = TournamentStateFinished
	return nil
}

// RecordRound books a finished round of a table. Players seen for the first time join the
// list, so tables may be opened while the tournament runs.
func (t *Tournament) RecordRound(tableID string, h *game.GameHistory) error {
	if h == nil {
		return fmt.Errorf("round is nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateInProgress {
		return fmt.Errorf("tournament not in progress")
	}

	for _, name := range h.Players {
		if _, ok := t.Players[name]; !ok {
			t.addPlayerLocked(name)
		}
	}
	t.Tables[tableID] = true

	round := &Round{
		Number:    len(t.Rounds) + 1,
		TableID:   tableID,
		AllPassed: h.AllPassed,
		Finished:  h.FinishedAt,
		Deltas:    map[string]int{},
	}
	if !h.AllPassed && h.GamePlayer != "" {
		v := h.GameValue
		round.Declarer = h.GamePlayer
		round.Game = h.Game.String()
		round.Score = v.Score
		round.Won = v.IsWinner
		round.Deltas = game.TournamentDeltas(h.GamePlayer, h.Players, v)

		declarer := t.Players[h.GamePlayer]
		declarer.Score += v.Score
		declarer.Games++
		if v.IsWinner {
			declarer.Won++
		} else {
			declarer.Lost++
		}
		for name, delta := range round.Deltas {
			t.Players[name].Points += delta
		}
	}
	t.Rounds = append(t.Rounds, round)
	return nil
}

// Standings returns the players ordered by list points, best first. Ties keep join order.
func (t *Tournament) Standings() []PlayerSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	players := t.playerSnapshotsLocked()
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Points > players[j].Points
	})
	return players
}

func (t *Tournament) playerSnapshotsLocked() []PlayerSnapshot {
	players := make([]PlayerSnapshot, 0, len(t.PlayerOrder))
	for _, name := range t.PlayerOrder {
		if player, ok := t.Players[name]; ok {
			players = append(players, PlayerSnapshot{
				Name:   player.Name,
				Points: player.Points,
				Score:  player.Score,
				Games:  player.Games,
				Won:    player.Won,
				Lost:   player.Lost,
				Quit:   player.Quit,
			})
		}
	}
	return players
}

// Snapshot returns a consistent copy of the tournament state.
func (t *Tournament) Snapshot() TournamentSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rounds := make([]RoundSnapshot, 0, len(t.Rounds))
	for _, r := range t.Rounds {
		deltas := make(map[string]int, len(r.Deltas))
		for name, d := range r.Deltas {
			deltas[name] = d
		}
		rounds = append(rounds, RoundSnapshot{
			Number:    r.Number,
			TableID:   r.TableID,
			Declarer:  r.Declarer,
			Game:      r.Game,
			Score:     r.Score,
			Won:       r.Won,
			AllPassed: r.AllPassed,
			Deltas:    deltas,
			Finished:  r.Finished,
		})
	}

	tables := make([]string, 0, len(t.Tables))
	for id := range t.Tables {
		tables = append(tables, id)
	}
	sort.Strings(tables)

	return TournamentSnapshot{
		ID:         t.ID,
		Name:       t.Name,
		State:      t.State,
		Players:    t.playerSnapshotsLocked(),
		Rounds:     rounds,
		Tables:     tables,
		CreateTime: t.CreateTime,
		StartTime:  cloneTime(t.StartTime),
		EndTime:    cloneTime(t.EndTime),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager manages tournaments
type Manager struct {
	tournaments map[string]*Tournament
	tables      map[string]string // table id -> tournament id
	defaultID   string
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewManager creates a new tournament manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		tournaments: make(map[string]*Tournament),
		tables:      make(map[string]string),
		logger:      logger,
	}
}

// CreateTournament creates a new tournament
func (m *Manager) CreateTournament(name string) *Tournament {
	m.mu.Lock()
	defer m.mu.Unlock()

	tournament := NewTournament(name)
	m.tournaments[tournament.ID] = tournament

	m.logger.Info("tournament created",
		zap.String("tournament_id", tournament.ID),
		zap.String("name", name),
	)

	return tournament
}

// GetTournament retrieves a tournament by ID
func (m *Manager) GetTournament(tournamentID string) (*Tournament, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tournament, ok := m.tournaments[tournamentID]
	return tournament, ok
}

// RemoveTournament removes a tournament and forgets its table assignments.
func (m *Manager) RemoveTournament(tournamentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tournaments, tournamentID)
	for table, id := range m.tables {
		if id == tournamentID {
			delete(m.tables, table)
		}
	}
	if m.defaultID == tournamentID {
		m.defaultID = ""
	}

	m.logger.Info("tournament removed", zap.String("tournament_id", tournamentID))
}

// GetAllTournaments returns all tournaments
func (m *Manager) GetAllTournaments() []*Tournament {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tournaments := make([]*Tournament, 0, len(m.tournaments))
	for _, tournament := range m.tournaments {
		tournaments = append(tournaments, tournament)
	}
	return tournaments
}

// GetActiveTournamentCount returns the count of active tournaments
func (m *Manager) GetActiveTournamentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, tournament := range m.tournaments {
		if tournament.GetState() != TournamentStateFinished {
			count++
		}
	}
	return count
}

// SetDefault makes the tournament receive rounds of tables without an explicit assignment.
func (m *Manager) SetDefault(tournamentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tournaments[tournamentID]; !ok {
		return fmt.Errorf("tournament not found")
	}
	m.defaultID = tournamentID
	return nil
}

// Default returns the tournament receiving rounds of unassigned tables.
func (m *Manager) Default() (*Tournament, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tournament, ok := m.tournaments[m.defaultID]
	return tournament, ok
}

// AssignTable routes the rounds of a table to a tournament.
func (m *Manager) AssignTable(tournamentID, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tournaments[tournamentID]; !ok {
		return fmt.Errorf("tournament not found")
	}
	m.tables[tableID] = tournamentID
	return nil
}

// SaveRound books a finished round into the tournament the table belongs to. Rounds of
// tables without a tournament are ignored.
func (m *Manager) SaveRound(_ context.Context, tableID string, h *game.GameHistory) error {
	m.mu.RLock()
	id, ok := m.tables[tableID]
	if !ok {
		id = m.defaultID
	}
	tournament := m.tournaments[id]
	m.mu.RUnlock()

	if tournament == nil {
		return nil
	}
	if err := tournament.RecordRound(tableID, h); err != nil {
		return fmt.Errorf("tournament %s: %w", id, err)
	}

	m.logger.Debug("round booked",
		zap.String("tournament_id", id),
		zap.String("table_id", tableID),
		zap.Int("round", h.Round),
	)
	return nil
}
