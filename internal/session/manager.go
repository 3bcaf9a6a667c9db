package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game"
)

var (
	// ErrTableNotFound is returned for unknown or closed table ids.
	ErrTableNotFound = errors.New("table not found")
	// ErrTooManyTables is returned when the table limit is reached.
	ErrTooManyTables = errors.New("too many tables")
)

// ResultSink receives every finished round exactly once, in the order of play.
type ResultSink interface {
	SaveRound(ctx context.Context, tableID string, h *game.GameHistory) error
}

// Session is one table and the bookkeeping around it. The table is only reachable through
// Manager.Do, which holds the session lock.
type Session struct {
	ID        string
	Players   []string
	CreatedAt time.Time

	mu           sync.Mutex
	table        *game.SkatTable
	lastActivity time.Time
	reported     int
	closed       bool
}

// LastActivity returns when the table was last used.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxTables limits the number of open tables. Zero means no limit.
func WithMaxTables(n int) ManagerOption {
	return func(m *Manager) { m.maxTables = n }
}

// WithResultSink adds a receiver for finished rounds.
func WithResultSink(sink ResultSink) ManagerOption {
	return func(m *Manager) { m.sinks = append(m.sinks, sink) }
}

// WithTableOptions sets a factory for the engine options of every new table. It is called
// once per table so sources of randomness are not shared.
func WithTableOptions(fn func() []game.Option) ManagerOption {
	return func(m *Manager) { m.tableOptions = fn }
}

// WithReplayDir archives the round log of every closed table into dir.
func WithReplayDir(dir string) ManagerOption {
	return func(m *Manager) { m.replayDir = dir }
}

// Manager owns all open tables and serialises the calls into each of them.
type Manager struct {
	sessions     map[string]*Session
	mu           sync.RWMutex
	leasePeriod  time.Duration
	maxTables    int
	sinks        []ResultSink
	tableOptions func() []game.Option
	replayDir    string
	logger       *zap.Logger
}

// NewManager creates a session manager. Tables idle for longer than leasePeriod are closed
// by CleanupExpiredSessions.
func NewManager(leasePeriod time.Duration, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		leasePeriod: leasePeriod,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateTable opens a table for three or four players and returns its id, which is also the
// id of the table's round log.
func (m *Manager) CreateTable(names []string) (string, error) {
	opts := []game.Option{game.WithLogger(m.logger)}
	if m.tableOptions != nil {
		opts = append(opts, m.tableOptions()...)
	}
	table, err := game.NewSkatTable(names, opts...)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxTables > 0 && len(m.sessions) >= m.maxTables {
		return "", fmt.Errorf("%w: limit %d", ErrTooManyTables, m.maxTables)
	}

	now := time.Now()
	s := &Session{
		ID:           table.SkatResult().ID,
		Players:      append([]string(nil), names...),
		CreatedAt:    now,
		table:        table,
		lastActivity: now,
	}
	m.sessions[s.ID] = s

	m.logger.Info("table created",
		zap.String("table_id", s.ID),
		zap.Strings("players", names),
	)
	return s.ID, nil
}

// Do runs fn with exclusive access to the table. A table that fn changed before failing is
// rolled back to its checkpoint. Rounds finished by fn are handed to the result sinks before
// Do returns; sink failures are logged and do not fail the call.
func (m *Manager) Do(ctx context.Context, tableID string, fn func(*game.SkatTable) error) error {
	s, ok := m.GetSession(tableID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	cp, err := takeCheckpoint(s.table)
	if err != nil {
		return fmt.Errorf("failed to checkpoint table %s: %w", tableID, err)
	}
	err = fn(s.table)
	if err != nil {
		m.rollback(s, cp)
	}
	s.lastActivity = time.Now()
	m.publish(ctx, s)
	return err
}

// checkpoint is the encoded table state before an engine call.
type checkpoint struct {
	data []byte
	sum  *game.StateChecksum
}

func takeCheckpoint(t *game.SkatTable) (checkpoint, error) {
	state := t.GetInternalState()
	sum, err := state.Checksum()
	if err != nil {
		return checkpoint{}, err
	}
	data, err := state.SerializeToBytes()
	if err != nil {
		return checkpoint{}, err
	}
	return checkpoint{data: data, sum: sum}, nil
}

// rollback restores the checkpoint when the table no longer matches it.
func (m *Manager) rollback(s *Session, cp checkpoint) {
	same, err := s.table.GetInternalState().VerifyChecksum(cp.sum)
	if err == nil && same {
		return
	}
	state, err := game.DeserializeState(cp.data)
	if err == nil {
		err = s.table.Restore(state)
	}
	if err != nil {
		m.logger.Error("failed to roll back table",
			zap.String("table_id", s.ID),
			zap.Error(err),
		)
		return
	}
	m.logger.Warn("table diverged on a failed call; rolled back",
		zap.String("table_id", s.ID),
		zap.String("checksum", cp.sum.Hash),
	)
}

func (m *Manager) publish(ctx context.Context, s *Session) {
	histories := s.table.SkatResult().Histories
	for ; s.reported < len(histories); s.reported++ {
		h := histories[s.reported]
		for _, sink := range m.sinks {
			if err := sink.SaveRound(ctx, s.ID, h); err != nil {
				m.logger.Warn("failed to save round",
					zap.String("table_id", s.ID),
					zap.Int("round", h.Round),
					zap.Error(err),
				)
			}
		}
	}
}

// GetSession retrieves a session by table id
func (m *Manager) GetSession(tableID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[tableID]
	return s, ok
}

// Count returns the number of open tables.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// TableIDs returns the ids of all open tables.
func (m *Manager) TableIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CloseTable removes a table and archives its round log.
func (m *Manager) CloseTable(tableID string) error {
	m.mu.Lock()
	s, ok := m.sessions[tableID]
	delete(m.sessions, tableID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	m.close(s, "closed")
	return nil
}

func (m *Manager) close(s *Session, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	result := s.table.SkatResult()
	if m.replayDir != "" && result.Size() > 0 {
		if err := result.SaveToFile(m.replayDir); err != nil {
			m.logger.Error("failed to archive table",
				zap.String("table_id", s.ID),
				zap.Error(err),
			)
		}
	}

	m.logger.Info("table closed",
		zap.String("table_id", s.ID),
		zap.String("reason", reason),
		zap.Int("rounds", result.Size()),
	)
}

// ExpireIdle closes every table idle since before now minus the lease period and returns
// how many were closed.
func (m *Manager) ExpireIdle(now time.Time) int {
	deadline := now.Add(-m.leasePeriod)

	m.mu.Lock()
	expired := make([]*Session, 0)
	for id, s := range m.sessions {
		if s.LastActivity().Before(deadline) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.close(s, "expired")
	}
	return len(expired)
}

// CleanupExpiredSessions periodically closes idle tables until ctx is cancelled.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.leasePeriod / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.ExpireIdle(now); n > 0 {
				m.logger.Info("expired idle tables", zap.Int("count", n))
			}
		}
	}
}

// CloseAll closes every open table.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		m.close(s, "shutdown")
	}
}
