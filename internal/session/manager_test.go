package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skatclub/skat-server-go/internal/game"
	"github.com/skatclub/skat-server-go/internal/game/cards"
)

type recordingSink struct {
	mu     sync.Mutex
	rounds []int
	tables []string
	err    error
}

func (r *recordingSink) SaveRound(_ context.Context, tableID string, h *game.GameHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, h.Round)
	r.tables = append(r.tables, tableID)
	return r.err
}

func seeded() []game.Option {
	return []game.Option{game.WithRandom(cards.NewSeededSource(7))}
}

func passAll(t *testing.T, table *game.SkatTable) {
	t.Helper()
	for _, p := range []string{"B", "C", "A"} {
		require.NoError(t, table.PerformPlayerAction(p, game.ActionPassBid))
	}
}

func TestCreateTable(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t), WithMaxTables(1), WithTableOptions(seeded))

	_, err := m.CreateTable([]string{"A", "B"})
	assert.Error(t, err)

	id, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []string{id}, m.TableIDs())

	_, err = m.CreateTable([]string{"D", "E", "F"})
	assert.ErrorIs(t, err, ErrTooManyTables)

	s, ok := m.GetSession(id)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, s.Players)
}

func TestDoUnknownTable(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t))
	err := m.Do(context.Background(), "nope", func(*game.SkatTable) error { return nil })
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestDoSerialisesCalls(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t))
	id, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Do(context.Background(), id, func(*game.SkatTable) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestDoReturnsEngineError(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t))
	id, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)

	err = m.Do(context.Background(), id, func(table *game.SkatTable) error {
		return table.PerformPlayerAction("A", game.ActionBid)
	})
	assert.ErrorIs(t, err, game.ErrActionNotAllowed)
}

func TestDoRollsBackDivergedTable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewManager(time.Minute, zap.New(core), WithTableOptions(seeded))
	id, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)
	ctx := context.Background()

	var before string
	require.NoError(t, m.Do(ctx, id, func(table *game.SkatTable) error {
		sum, err := table.GetInternalState().Checksum()
		require.NoError(t, err)
		before = sum.Hash
		return nil
	}))
	assert.Zero(t, logs.Len(), "successful calls are not checked")

	// engine errors leave the table untouched, no rollback needed
	err = m.Do(ctx, id, func(table *game.SkatTable) error {
		return table.PerformPlayerAction("A", game.ActionBid)
	})
	require.ErrorIs(t, err, game.ErrActionNotAllowed)
	assert.Zero(t, logs.Len())

	abort := errors.New("abort")
	err = m.Do(ctx, id, func(table *game.SkatTable) error {
		require.NoError(t, table.PerformPlayerAction("B", game.ActionBid))
		return abort
	})
	require.ErrorIs(t, err, abort)
	assert.Equal(t, 1, logs.FilterMessage("table diverged on a failed call; rolled back").Len())

	require.NoError(t, m.Do(ctx, id, func(table *game.SkatTable) error {
		assert.False(t, table.BidSaid())
		assert.Zero(t, table.CurrentBidValue())
		sum, err := table.GetInternalState().Checksum()
		require.NoError(t, err)
		assert.Equal(t, before, sum.Hash)
		return table.PerformPlayerAction("B", game.ActionBid)
	}))
}

func TestFinishedRoundsReachSinksOnce(t *testing.T) {
	first := &recordingSink{}
	failing := &recordingSink{err: errors.New("db down")}
	m := NewManager(time.Minute, zaptest.NewLogger(t), WithResultSink(first), WithResultSink(failing))
	id, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Do(ctx, id, func(table *game.SkatTable) error {
		passAll(t, table)
		return nil
	}))
	assert.Equal(t, []int{1}, first.rounds)
	assert.Equal(t, []string{id}, first.tables)
	assert.Equal(t, []int{1}, failing.rounds, "sink errors do not stop delivery")

	// no new round: nothing delivered
	require.NoError(t, m.Do(ctx, id, func(table *game.SkatTable) error { return table.StartNewRound() }))
	assert.Equal(t, []int{1}, first.rounds)

	require.NoError(t, m.Do(ctx, id, func(table *game.SkatTable) error {
		for _, p := range []string{"C", "A", "B"} {
			if err := table.PerformPlayerAction(p, game.ActionPassBid); err != nil {
				return err
			}
		}
		return nil
	}))
	assert.Equal(t, []int{1, 2}, first.rounds)
}

func TestExpireIdleArchivesTables(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(time.Minute, zaptest.NewLogger(t), WithReplayDir(dir))
	ctx := context.Background()

	played, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)
	idle, err := m.CreateTable([]string{"D", "E", "F"})
	require.NoError(t, err)

	require.NoError(t, m.Do(ctx, played, func(table *game.SkatTable) error {
		passAll(t, table)
		return nil
	}))

	assert.Equal(t, 0, m.ExpireIdle(time.Now()))
	assert.Equal(t, 2, m.ExpireIdle(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, m.Count())

	_, err = os.Stat(filepath.Join(dir, played+".skat"))
	assert.NoError(t, err, "played table archived")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "empty table not archived")

	err = m.Do(ctx, idle, func(*game.SkatTable) error { return nil })
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCloseTableAndCloseAll(t *testing.T) {
	m := NewManager(time.Minute, zaptest.NewLogger(t))
	a, err := m.CreateTable([]string{"A", "B", "C"})
	require.NoError(t, err)
	_, err = m.CreateTable([]string{"D", "E", "F", "G"})
	require.NoError(t, err)

	require.NoError(t, m.CloseTable(a))
	assert.ErrorIs(t, m.CloseTable(a), ErrTableNotFound)
	assert.Equal(t, 1, m.Count())

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}

func TestCleanupExpiredSessionsStopsOnCancel(t *testing.T) {
	m := NewManager(time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.CleanupExpiredSessions(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
