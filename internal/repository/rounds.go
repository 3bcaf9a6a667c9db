package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/skatclub/skat-server-go/internal/game"
)

// Execer is the part of the pool the round repository needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS skat_rounds (
	table_id    TEXT        NOT NULL,
	round       INTEGER     NOT NULL,
	declarer    TEXT        NOT NULL DEFAULT '',
	game        TEXT        NOT NULL DEFAULT '',
	bid_value   INTEGER     NOT NULL DEFAULT 0,
	score       INTEGER     NOT NULL DEFAULT 0,
	won         BOOLEAN     NOT NULL DEFAULT FALSE,
	all_passed  BOOLEAN     NOT NULL DEFAULT FALSE,
	history     JSONB       NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (table_id, round)
)`

const insertRoundSQL = `
INSERT INTO skat_rounds
	(table_id, round, declarer, game, bid_value, score, won, all_passed, history, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (table_id, round) DO NOTHING`

// RoundRepository persists finished Skat rounds.
type RoundRepository struct {
	db     Execer
	logger *zap.Logger
}

// NewRoundRepository creates a repository on top of the pool (or any Execer).
func NewRoundRepository(db Execer, logger *zap.Logger) *RoundRepository {
	return &RoundRepository{db: db, logger: logger}
}

// EnsureSchema creates the rounds table if it does not exist.
func (r *RoundRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRound stores one round. Saving the same round twice is a no-op.
func (r *RoundRepository) SaveRound(ctx context.Context, tableID string, h *game.GameHistory) error {
	if h == nil {
		return fmt.Errorf("round is nil")
	}
	history, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	gameName := ""
	if !h.AllPassed {
		gameName = h.Game.String()
	}
	tag, err := r.db.Exec(ctx, insertRoundSQL,
		tableID,
		h.Round,
		h.GamePlayer,
		gameName,
		h.BidValue,
		h.GameValue.Score,
		h.GameValue.IsWinner,
		h.AllPassed,
		history,
		h.StartedAt,
		h.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round %d of table %s: %w", h.Round, tableID, err)
	}

	r.logger.Debug("round saved",
		zap.String("table_id", tableID),
		zap.Int("round", h.Round),
		zap.Int64("rows", tag.RowsAffected()),
	)
	return nil
}
