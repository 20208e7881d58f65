package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-roulette-bot/internal/model"
)

// StatDelta is one player's contribution from a finished game.
type StatDelta struct {
	UserID         int64
	Won            bool
	ShotsFired     int
	RoundsSurvived int
}

// StatsRepository handles per-game player counters.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Apply adds the deltas of one finished game in a single transaction.
func (r *StatsRepository) Apply(ctx context.Context, game string, deltas []StatDelta) error {
	const query = `
		INSERT INTO game_stats (user_id, game, played, wins, shots_fired, rounds_survived, updated_at)
		VALUES ($1, $2, 1, $3, $4, $5, NOW())
		ON CONFLICT (user_id, game) DO UPDATE SET
			played = game_stats.played + 1,
			wins = game_stats.wins + EXCLUDED.wins,
			shots_fired = game_stats.shots_fired + EXCLUDED.shots_fired,
			rounds_survived = game_stats.rounds_survived + EXCLUDED.rounds_survived,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, d := range deltas {
		wins := 0
		if d.Won {
			wins = 1
		}
		batch.Queue(query, d.UserID, game, wins, d.ShotsFired, d.RoundsSurvived)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to apply stats: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}
	return nil
}

// Get returns a user's counters for game.
// Returns ErrUserNotFound if the user never played it.
func (r *StatsRepository) Get(ctx context.Context, userID int64, game string) (*model.GameStat, error) {
	const query = `
		SELECT s.user_id, u.username, s.game, s.played, s.wins, s.shots_fired, s.rounds_survived, s.updated_at
		FROM game_stats s
		JOIN users u ON s.user_id = u.telegram_id
		WHERE s.user_id = $1 AND s.game = $2
	`

	var stat model.GameStat
	err := r.pool.QueryRow(ctx, query, userID, game).Scan(
		&stat.UserID,
		&stat.Username,
		&stat.Game,
		&stat.Played,
		&stat.Wins,
		&stat.ShotsFired,
		&stat.RoundsSurvived,
		&stat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stat, nil
}

// Top returns the leaderboard for game ordered by wins, then by games played
// with fewer games ranking higher.
func (r *StatsRepository) Top(ctx context.Context, game string, limit int) ([]*model.GameStat, error) {
	const query = `
		SELECT s.user_id, u.username, s.game, s.played, s.wins, s.shots_fired, s.rounds_survived, s.updated_at
		FROM game_stats s
		JOIN users u ON s.user_id = u.telegram_id
		WHERE s.game = $1
		ORDER BY s.wins DESC, s.played ASC, s.user_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, game, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []*model.GameStat
	for rows.Next() {
		var stat model.GameStat
		if err := rows.Scan(
			&stat.UserID,
			&stat.Username,
			&stat.Game,
			&stat.Played,
			&stat.Wins,
			&stat.ShotsFired,
			&stat.RoundsSurvived,
			&stat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return stats, nil
}
