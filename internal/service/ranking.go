package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// StatsStore persists per-game counters.
type StatsStore interface {
	Apply(ctx context.Context, game string, deltas []repository.StatDelta) error
	Get(ctx context.Context, userID int64, game string) (*model.GameStat, error)
	Top(ctx context.Context, game string, limit int) ([]*model.GameStat, error)
}

// RankingService records finished games and serves leaderboards.
// It implements game.StatsRecorder.
type RankingService struct {
	stats StatsStore
}

var _ game.StatsRecorder = (*RankingService)(nil)

// NewRankingService creates a new RankingService instance.
func NewRankingService(stats StatsStore) *RankingService {
	return &RankingService{stats: stats}
}

// RecordResults folds one game's terminal stat lines into the counters.
// A player listed twice still counts as one game played.
func (s *RankingService) RecordResults(ctx context.Context, gameName string, results []game.PlayerResult) error {
	deltas := ResultsToDeltas(results)
	if len(deltas) == 0 {
		return nil
	}
	if err := s.stats.Apply(ctx, gameName, deltas); err != nil {
		return fmt.Errorf("failed to record %s results: %w", gameName, err)
	}
	log.Debug().Str("game", gameName).Int("players", len(deltas)).Msg("Game results recorded")
	return nil
}

// Leaderboard returns the top players of a game.
func (s *RankingService) Leaderboard(ctx context.Context, gameName string, limit int) ([]*model.GameStat, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.stats.Top(ctx, gameName, limit)
}

// PlayerStats returns a player's counters for a game, or nil if they never
// played it.
func (s *RankingService) PlayerStats(ctx context.Context, userID int64, gameName string) (*model.GameStat, error) {
	stat, err := s.stats.Get(ctx, userID, gameName)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	return stat, err
}

// ResultsToDeltas converts stat lines to repository deltas, one per actor.
// Lines for the same actor are merged: counters add up and any winning
// line makes it a win.
func ResultsToDeltas(results []game.PlayerResult) []repository.StatDelta {
	index := make(map[int64]int, len(results))
	deltas := make([]repository.StatDelta, 0, len(results))
	for _, r := range results {
		if i, ok := index[r.Actor.ID]; ok {
			deltas[i].Won = deltas[i].Won || r.Won
			deltas[i].ShotsFired += r.ShotsFired
			deltas[i].RoundsSurvived += r.RoundsSurvived
			continue
		}
		index[r.Actor.ID] = len(deltas)
		deltas = append(deltas, repository.StatDelta{
			UserID:         r.Actor.ID,
			Won:            r.Won,
			ShotsFired:     r.ShotsFired,
			RoundsSurvived: r.RoundsSurvived,
		})
	}
	return deltas
}

// WinRate returns wins per game played as a percentage.
func WinRate(stat *model.GameStat) float64 {
	if stat == nil || stat.Played == 0 {
		return 0
	}
	return float64(stat.Wins) * 100 / float64(stat.Played)
}
