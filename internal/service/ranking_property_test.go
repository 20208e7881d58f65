package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// memStats mirrors StatsRepository: upsert counters, rank by wins then by
// fewer games played.
type memStats struct {
	mu    sync.Mutex
	stats map[string]map[int64]*model.GameStat
}

func newMemStats() *memStats {
	return &memStats{stats: make(map[string]map[int64]*model.GameStat)}
}

func (m *memStats) Apply(_ context.Context, gameName string, deltas []repository.StatDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := m.stats[gameName]
	if byUser == nil {
		byUser = make(map[int64]*model.GameStat)
		m.stats[gameName] = byUser
	}
	for _, d := range deltas {
		st := byUser[d.UserID]
		if st == nil {
			st = &model.GameStat{UserID: d.UserID, Game: gameName}
			byUser[d.UserID] = st
		}
		st.Played++
		if d.Won {
			st.Wins++
		}
		st.ShotsFired += int64(d.ShotsFired)
		st.RoundsSurvived += int64(d.RoundsSurvived)
	}
	return nil
}

func (m *memStats) Get(_ context.Context, userID int64, gameName string) (*model.GameStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats[gameName][userID]
	if st == nil {
		return nil, repository.ErrUserNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStats) Top(_ context.Context, gameName string, limit int) ([]*model.GameStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.GameStat
	for _, st := range m.stats[gameName] {
		cp := *st
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Wins != all[j].Wins {
			return all[i].Wins > all[j].Wins
		}
		if all[i].Played != all[j].Played {
			return all[i].Played < all[j].Played
		}
		return all[i].UserID < all[j].UserID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func TestRankingService_RecordAndLeaderboard(t *testing.T) {
	svc := NewRankingService(newMemStats())
	ctx := context.Background()
	alice := game.Actor{ID: 1, Name: "alice"}
	bob := game.Actor{ID: 2, Name: "bob"}

	require.NoError(t, svc.RecordResults(ctx, "roulette", []game.PlayerResult{
		{Actor: alice, Won: true, ShotsFired: 2, RoundsSurvived: 3},
		{Actor: bob, ShotsFired: 1, RoundsSurvived: 2},
		{Actor: bob, Won: true},
	}))
	require.NoError(t, svc.RecordResults(ctx, "roulette", nil))

	top, err := svc.Leaderboard(ctx, "roulette", 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(1), top[0].UserID)
	assert.Equal(t, int64(1), top[1].Wins)

	stat, err := svc.PlayerStats(ctx, 2, "roulette")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stat.Played)
	assert.Equal(t, int64(1), stat.ShotsFired)
	assert.Equal(t, int64(2), stat.RoundsSurvived)
	assert.Equal(t, float64(100), WinRate(stat))

	stat, err = svc.PlayerStats(ctx, 2, "siege")
	require.NoError(t, err)
	assert.Nil(t, stat)
}

func TestResultsToDeltas_MergesDuplicates(t *testing.T) {
	alice := game.Actor{ID: 1, Name: "alice"}
	bob := game.Actor{ID: 2, Name: "bob"}

	deltas := ResultsToDeltas([]game.PlayerResult{
		{Actor: bob, ShotsFired: 1, RoundsSurvived: 2},
		{Actor: alice, ShotsFired: 4},
		{Actor: bob, Won: true, ShotsFired: 2, RoundsSurvived: 1},
	})

	assert.Equal(t, []repository.StatDelta{
		{UserID: 2, Won: true, ShotsFired: 3, RoundsSurvived: 3},
		{UserID: 1, ShotsFired: 4},
	}, deltas)
}

// TestRecordResultsCountersProperty checks that after any sequence of games
// each player's played count equals the games they appeared in and wins
// never exceed it.
func TestRecordResultsCountersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := NewRankingService(newMemStats())
		games := rapid.IntRange(1, 15).Draw(t, "games")

		appeared := make(map[int64]int64)
		won := make(map[int64]int64)
		for g := 0; g < games; g++ {
			ids := rapid.SliceOfNDistinct(rapid.Int64Range(1, 8), 1, 6, rapid.ID[int64]).Draw(t, "ids")
			winner := rapid.IntRange(-1, len(ids)-1).Draw(t, "winner")
			var results []game.PlayerResult
			for i, id := range ids {
				results = append(results, game.PlayerResult{Actor: game.Actor{ID: id}, Won: i == winner})
				appeared[id]++
				if i == winner {
					won[id]++
				}
			}
			if err := svc.RecordResults(context.Background(), "roulette", results); err != nil {
				t.Fatal(err)
			}
		}

		top, err := svc.Leaderboard(context.Background(), "roulette", 100)
		if err != nil {
			t.Fatal(err)
		}
		if len(top) != len(appeared) {
			t.Fatalf("expected %d ranked players, got %d", len(appeared), len(top))
		}
		for i, st := range top {
			if st.Played != appeared[st.UserID] || st.Wins != won[st.UserID] {
				t.Fatalf("user %d: played %d/%d wins %d/%d", st.UserID, st.Played, appeared[st.UserID], st.Wins, won[st.UserID])
			}
			if i > 0 && top[i-1].Wins < st.Wins {
				t.Fatalf("leaderboard not ordered by wins at %d", i)
			}
		}
	})
}
