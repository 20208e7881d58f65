package siege

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-roulette-bot/internal/game"
)

type memLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	audits   []string
}

func (l *memLedger) Debit(ctx context.Context, actorID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[actorID] < amount {
		return game.ErrInsufficientFunds
	}
	l.balances[actorID] -= amount
	return nil
}

func (l *memLedger) Credit(ctx context.Context, actorID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[actorID] += amount
	return nil
}

func (l *memLedger) RecordTransaction(ctx context.Context, fromID, toID int64, subject string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.audits = append(l.audits, subject)
}

type recAnnouncer struct {
	mu        sync.Mutex
	announced []string
}

func (a *recAnnouncer) Announce(ctx context.Context, chatID int64, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, text)
	return nil
}

func (a *recAnnouncer) Whisper(ctx context.Context, actor game.Actor, text string) error {
	return nil
}

type recStats struct {
	mu      sync.Mutex
	kind    string
	results []game.PlayerResult
}

func (r *recStats) RecordResults(ctx context.Context, kind string, results []game.PlayerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kind = kind
	r.results = append(r.results, results...)
	return nil
}

type raidFixture struct {
	game      *Game
	registry  *game.SessionRegistry
	ledger    *memLedger
	announcer *recAnnouncer
	stats     *recStats
	runner    *game.Runner
}

func newRaidFixture(cfg Config) *raidFixture {
	f := &raidFixture{
		registry:  game.NewSessionRegistry(),
		ledger:    &memLedger{balances: map[int64]int64{}},
		announcer: &recAnnouncer{},
		stats:     &recStats{},
		runner:    game.NewRunner(),
	}
	f.game = NewGame(cfg, Deps{
		Registry:  f.registry,
		Ledger:    f.ledger,
		Announcer: f.announcer,
		Stats:     f.stats,
		Runner:    f.runner,
	})
	return f
}

func waitDone(t *testing.T, r *Raid) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("raid did not finish")
	}
}

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.LobbyDuration = time.Minute
	cfg.ExchangeDelay = 0
	return cfg
}

func TestRaid_AttackersSplitLoot(t *testing.T) {
	cfg := quickConfig()
	cfg.Loot = 101
	cfg.Attacker = AttackerStats{Damage: 50, HP: 100}
	cfg.Defenses = []Defense{{Name: "Gate", Category: "wall", HP: 100}}
	f := newRaidFixture(cfg)
	ctx := context.Background()

	r, err := f.game.Open(ctx, 100, alice)
	require.NoError(t, err)
	require.NoError(t, r.Join(ctx, bob))
	assert.ErrorIs(t, r.Start(ctx, bob), game.ErrNotHost)
	require.NoError(t, r.Start(ctx, alice))
	waitDone(t, r)

	res, ok := r.Result()
	require.True(t, ok)
	assert.True(t, res.AttackersWon)
	assert.Equal(t, 1, res.Turns)

	assert.Equal(t, int64(50), f.ledger.balances[alice.ID])
	assert.Equal(t, int64(50), f.ledger.balances[bob.ID])
	assert.Equal(t, []string{"siege_result"}, f.ledger.audits)

	assert.Equal(t, Kind, f.stats.kind)
	require.Len(t, f.stats.results, 2)
	for _, pr := range f.stats.results {
		assert.True(t, pr.Won)
		assert.Equal(t, 1, pr.RoundsSurvived)
	}

	assert.Zero(t, f.registry.Count())
	assert.False(t, f.registry.IsActorBusy(alice.ID))
	assert.False(t, f.registry.IsActorBusy(bob.ID))
}

func TestRaid_DefenseHoldsPaysNothing(t *testing.T) {
	cfg := quickConfig()
	cfg.Attacker = AttackerStats{Damage: 1, HP: 5}
	cfg.Defenses = []Defense{{Name: "Keep", Category: "keep", Damage: 10, HP: 1000}}
	f := newRaidFixture(cfg)
	ctx := context.Background()

	r, err := f.game.Open(ctx, 100, alice)
	require.NoError(t, err)
	require.NoError(t, r.Start(ctx, alice))
	waitDone(t, r)

	res, ok := r.Result()
	require.True(t, ok)
	assert.False(t, res.AttackersWon)
	assert.Zero(t, f.ledger.balances[alice.ID])
	require.Len(t, f.stats.results, 1)
	assert.False(t, f.stats.results[0].Won)
	assert.Zero(t, f.stats.results[0].RoundsSurvived)
}

func TestRaid_LobbyValidation(t *testing.T) {
	cfg := quickConfig()
	cfg.MinAttackers = 2
	cfg.MaxAttackers = 2
	f := newRaidFixture(cfg)
	ctx := context.Background()

	r, err := f.game.Open(ctx, 100, alice)
	require.NoError(t, err)

	_, err = f.game.Open(ctx, 100, carol)
	assert.ErrorIs(t, err, game.ErrChannelOccupied)
	_, err = f.game.Open(ctx, 200, alice)
	assert.ErrorIs(t, err, game.ErrActorBusy)

	assert.ErrorIs(t, r.Join(ctx, alice), game.ErrDuplicateJoin)
	assert.ErrorIs(t, r.Start(ctx, alice), game.ErrNotEnoughPlayers)
	require.NoError(t, r.Join(ctx, bob))
	assert.ErrorIs(t, r.Join(ctx, carol), game.ErrSessionFull)
	assert.ErrorIs(t, r.Quit(ctx, carol), game.ErrNotParticipant)

	// The host leaves and bob inherits the lobby.
	require.NoError(t, r.Quit(ctx, alice))
	assert.False(t, f.registry.IsActorBusy(alice.ID))
	assert.Equal(t, []game.Actor{bob}, r.Roster())
	assert.ErrorIs(t, r.Start(ctx, bob), game.ErrNotEnoughPlayers)

	// The last attacker leaving ends the lobby.
	require.NoError(t, r.Quit(ctx, bob))
	waitDone(t, r)

	_, ok := r.Result()
	assert.False(t, ok)
	assert.Zero(t, f.registry.Count())
	assert.Empty(t, f.ledger.audits)
}

func TestRaid_LobbyTimesOut(t *testing.T) {
	cfg := quickConfig()
	cfg.LobbyDuration = 20 * time.Millisecond
	cfg.MinAttackers = 2
	f := newRaidFixture(cfg)

	r, err := f.game.Open(context.Background(), 100, alice)
	require.NoError(t, err)
	waitDone(t, r)

	assert.ErrorIs(t, r.Join(context.Background(), bob), game.ErrAlreadyRunning)
	assert.Zero(t, f.registry.Count())
	assert.False(t, f.registry.IsActorBusy(alice.ID))

	f.announcer.mu.Lock()
	defer f.announcer.mu.Unlock()
	require.NotEmpty(t, f.announcer.announced)
	assert.Contains(t, f.announcer.announced[len(f.announcer.announced)-1], "siege")
}

func TestRaid_ShutdownClosesLobby(t *testing.T) {
	f := newRaidFixture(quickConfig())

	r, err := f.game.Open(context.Background(), 100, alice)
	require.NoError(t, err)
	require.NoError(t, r.Join(context.Background(), bob))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.runner.Shutdown(ctx))

	waitDone(t, r)
	_, ok := r.Result()
	assert.False(t, ok)
	assert.Zero(t, f.registry.Count())
	assert.False(t, f.registry.IsActorBusy(bob.ID))

	_, err = f.game.Open(context.Background(), 101, carol)
	assert.ErrorIs(t, err, game.ErrShuttingDown)

	f.announcer.mu.Lock()
	defer f.announcer.mu.Unlock()
	assert.Contains(t, f.announcer.announced[len(f.announcer.announced)-1], "restarting")
}
