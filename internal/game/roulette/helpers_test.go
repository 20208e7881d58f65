package roulette

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"telegram-roulette-bot/internal/game"
)

var (
	alice = game.Actor{ID: 1, Name: "alice"}
	bob   = game.Actor{ID: 2, Name: "bob"}
	carol = game.Actor{ID: 3, Name: "carol"}
	dave  = game.Actor{ID: 4, Name: "dave"}
)

// memLedger is an in-memory game.Ledger.
type memLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	credited int64
	debited  int64
	audits   []string
}

func newMemLedger(balances map[int64]int64) *memLedger {
	b := make(map[int64]int64, len(balances))
	for k, v := range balances {
		b[k] = v
	}
	return &memLedger{balances: b}
}

func (l *memLedger) Debit(ctx context.Context, actorID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[actorID] < amount {
		return game.ErrInsufficientFunds
	}
	l.balances[actorID] -= amount
	l.debited += amount
	return nil
}

func (l *memLedger) Credit(ctx context.Context, actorID, amount int64, txType, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[actorID] += amount
	l.credited += amount
	return nil
}

func (l *memLedger) RecordTransaction(ctx context.Context, fromID, toID int64, subject string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.audits = append(l.audits, subject)
}

func (l *memLedger) balance(id int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

type promptCall struct {
	ctx      context.Context
	actor    game.Actor
	question string
	options  []game.Option
}

// scriptedPrompter answers with the first option unless answer says otherwise.
type scriptedPrompter struct {
	mu     sync.Mutex
	calls  []promptCall
	answer func(call promptCall) (game.Option, bool, error)
}

func (p *scriptedPrompter) Ask(ctx context.Context, chatID int64, actor game.Actor, question string, options []game.Option, timeout time.Duration) (game.Option, bool, error) {
	call := promptCall{ctx: ctx, actor: actor, question: question, options: options}
	p.mu.Lock()
	p.calls = append(p.calls, call)
	answer := p.answer
	p.mu.Unlock()

	if answer != nil {
		return answer(call)
	}
	return options[0], true, nil
}

func (p *scriptedPrompter) callsFor(actorID int64) []promptCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []promptCall
	for _, c := range p.calls {
		if c.actor.ID == actorID {
			out = append(out, c)
		}
	}
	return out
}

type recAnnouncer struct {
	mu        sync.Mutex
	announced []string
	whispers  map[int64][]string
	// whisperErr fails every whisper when set.
	whisperErr error
}

func (a *recAnnouncer) Announce(ctx context.Context, chatID int64, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, text)
	return nil
}

func (a *recAnnouncer) Whisper(ctx context.Context, actor game.Actor, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.whisperErr != nil {
		return a.whisperErr
	}
	if a.whispers == nil {
		a.whispers = make(map[int64][]string)
	}
	a.whispers[actor.ID] = append(a.whispers[actor.ID], text)
	return nil
}

func (a *recAnnouncer) texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.announced...)
}

type recStats struct {
	mu      sync.Mutex
	results []game.PlayerResult
}

func (r *recStats) RecordResults(ctx context.Context, kind string, results []game.PlayerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
	return nil
}

// scriptedRandom replays queued values and never shuffles, so a fresh
// cylinder holds its empty chambers first and its loaded ones last.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

func (r *scriptedRandom) Shuffle(n int, swap func(i, j int)) {}

type fixture struct {
	session   *Session
	registry  *game.SessionRegistry
	ledger    *memLedger
	prompter  *scriptedPrompter
	announcer *recAnnouncer
	stats     *recStats
	rng       *scriptedRandom
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LobbyDuration = time.Minute
	cfg.TurnDelay = 0
	return cfg
}

func newFixture(t *testing.T, variant Variant, fee int64, cfg Config, players ...game.Actor) *fixture {
	t.Helper()

	f := &fixture{
		registry:  game.NewSessionRegistry(),
		ledger:    newMemLedger(map[int64]int64{1: 1000, 2: 1000, 3: 1000, 4: 1000, 5: 1000}),
		prompter:  &scriptedPrompter{},
		announcer: &recAnnouncer{},
		stats:     &recStats{},
		rng:       &scriptedRandom{},
	}
	deps := Deps{
		Registry:  f.registry,
		Ledger:    f.ledger,
		Prompter:  f.prompter,
		Announcer: f.announcer,
		Stats:     f.stats,
		Random:    f.rng,
	}

	host := alice
	if len(players) > 0 {
		host = players[0]
	}
	f.session = newSession(100, host, variant, fee, cfg, deps)
	require.NoError(t, f.registry.Register(f.session))
	for _, p := range players {
		require.NoError(t, f.session.Join(context.Background(), p))
	}
	return f
}

func (f *fixture) participant(id int64) *Participant {
	return f.session.byID[id]
}

// forceChamber replaces the remaining tokens of a running session.
func (f *fixture) forceChamber(tokens ...bool) {
	f.session.chamber.tokens = append([]bool(nil), tokens...)
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		f.session.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("session did not terminate")
	}
}
