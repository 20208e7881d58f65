package siege

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
)

// Kind is the registry and stats key of siege raids.
const Kind = "siege"

// AttackerStats are the base stats every raider starts with.
type AttackerStats struct {
	Damage  int `mapstructure:"damage"`
	Defense int `mapstructure:"defense"`
	HP      int `mapstructure:"hp"`
}

// Config holds raid tuning.
type Config struct {
	LobbyDuration time.Duration
	MinAttackers  int
	MaxAttackers  int
	ExchangeDelay time.Duration
	MaxTurns      int
	Loot          int64
	City          string
	Attacker      AttackerStats
	Defenses      []Defense
}

// DefaultConfig returns the stock raid on the default city.
func DefaultConfig() Config {
	return Config{
		LobbyDuration: 60 * time.Second,
		MinAttackers:  1,
		MaxAttackers:  8,
		ExchangeDelay: 2 * time.Second,
		MaxTurns:      DefaultMaxTurns,
		Loot:          600,
		City:          "Ironhold",
		Attacker:      AttackerStats{Damage: 12, Defense: 3, HP: 60},
		Defenses: []Defense{
			{Name: "Main Gate", Category: "wall", Damage: 0, HP: 150},
			{Name: "Archer Tower", Category: "tower", Damage: 8, HP: 60},
			{Name: "Cannon Battery", Category: "artillery", Damage: 14, HP: 80},
			{Name: "Garrison", Category: "troops", Damage: 6, HP: 100},
		},
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.LobbyDuration <= 0 {
		c.LobbyDuration = d.LobbyDuration
	}
	if c.MinAttackers < 1 {
		c.MinAttackers = d.MinAttackers
	}
	if c.MaxAttackers < c.MinAttackers {
		c.MaxAttackers = c.MinAttackers
	}
	if c.ExchangeDelay < 0 {
		c.ExchangeDelay = 0
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.Loot < 0 {
		c.Loot = 0
	}
	if c.City == "" {
		c.City = d.City
	}
	if c.Attacker.HP <= 0 {
		c.Attacker = d.Attacker
	}
	if len(c.Defenses) == 0 {
		c.Defenses = d.Defenses
	}
	return c
}

// Deps are the collaborators a raid needs.
type Deps struct {
	Registry  *game.SessionRegistry
	Ledger    game.Ledger
	Announcer game.Announcer
	// Stats is optional.
	Stats game.StatsRecorder
	// Runner defaults to a private runner.
	Runner *game.Runner
}

// Raid is one siege lobby and battle bound to a chat.
type Raid struct {
	id     string
	chatID int64
	cfg    Config
	deps   Deps

	mu      sync.Mutex
	host    game.Actor
	forming bool
	roster  []game.Actor
	result  *Result

	startCh   chan struct{}
	startOnce sync.Once
	done      chan struct{}
}

func newRaid(chatID int64, host game.Actor, cfg Config, deps Deps) *Raid {
	return &Raid{
		id:      uuid.NewString(),
		chatID:  chatID,
		cfg:     cfg.normalize(),
		deps:    deps,
		host:    host,
		forming: true,
		startCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the raid's unique identifier.
func (r *Raid) ID() string { return r.id }

// ChatID returns the chat the raid is bound to.
func (r *Raid) ChatID() int64 { return r.chatID }

// Kind returns the game kind.
func (r *Raid) Kind() string { return Kind }

// Done is closed once the raid has been torn down.
func (r *Raid) Done() <-chan struct{} { return r.done }

// Result returns the battle outcome once the raid has fought.
func (r *Raid) Result() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return Result{}, false
	}
	return *r.result, true
}

// Roster returns the attackers in join order.
func (r *Raid) Roster() []game.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]game.Actor(nil), r.roster...)
}

// Join enlists actor as an attacker. Only valid while forming.
func (r *Raid) Join(ctx context.Context, actor game.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.forming {
		return game.ErrAlreadyRunning
	}
	for _, a := range r.roster {
		if a.ID == actor.ID {
			return game.ErrDuplicateJoin
		}
	}
	if len(r.roster) >= r.cfg.MaxAttackers {
		return game.ErrSessionFull
	}
	if err := r.deps.Registry.MarkBusy(actor.ID, r.chatID); err != nil {
		return err
	}
	r.roster = append(r.roster, actor)

	log.Info().
		Str("session_id", r.id).
		Int64("chat_id", r.chatID).
		Int64("user_id", actor.ID).
		Msg("Attacker joined siege")
	return nil
}

// Quit withdraws actor from the lobby. The battle itself cannot be left.
func (r *Raid) Quit(ctx context.Context, actor game.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, a := range r.roster {
		if a.ID == actor.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return game.ErrNotParticipant
	}
	if !r.forming {
		return game.ErrAlreadyRunning
	}

	r.roster = append(r.roster[:idx], r.roster[idx+1:]...)
	r.deps.Registry.MarkFree(actor.ID, r.chatID)
	if len(r.roster) == 0 {
		r.signalStart()
	} else if r.host.ID == actor.ID {
		r.host = r.roster[0]
	}
	return nil
}

// Start marches out early. Only the host may do it.
func (r *Raid) Start(ctx context.Context, actor game.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.forming {
		return game.ErrAlreadyRunning
	}
	if actor.ID != r.host.ID {
		return game.ErrNotHost
	}
	if len(r.roster) < r.cfg.MinAttackers {
		return game.ErrNotEnoughPlayers
	}
	r.signalStart()
	return nil
}

func (r *Raid) signalStart() {
	r.startOnce.Do(func() { close(r.startCh) })
}

// Run drives the raid from lobby to teardown in the calling goroutine.
func (r *Raid) Run(ctx context.Context) {
	defer r.teardown()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("session_id", r.id).
				Int64("chat_id", r.chatID).
				Msg("Siege aborted")
			r.announce(context.WithoutCancel(ctx), "💥 Something went wrong and the siege was called off.")
		}
	}()

	roster, ok := r.awaitLobby(ctx)
	if !ok {
		return
	}

	attackers := make([]Attacker, len(roster))
	for i, a := range roster {
		attackers[i] = Attacker{
			Actor:   a,
			Damage:  r.cfg.Attacker.Damage,
			Defense: r.cfg.Attacker.Defense,
			HP:      r.cfg.Attacker.HP,
		}
	}
	defenses := append([]Defense(nil), r.cfg.Defenses...)

	r.announce(ctx, r.musterText(roster))

	res, err := Resolve(ctx, attackers, defenses, ResolveOptions{
		Delay:    r.cfg.ExchangeDelay,
		MaxTurns: r.cfg.MaxTurns,
		OnExchange: func(ex Exchange) {
			r.announce(ctx, exchangeText(ex))
		},
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", r.id).Msg("Siege interrupted")
		r.announce(context.WithoutCancel(ctx), "💥 The siege was interrupted. No loot was handed out.")
		return
	}

	r.mu.Lock()
	r.result = &res
	r.mu.Unlock()

	r.settle(ctx, roster, res)
}

func (r *Raid) awaitLobby(ctx context.Context) ([]game.Actor, bool) {
	timer := time.NewTimer(r.cfg.LobbyDuration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.startCh:
	case <-ctx.Done():
	}

	r.mu.Lock()
	r.forming = false
	roster := append([]game.Actor(nil), r.roster...)
	r.mu.Unlock()

	if ctx.Err() != nil {
		log.Info().Str("session_id", r.id).Int64("chat_id", r.chatID).Msg("Siege lobby closed by shutdown")
		r.announce(context.WithoutCancel(ctx), fmt.Sprintf("🔌 The bot is restarting. The siege of %s is off.", r.cfg.City))
		return nil, false
	}
	if len(roster) < r.cfg.MinAttackers {
		log.Info().Str("session_id", r.id).Int64("chat_id", r.chatID).Msg("Siege lobby aborted")
		r.announce(ctx, fmt.Sprintf("🚫 Nobody answered the call. The siege of %s is off.", r.cfg.City))
		return nil, false
	}
	return roster, true
}

// settle splits the loot among surviving attackers and records stats.
func (r *Raid) settle(ctx context.Context, roster []game.Actor, res Result) {
	ctx = context.WithoutCancel(ctx)
	var share int64
	if res.AttackersWon && len(res.Survivors) > 0 {
		share = r.cfg.Loot / int64(len(res.Survivors))
	}
	if share > 0 {
		desc := fmt.Sprintf("siege loot %s", r.id)
		for _, a := range res.Survivors {
			if err := r.deps.Ledger.Credit(ctx, a.ID, share, model.TxTypeSiegeLoot, desc); err != nil {
				log.Error().Err(err).Int64("user_id", a.ID).Str("session_id", r.id).Msg("Failed to credit siege loot")
			}
		}
	}

	survived := make(map[int64]bool, len(res.Survivors))
	for _, a := range res.Survivors {
		survived[a.ID] = true
	}
	if r.deps.Stats != nil {
		results := make([]game.PlayerResult, 0, len(roster))
		for _, a := range roster {
			pr := game.PlayerResult{Actor: a, Won: res.AttackersWon}
			if survived[a.ID] {
				pr.RoundsSurvived = res.Turns
			}
			results = append(results, pr)
		}
		if err := r.deps.Stats.RecordResults(ctx, Kind, results); err != nil {
			log.Error().Err(err).Str("session_id", r.id).Msg("Failed to record siege stats")
		}
	}

	r.deps.Ledger.RecordTransaction(ctx, 0, 0, "siege_result", map[string]any{
		"session_id":    r.id,
		"chat_id":       r.chatID,
		"city":          r.cfg.City,
		"attackers":     len(roster),
		"survivors":     len(res.Survivors),
		"attackers_won": res.AttackersWon,
		"stalemate":     res.Stalemate,
		"turns":         res.Turns,
		"loot_share":    share,
	})

	log.Info().
		Str("session_id", r.id).
		Int64("chat_id", r.chatID).
		Bool("attackers_won", res.AttackersWon).
		Int("turns", res.Turns).
		Msg("Siege finished")

	r.announce(ctx, r.resultText(res, share))
}

func (r *Raid) teardown() {
	r.mu.Lock()
	r.forming = false
	r.mu.Unlock()

	r.deps.Registry.Unregister(r.chatID)
	close(r.done)
}

func (r *Raid) announce(ctx context.Context, text string) {
	if err := r.deps.Announcer.Announce(ctx, r.chatID, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", r.chatID).Msg("Failed to announce")
	}
}

func (r *Raid) musterText(roster []game.Actor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %d raiders march on %s!\n━━━━━━━━━━━━━━━\n", len(roster), r.cfg.City)
	for _, d := range r.cfg.Defenses {
		fmt.Fprintf(&b, "🏰 %s (%s) ❤️ %d ⚔️ %d\n", d.Name, d.Category, d.HP, d.Damage)
	}
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n💰 Loot: %d", r.cfg.Loot)
	return b.String()
}

func exchangeText(ex Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔄 Turn %d\n⚔️ Raiders deal %d to %s", ex.Turn, ex.AttackDamage, ex.Target)
	if ex.Destroyed {
		b.WriteString(" 💥 destroyed!")
		if ex.NextTarget != "" {
			fmt.Fprintf(&b, " Next up: %s.", ex.NextTarget)
		}
	} else {
		fmt.Fprintf(&b, " (❤️ %d left)", ex.TargetHP)
	}
	if ex.CounterTarget != nil {
		fmt.Fprintf(&b, "\n🏹 Defenses hit %s for %d", ex.CounterTarget.Name, ex.CounterDamage)
		if ex.Blocked > 0 {
			fmt.Fprintf(&b, " (🛡 %d blocked)", ex.Blocked)
		}
		if ex.Fallen {
			b.WriteString(" ☠️ fallen!")
		} else {
			fmt.Fprintf(&b, " (❤️ %d left)", ex.CounterHP)
		}
	}
	return b.String()
}

func (r *Raid) resultText(res Result, share int64) string {
	var b strings.Builder
	switch {
	case res.AttackersWon:
		fmt.Fprintf(&b, "🏆 %s has fallen after %d turns!\n", r.cfg.City, res.Turns)
		for _, a := range res.Survivors {
			fmt.Fprintf(&b, "💰 %s +%d\n", a.Name, share)
		}
	case res.Stalemate:
		fmt.Fprintf(&b, "⏳ The siege of %s drags on for %d turns and the raiders withdraw.\n", r.cfg.City, res.Turns)
	default:
		fmt.Fprintf(&b, "🛡 %s holds! All raiders have fallen after %d turns.\n", r.cfg.City, res.Turns)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Game opens raids and runs each one in its own goroutine.
type Game struct {
	cfg  Config
	deps Deps
}

// NewGame creates a siege game.
func NewGame(cfg Config, deps Deps) *Game {
	if deps.Runner == nil {
		deps.Runner = game.NewRunner()
	}
	return &Game{cfg: cfg.normalize(), deps: deps}
}

// Config returns the effective tuning.
func (g *Game) Config() Config {
	return g.cfg
}

// Open creates a raid in chatID with host as its first attacker.
func (g *Game) Open(ctx context.Context, chatID int64, host game.Actor) (*Raid, error) {
	if g.deps.Runner.Closed() {
		return nil, game.ErrShuttingDown
	}
	if g.deps.Registry.IsActorBusy(host.ID) {
		return nil, game.ErrActorBusy
	}

	r := newRaid(chatID, host, g.cfg, g.deps)
	if err := g.deps.Registry.Register(r); err != nil {
		return nil, err
	}
	if err := r.Join(ctx, host); err != nil {
		g.deps.Registry.Unregister(chatID)
		return nil, err
	}

	log.Info().
		Str("session_id", r.ID()).
		Int64("chat_id", chatID).
		Int64("host_id", host.ID).
		Msg("Siege lobby opened")

	g.deps.Runner.Go(r.Run)
	return r, nil
}
