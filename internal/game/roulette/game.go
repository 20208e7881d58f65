package roulette

import (
	"context"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
)

// Game opens roulette sessions and runs each one in its own goroutine.
type Game struct {
	cfg  Config
	deps Deps
}

// NewGame creates a roulette game with the given tuning and collaborators.
func NewGame(cfg Config, deps Deps) *Game {
	if deps.Runner == nil {
		deps.Runner = game.NewRunner()
	}
	return &Game{
		cfg:  cfg.normalize(),
		deps: deps,
	}
}

// Config returns the effective tuning.
func (g *Game) Config() Config {
	return g.cfg
}

// Open creates a session in chatID, seats the host and starts the lobby.
// The session runs on the runner's context, not on ctx.
func (g *Game) Open(ctx context.Context, chatID int64, host game.Actor, variant Variant, fee int64) (*Session, error) {
	if fee < 0 {
		return nil, ErrInvalidAmount
	}
	if g.cfg.MaxEntryFee > 0 && fee > g.cfg.MaxEntryFee {
		return nil, ErrEntryTooHigh
	}
	if g.deps.Runner.Closed() {
		return nil, game.ErrShuttingDown
	}
	if g.deps.Registry.IsActorBusy(host.ID) {
		return nil, game.ErrActorBusy
	}

	s := newSession(chatID, host, variant, fee, g.cfg, g.deps)
	if err := g.deps.Registry.Register(s); err != nil {
		return nil, err
	}
	if err := s.Join(ctx, host); err != nil {
		g.deps.Registry.Unregister(chatID)
		return nil, err
	}

	log.Info().
		Str("session_id", s.ID()).
		Int64("chat_id", chatID).
		Int64("host_id", host.ID).
		Str("variant", variant.String()).
		Int64("fee", fee).
		Msg("Roulette lobby opened")

	g.deps.Runner.Go(s.Run)
	return s, nil
}
