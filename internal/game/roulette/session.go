package roulette

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
)

// Kind is the registry and stats key of roulette sessions.
const Kind = "roulette"

// Session errors.
var (
	ErrBettingClosed  = errors.New("betting is closed")
	ErrParticipantBet = errors.New("players cannot bet on their own game")
	ErrBettorJoin     = errors.New("you already bet on this game and cannot join it")
	ErrUnknownTarget  = errors.New("no player in that seat")
	ErrBetTooHigh     = errors.New("bet exceeds the table limit")
	ErrEntryTooHigh   = errors.New("entry fee exceeds the table limit")
	ErrGameOver       = errors.New("the game is already decided")
)

// State is a session lifecycle phase.
type State int

const (
	StateForming State = iota
	StateRosterLocked
	StateRunning
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateForming:
		return "forming"
	case StateRosterLocked:
		return "roster_locked"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome describes how a terminated session ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeWinner
	OutcomeNoWinner
	OutcomeAborted
	OutcomeStalled
	OutcomeFault
)

// Deps are the collaborators a session needs.
type Deps struct {
	Registry  *game.SessionRegistry
	Ledger    game.Ledger
	Prompter  game.Prompter
	Announcer game.Announcer
	// Stats is optional.
	Stats game.StatsRecorder
	// Random defaults to DefaultRandom.
	Random Random
	// Runner defaults to a private runner.
	Runner *game.Runner
}

// Session is one roulette game bound to a chat.
type Session struct {
	id      string
	chatID  int64
	variant Variant
	rules   Rules
	cfg     Config
	deps    Deps
	rng     Random
	wager   *WagerLedger

	mu           sync.Mutex
	host         game.Actor
	state        State
	outcome      Outcome
	participants []*Participant
	byID         map[int64]*Participant
	chamber      *Chamber
	lethality    int
	round        int
	silentNext   bool
	suddenDeath  bool
	eliminations int
	winner       *Participant
	turnCancel   context.CancelFunc
	// prompted is the shooter currently asked for a target.
	prompted *Participant

	startCh   chan struct{}
	startOnce sync.Once
	done      chan struct{}
}

func newSession(chatID int64, host game.Actor, variant Variant, fee int64, cfg Config, deps Deps) *Session {
	rng := deps.Random
	if rng == nil {
		rng = DefaultRandom
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		chatID:  chatID,
		variant: variant,
		rules:   variant.Rules(),
		cfg:     cfg.normalize(),
		deps:    deps,
		rng:     rng,
		wager:   NewWagerLedger(deps.Ledger, id, fee),
		host:    host,
		byID:    make(map[int64]*Participant),
		startCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// ChatID returns the chat the session is bound to.
func (s *Session) ChatID() int64 { return s.chatID }

// Kind returns the game kind.
func (s *Session) Kind() string { return Kind }

// Variant returns the rule set in play.
func (s *Session) Variant() Variant { return s.variant }

// Fee returns the entry fee.
func (s *Session) Fee() int64 { return s.wager.Fee() }

// Wager exposes the session's pot and bets.
func (s *Session) Wager() *WagerLedger { return s.wager }

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns how the session ended, or OutcomePending.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Winner returns the sole survivor of a finished session.
func (s *Session) Winner() (game.Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.winner == nil {
		return game.Actor{}, false
	}
	return s.winner.Actor, true
}

// Participants returns a snapshot of the roster in seat order.
func (s *Session) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		cp := *p
		cp.Inventory = make(map[ItemKind]int, len(p.Inventory))
		for k, v := range p.Inventory {
			cp.Inventory[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Join seats actor and collects the entry fee. Only valid while forming.
func (s *Session) Join(ctx context.Context, actor game.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateForming {
		return game.ErrAlreadyRunning
	}
	if _, ok := s.byID[actor.ID]; ok {
		return game.ErrDuplicateJoin
	}
	if len(s.participants) >= s.cfg.MaxPlayers {
		return game.ErrSessionFull
	}
	if s.wager.HasBet(actor.ID) {
		return ErrBettorJoin
	}
	if err := s.deps.Registry.MarkBusy(actor.ID, s.chatID); err != nil {
		return err
	}
	if err := s.wager.CollectEntry(ctx, actor); err != nil {
		s.deps.Registry.MarkFree(actor.ID, s.chatID)
		return err
	}

	p := newParticipant(actor, len(s.participants)+1)
	s.participants = append(s.participants, p)
	s.byID[actor.ID] = p

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("user_id", actor.ID).
		Int("seat", p.Seat).
		Msg("Player joined roulette")
	return nil
}

// Start closes the lobby early. Only the host may do it, and only once
// enough players have joined.
func (s *Session) Start(ctx context.Context, actor game.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateForming {
		return game.ErrAlreadyRunning
	}
	if actor.ID != s.host.ID {
		return game.ErrNotHost
	}
	if len(s.participants) < s.cfg.MinPlayers {
		return game.ErrNotEnoughPlayers
	}
	s.signalStart()
	return nil
}

func (s *Session) signalStart() {
	s.startOnce.Do(func() { close(s.startCh) })
}

// Quit removes actor from the game. In the lobby the entry fee is refunded
// and bets on the leaver are returned; once running it is a surrender,
// applied as an elimination before the actor's next turn.
func (s *Session) Quit(ctx context.Context, actor game.Actor) error {
	s.mu.Lock()

	p, ok := s.byID[actor.ID]
	if !ok {
		s.mu.Unlock()
		return game.ErrNotParticipant
	}

	switch s.state {
	case StateForming:
		if err := s.wager.RefundEntry(ctx, actor); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to refund entry: %w", err)
		}
		s.removeLocked(p)
		s.deps.Registry.MarkFree(actor.ID, s.chatID)
		if len(s.participants) == 0 {
			s.signalStart()
		} else if s.host.ID == actor.ID {
			s.host = s.participants[0].Actor
		}
		s.mu.Unlock()

		if _, err := s.wager.RefundBetsOn(ctx, actor.ID); err != nil {
			log.Error().Err(err).Str("session_id", s.id).Msg("Failed to refund bets on leaving player")
		}
		return nil

	case StateRunning:
		if !p.Alive {
			s.mu.Unlock()
			return game.ErrNotParticipant
		}
		if s.aliveCountLocked() <= 1 {
			s.mu.Unlock()
			return ErrGameOver
		}
		p.Surrendered = true
		s.eliminateLocked(p)
		s.deps.Registry.MarkFree(actor.ID, s.chatID)
		suddenDeath := s.maybeSuddenDeathLocked()
		if s.turnCancel != nil && (s.aliveCountLocked() <= 1 || s.prompted == p) {
			s.turnCancel()
		}
		s.mu.Unlock()

		s.announce(ctx, fmt.Sprintf("🏳️ %s surrenders and leaves the table.", actor.Name))
		if suddenDeath != "" {
			s.announce(ctx, suddenDeath)
		}
		return nil

	default:
		s.mu.Unlock()
		return game.ErrAlreadyRunning
	}
}

func (s *Session) removeLocked(p *Participant) {
	delete(s.byID, p.ID)
	for i, q := range s.participants {
		if q == p {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			break
		}
	}
	for i, q := range s.participants {
		q.Seat = i + 1
	}
}

// PlaceBet stakes amount on the participant in seat. Only spectators may
// bet, and only before the game starts running.
func (s *Session) PlaceBet(ctx context.Context, bettor game.Actor, amount int64, seat int) (game.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateForming && s.state != StateRosterLocked {
		return game.Actor{}, ErrBettingClosed
	}
	if _, ok := s.byID[bettor.ID]; ok {
		return game.Actor{}, ErrParticipantBet
	}
	if amount <= 0 {
		return game.Actor{}, ErrInvalidAmount
	}
	if s.cfg.MaxBet > 0 && amount > s.cfg.MaxBet {
		return game.Actor{}, ErrBetTooHigh
	}
	if seat < 1 || seat > len(s.participants) {
		return game.Actor{}, ErrUnknownTarget
	}

	target := s.participants[seat-1]
	if err := s.wager.PlaceBet(ctx, bettor, amount, target.ID); err != nil {
		return game.Actor{}, err
	}

	log.Info().
		Str("session_id", s.id).
		Int64("user_id", bettor.ID).
		Int64("target_id", target.ID).
		Int64("amount", amount).
		Msg("Spectator bet placed")
	return target.Actor, nil
}

// Run drives the session from lobby to teardown. It is meant to run in its
// own goroutine; any error or panic terminates the session without
// reversing payments already made.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown()
	defer func() {
		if r := recover(); r != nil {
			s.fault(ctx, fmt.Errorf("panic: %v", r))
		}
	}()

	if !s.awaitLobby(ctx) {
		return
	}
	s.lockRoster(ctx)
	if err := s.play(ctx); err != nil {
		if ctx.Err() != nil {
			s.shutdown(ctx)
			return
		}
		s.fault(ctx, err)
		return
	}
	s.finish(ctx)
}

// awaitLobby waits for the lobby deadline or an early start, then either
// locks the roster or aborts with full refunds.
func (s *Session) awaitLobby(ctx context.Context) bool {
	timer := time.NewTimer(s.cfg.LobbyDuration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.startCh:
	case <-ctx.Done():
	}

	s.mu.Lock()
	if len(s.participants) >= s.cfg.MinPlayers && ctx.Err() == nil {
		s.state = StateRosterLocked
		s.mu.Unlock()
		return true
	}
	s.state = StateTerminated
	s.outcome = OutcomeAborted
	s.mu.Unlock()

	shuttingDown := ctx.Err() != nil
	ctx = context.WithoutCancel(ctx)
	if _, err := s.wager.RefundAll(ctx); err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("Failed to refund aborted roulette")
	}
	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Bool("shutdown", shuttingDown).
		Msg("Roulette lobby aborted")
	if shuttingDown {
		s.announce(ctx, fmt.Sprintf("🔌 The bot is restarting, %s is cancelled. Entries and bets have been refunded.", s.variant))
	} else {
		s.announce(ctx, fmt.Sprintf("🚫 Not enough players for %s. Entries and bets have been refunded.", s.variant))
	}
	return false
}

// lockRoster deals roles, loads the cylinder and starts the game.
func (s *Session) lockRoster(ctx context.Context) {
	s.mu.Lock()
	if s.rules.Roles {
		dealRoles(s.participants, s.rng)
	}
	s.lethality = s.cfg.BaseLethality
	s.chamber = NewChamber(s.cfg.ChamberSize, s.lethality, s.rng)
	s.state = StateRunning

	var b strings.Builder
	fmt.Fprintf(&b, "🔫 %s begins!\n━━━━━━━━━━━━━━━\n", s.variant)
	type whisper struct {
		actor game.Actor
		text  string
	}
	var whispers []whisper
	for _, p := range s.participants {
		fmt.Fprintf(&b, "%d. %s\n", p.Seat, p.Name)
		if p.Role != nil {
			whispers = append(whispers, whisper{p.Actor, fmt.Sprintf("🎭 Your role: %s (%s)", p.Role.Label(), p.Role.Description)})
		}
	}
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n💰 Pot: %d | 🎲 Bets: %d\n🔫 %d of %d chambers loaded",
		s.wager.EntryPot(), s.wager.SpectatorPool(), s.lethality, s.cfg.ChamberSize)
	players := len(s.participants)
	s.mu.Unlock()

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int("players", players).
		Str("variant", s.variant.String()).
		Msg("Roulette started")

	s.announce(ctx, b.String())
	for _, w := range whispers {
		if err := s.deps.Announcer.Whisper(ctx, w.actor, w.text); err != nil {
			log.Warn().Err(err).Int64("user_id", w.actor.ID).Msg("Failed to whisper role")
		}
	}
}

// finish settles wagers, records stats and announces the result.
func (s *Session) finish(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	s.state = StateTerminated
	stalled := s.outcome == OutcomeStalled
	var alive []*Participant
	for _, p := range s.participants {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	if !stalled {
		if len(alive) == 1 {
			s.winner = alive[0]
			s.outcome = OutcomeWinner
		} else {
			s.outcome = OutcomeNoWinner
		}
	}
	winner := s.winner
	results := make([]game.PlayerResult, 0, len(s.participants))
	for _, p := range s.participants {
		results = append(results, p.result(p == winner))
	}
	rounds := s.round
	s.mu.Unlock()

	pot := s.wager.EntryPot()
	pool := s.wager.SpectatorPool()

	var payouts []Payout
	var err error
	if stalled {
		payouts, err = s.wager.RefundAll(ctx)
	} else {
		var w *game.Actor
		if winner != nil {
			w = &winner.Actor
		}
		payouts, err = s.wager.Settle(ctx, w)
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("Roulette settlement incomplete")
	}

	if s.deps.Stats != nil {
		if err := s.deps.Stats.RecordResults(ctx, Kind, results); err != nil {
			log.Error().Err(err).Str("session_id", s.id).Msg("Failed to record roulette stats")
		}
	}

	var winnerID int64
	if winner != nil {
		winnerID = winner.ID
	}
	s.deps.Ledger.RecordTransaction(ctx, 0, winnerID, "roulette_result", map[string]any{
		"session_id":     s.id,
		"chat_id":        s.chatID,
		"variant":        s.variant.String(),
		"rounds":         rounds,
		"entry_pot":      pot,
		"spectator_pool": pool,
		"stalled":        stalled,
		"payouts":        len(payouts),
	})

	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int64("winner_id", winnerID).
		Int("rounds", rounds).
		Bool("stalled", stalled).
		Msg("Roulette finished")

	s.announce(ctx, resultText(winner, stalled, rounds, payouts))
}

// shutdown ends a running game because the bot is stopping. Nobody lost
// the game, so every entry and stake is returned.
func (s *Session) shutdown(ctx context.Context) {
	s.mu.Lock()
	s.state = StateTerminated
	s.outcome = OutcomeAborted
	rounds := s.round
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if _, err := s.wager.RefundAll(ctx); err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("Failed to refund interrupted roulette")
	}
	log.Info().
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Int("round", rounds).
		Msg("Roulette interrupted by shutdown")
	s.announce(ctx, "🔌 The bot is restarting and the game is called off. Entries and bets have been refunded.")
}

func (s *Session) fault(ctx context.Context, err error) {
	s.mu.Lock()
	s.state = StateTerminated
	s.outcome = OutcomeFault
	s.mu.Unlock()

	log.Error().
		Err(err).
		Str("session_id", s.id).
		Int64("chat_id", s.chatID).
		Msg("Roulette session aborted")
	s.announce(context.WithoutCancel(ctx), "💥 Something went wrong and the game was abandoned. Payments already made are not reversed.")
}

// teardown frees the chat and every participant.
func (s *Session) teardown() {
	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()

	s.deps.Registry.Unregister(s.chatID)
	close(s.done)
}

func (s *Session) announce(ctx context.Context, text string) {
	if err := s.deps.Announcer.Announce(ctx, s.chatID, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", s.chatID).Msg("Failed to announce")
	}
}

func (s *Session) aliveCountLocked() int {
	n := 0
	for _, p := range s.participants {
		if p.Alive {
			n++
		}
	}
	return n
}

func (s *Session) aliveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aliveCountLocked()
}

func (s *Session) eliminateLocked(p *Participant) {
	if !p.Alive {
		return
	}
	p.Alive = false
	s.eliminations++
	p.EliminationOrder = s.eliminations
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
