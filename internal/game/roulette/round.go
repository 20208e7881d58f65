package roulette

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
)

const keepTarget = "keep"

// Protection names what absorbed a lethal outcome.
type Protection string

const (
	ProtectionNone  Protection = ""
	ProtectionRole  Protection = "role"
	ProtectionVest  Protection = "vest"
	ProtectionExtra Protection = "life"
)

// Shot is the resolution of one trigger pull.
type Shot struct {
	Shooter        *Participant
	Target         *Participant
	OriginalTarget *Participant
	Redirected     bool
	// Void is set when the target was gone by the time the shot resolved.
	Void        bool
	Lethality   int
	BonusLoaded int
	InstantKill bool
	Lethal      bool
	// VestFailed is set when a vest was consumed without absorbing the shot.
	VestFailed  bool
	Absorbed    Protection
	Eliminated  bool
	Lifesteal   bool
	SuddenDeath string
}

// Turn is one participant's turn within a round.
type Turn struct {
	Shooter *Participant
	// ShooterAlive is read under the session lock when the turn ends.
	ShooterAlive bool
	Answered     bool
	Shot         *Shot
}

// play runs rounds until at most one participant is alive or the table
// goes idle for too long.
func (s *Session) play(ctx context.Context) error {
	idle := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		if s.aliveCountLocked() <= 1 {
			s.mu.Unlock()
			return nil
		}
		s.round++
		round := s.round
		silent := s.silentNext
		s.silentNext = false
		s.mu.Unlock()

		header := fmt.Sprintf("🔄 Round %d", round)
		if silent {
			header += " 🤫 silent round, results at the end"
		}
		s.announce(ctx, header)

		answered, err := s.runRound(ctx, silent)
		if err != nil {
			return err
		}
		if s.aliveCount() <= 1 {
			return nil
		}

		if answered == 0 {
			idle++
			if idle >= s.cfg.MaxIdleRounds {
				s.mu.Lock()
				s.outcome = OutcomeStalled
				s.mu.Unlock()
				log.Info().Str("session_id", s.id).Int("round", round).Msg("Roulette stalled")
				return nil
			}
		} else {
			idle = 0
		}

		if s.rules.Events {
			s.applyRandomEvent(ctx)
		}
	}
}

// runRound gives every participant alive at round start one turn, in seat
// order. It returns how many prompts were answered.
func (s *Session) runRound(ctx context.Context, silent bool) (int, error) {
	s.mu.Lock()
	order := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if p.Alive {
			order = append(order, p)
		}
	}
	s.mu.Unlock()

	answered := 0
	var deferred []string
	for _, p := range order {
		s.mu.Lock()
		skip := !p.Alive || s.aliveCountLocked() < 2
		s.mu.Unlock()
		if skip {
			continue
		}

		turn, err := s.takeTurn(ctx, p)
		if err != nil {
			return answered, err
		}
		if turn.Answered {
			answered++
		}

		text := turn.narrate()
		if silent && turn.Shot != nil {
			deferred = append(deferred, text)
			s.announce(ctx, fmt.Sprintf("🤫 %s pulled the trigger...", p.Name))
		} else if text != "" {
			s.announce(ctx, text)
		}

		if err := sleep(ctx, s.cfg.TurnDelay); err != nil {
			return answered, err
		}
	}

	if len(deferred) > 0 {
		s.announce(ctx, "🤫 Silent round results:\n"+strings.Join(deferred, "\n"))
	}
	return answered, nil
}

// takeTurn prompts the shooter for a target and resolves the shot. No
// answer is a pass that counts as a survived round and leaves the cylinder
// untouched.
func (s *Session) takeTurn(ctx context.Context, shooter *Participant) (turn *Turn, err error) {
	s.mu.Lock()
	options := s.targetOptionsLocked(shooter)
	turnCtx, cancel := context.WithCancel(ctx)
	s.turnCancel = cancel
	s.prompted = shooter
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.turnCancel = nil
		s.prompted = nil
		if turn != nil {
			turn.ShooterAlive = shooter.Alive
		}
		s.mu.Unlock()
		cancel()
	}()

	question := fmt.Sprintf("🔫 %s, pick your target (%ds)", shooter.Name, int(s.cfg.TargetTimeout.Seconds()))
	choice, ok, err := s.deps.Prompter.Ask(turnCtx, s.chatID, shooter.Actor, question, options, s.cfg.TargetTimeout)
	if err != nil {
		if ctx.Err() == nil && turnCtx.Err() != nil {
			return &Turn{Shooter: shooter}, nil
		}
		return nil, fmt.Errorf("failed to prompt for target: %w", err)
	}

	s.mu.Lock()
	s.prompted = nil
	if !shooter.Alive {
		s.mu.Unlock()
		return &Turn{Shooter: shooter}, nil
	}
	if !ok {
		shooter.RoundsSurvived++
		s.mu.Unlock()
		return &Turn{Shooter: shooter}, nil
	}
	target := s.participantByKeyLocked(choice.Key)
	s.mu.Unlock()

	if target == nil || target == shooter {
		return &Turn{Shooter: shooter, Answered: true}, nil
	}

	shot, err := s.resolveShot(turnCtx, shooter, target)
	if err != nil {
		if ctx.Err() == nil && turnCtx.Err() != nil {
			return &Turn{Shooter: shooter, Answered: true}, nil
		}
		return nil, err
	}
	return &Turn{Shooter: shooter, Answered: true, Shot: shot}, nil
}

func (s *Session) targetOptionsLocked(exclude *Participant) []game.Option {
	options := make([]game.Option, 0, len(s.participants))
	for _, p := range s.participants {
		if p.Alive && p != exclude {
			options = append(options, game.Option{
				Key:   strconv.FormatInt(p.ID, 10),
				Label: fmt.Sprintf("%d. %s", p.Seat, p.Name),
			})
		}
	}
	return options
}

func (s *Session) participantByKeyLocked(key string) *Participant {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return nil
	}
	p := s.byID[id]
	if p == nil || !p.Alive {
		return nil
	}
	return p
}

// resolveShot applies one shot in fixed order: redirect, bonus bullets,
// instant kill or cylinder draw, then a single protection check on a
// lethal outcome.
func (s *Session) resolveShot(ctx context.Context, shooter, target *Participant) (*Shot, error) {
	shot := &Shot{Shooter: shooter, Target: target, OriginalTarget: target}

	s.mu.Lock()
	canRedirect := s.rules.Roles && target.Has(CapRedirectOnce) && !target.redirectUsed
	if canRedirect {
		target.redirectUsed = true
	}
	s.mu.Unlock()

	if canRedirect {
		newTarget, err := s.offerRedirect(ctx, shooter, target)
		if err != nil {
			return nil, err
		}
		if newTarget != nil {
			shot.Target = newTarget
			shot.Redirected = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target = shot.Target
	if !shooter.Alive || !target.Alive {
		shot.Void = true
		return shot, nil
	}

	shooter.ShotsFired++
	bonus := shooter.Inventory[ItemExtraBullet]
	if bonus > 0 {
		shooter.Inventory[ItemExtraBullet] = 0
		shot.BonusLoaded = s.chamber.Load(bonus)
	}
	shot.Lethality = s.lethality + bonus

	if s.rules.Roles && shooter.Has(CapInstantKill) && s.rng.Float64() < s.cfg.InstantKillChance {
		shot.InstantKill = true
		shot.Lethal = true
	} else {
		shot.Lethal = s.chamber.Draw()
	}

	if !shot.Lethal {
		target.RoundsSurvived++
		return shot, nil
	}

	shot.Absorbed, shot.VestFailed = s.protectLocked(target)
	if shot.Absorbed != ProtectionNone {
		return shot, nil
	}

	s.eliminateLocked(target)
	shot.Eliminated = true
	if s.rules.Roles && shooter != target && shooter.Has(CapLifesteal) {
		shot.Lifesteal = shooter.Give(ItemExtraLife)
	}
	shot.SuddenDeath = s.maybeSuddenDeathLocked()

	log.Debug().
		Str("session_id", s.id).
		Int64("shooter_id", shooter.ID).
		Int64("target_id", target.ID).
		Bool("instant", shot.InstantKill).
		Msg("Player eliminated")
	return shot, nil
}

// protectLocked runs the protection chain against a lethal outcome:
// role block, then vest, then extra life. The vest is consumed even when
// it fails.
func (s *Session) protectLocked(target *Participant) (Protection, bool) {
	if s.rules.Roles && target.Has(CapBlockOnce) && !target.blockUsed {
		target.blockUsed = true
		return ProtectionRole, false
	}
	vestFailed := false
	if target.take(ItemVest) {
		if s.rng.Float64() < s.cfg.VestBlockChance {
			return ProtectionVest, false
		}
		vestFailed = true
	}
	if target.take(ItemExtraLife) {
		return ProtectionExtra, vestFailed
	}
	return ProtectionNone, vestFailed
}

// offerRedirect asks the target whether to pass the shot on. It returns
// nil when the original target stands.
func (s *Session) offerRedirect(ctx context.Context, shooter, target *Participant) (*Participant, error) {
	s.mu.Lock()
	options := append([]game.Option{{Key: keepTarget, Label: "🙅 Take the shot"}}, s.targetOptionsLocked(target)...)
	s.mu.Unlock()

	question := fmt.Sprintf("🃏 %s, %s is aiming at you. Redirect the shot? (%ds)",
		target.Name, shooter.Name, int(s.cfg.RedirectTimeout.Seconds()))
	choice, ok, err := s.deps.Prompter.Ask(ctx, s.chatID, target.Actor, question, options, s.cfg.RedirectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to prompt for redirect: %w", err)
	}
	if !ok || choice.Key == keepTarget {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.participantByKeyLocked(choice.Key)
	if p == target {
		return nil, nil
	}
	return p, nil
}
