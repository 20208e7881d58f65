package roulette

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
)

// EventKind is a random table event rolled between rounds.
type EventKind int

const (
	EventLethalityUp EventKind = iota
	EventLethalityDown
	EventGrantItem
	EventDoubleLethality
	EventSilentRound
)

var eventKinds = []EventKind{
	EventLethalityUp,
	EventLethalityDown,
	EventGrantItem,
	EventDoubleLethality,
	EventSilentRound,
}

// String returns a short description of the event.
func (k EventKind) String() string {
	switch k {
	case EventLethalityUp:
		return "one more bullet is loaded"
	case EventLethalityDown:
		return "a bullet is removed"
	case EventGrantItem:
		return "someone finds an item"
	case EventDoubleLethality:
		return "the bullets are doubled"
	case EventSilentRound:
		return "the next round is played in silence"
	default:
		return "unknown"
	}
}

// applyRandomEvent rolls for an event after a completed round. Foresight
// holders learn the event before it takes effect.
func (s *Session) applyRandomEvent(ctx context.Context) (EventKind, bool) {
	s.mu.Lock()
	if s.rng.Float64() >= s.cfg.EventChance {
		s.mu.Unlock()
		return 0, false
	}
	kind := eventKinds[s.rng.Intn(len(eventKinds))]
	var seers []game.Actor
	for _, p := range s.participants {
		if p.Alive && p.Has(CapForesight) {
			seers = append(seers, p.Actor)
		}
	}
	s.mu.Unlock()

	for _, seer := range seers {
		if err := s.deps.Announcer.Whisper(ctx, seer, "🔮 You foresee: "+kind.String()); err != nil {
			log.Warn().Err(err).Int64("user_id", seer.ID).Msg("Failed to deliver foresight")
		}
	}

	s.mu.Lock()
	text := s.applyEventLocked(kind)
	s.mu.Unlock()

	log.Debug().Str("session_id", s.id).Int("event", int(kind)).Msg("Random event applied")
	s.announce(ctx, text)
	return kind, true
}

func (s *Session) applyEventLocked(kind EventKind) string {
	switch kind {
	case EventLethalityUp:
		s.setLethalityLocked(s.lethality + 1)
		return fmt.Sprintf("⚡ Event: one more bullet! %d of %d chambers loaded.", s.lethality, s.cfg.ChamberSize)
	case EventLethalityDown:
		s.setLethalityLocked(s.lethality - 1)
		return fmt.Sprintf("🍀 Event: a bullet falls out! %d of %d chambers loaded.", s.lethality, s.cfg.ChamberSize)
	case EventDoubleLethality:
		s.setLethalityLocked(s.lethality * 2)
		return fmt.Sprintf("☠️ Event: double trouble! %d of %d chambers loaded.", s.lethality, s.cfg.ChamberSize)
	case EventSilentRound:
		s.silentNext = true
		return "🤫 Event: the next round will be played in silence."
	case EventGrantItem:
		var alive []*Participant
		for _, p := range s.participants {
			if p.Alive {
				alive = append(alive, p)
			}
		}
		if !s.rules.Items || len(alive) == 0 {
			return "🎁 Event: a crate drops, but it is empty."
		}
		p := alive[s.rng.Intn(len(alive))]
		item := itemKinds[s.rng.Intn(len(itemKinds))]
		if !p.Give(item) {
			return fmt.Sprintf("🎁 Event: %s finds a %s, but their pockets are full.", p.Name, ItemName(item))
		}
		return fmt.Sprintf("🎁 Event: %s finds a %s!", p.Name, ItemName(item))
	default:
		return ""
	}
}

// setLethalityLocked bounds the lethality and reloads the cylinder with it.
func (s *Session) setLethalityLocked(l int) {
	s.lethality = clamp(l, 1, s.cfg.MaxLethality)
	s.chamber.Reload(s.lethality)
}

// maybeSuddenDeathLocked enters sudden death the first time exactly two
// players remain, returning the announcement, or "" when nothing changed.
func (s *Session) maybeSuddenDeathLocked() string {
	if !s.rules.SuddenDeath || s.suddenDeath || s.chamber == nil || s.aliveCountLocked() != 2 {
		return ""
	}
	s.suddenDeath = true
	s.setLethalityLocked(s.cfg.SuddenDeathLethality)
	return fmt.Sprintf("💀 SUDDEN DEATH! Two players remain. %d of %d chambers loaded.", s.lethality, s.cfg.ChamberSize)
}
