// Package siege implements the raid game: a lobby of attackers storms a
// city, and the battle is resolved as an automatic exchange of blows
// between the attacker roster and the city's defenses.
package siege

import (
	"context"
	"time"

	"telegram-roulette-bot/internal/game"
)

// DefaultMaxTurns bounds a battle in which neither side can finish the other.
const DefaultMaxTurns = 200

// Attacker is one raider.
type Attacker struct {
	game.Actor
	Damage  int
	Defense int
	HP      int
}

// Defense is one city structure or garrison.
type Defense struct {
	Name     string
	Category string
	Damage   int
	HP       int
}

// Exchange is one full pair of steps: the attackers strike, then the
// surviving defenses strike back.
type Exchange struct {
	Turn int

	Target       string
	AttackDamage int
	TargetHP     int
	Destroyed    bool
	// NextTarget names the defense the attackers turn to next, if any.
	NextTarget string

	// CounterTarget is nil when no defenses were left to strike back.
	CounterTarget *game.Actor
	CounterDamage int
	Blocked       int
	CounterHP     int
	Fallen        bool
}

// Result is the outcome of a resolved battle.
type Result struct {
	AttackersWon bool
	// Stalemate is set when MaxTurns ran out; it counts as a defense success.
	Stalemate bool
	Turns     int
	Survivors []Attacker
	Fallen    []Attacker
	Standing  []Defense
	Destroyed []Defense
	Exchanges []Exchange
}

// ResolveOptions tune pacing and bounds.
type ResolveOptions struct {
	// Delay is waited between exchanges.
	Delay time.Duration
	// MaxTurns defaults to DefaultMaxTurns.
	MaxTurns int
	// OnExchange is called after every exchange.
	OnExchange func(Exchange)
}

// Resolve fights the battle to the end. The inputs are not modified.
//
// Each turn the combined damage of every living attacker hits the defense
// with the most HP left. Then the combined damage of the remaining defenses
// hits one attacker, reduced by that attacker's defense: the attacker with
// the most damage when all attackers are equally healthy, otherwise the
// weakest one.
func Resolve(ctx context.Context, attackers []Attacker, defenses []Defense, opts ResolveOptions) (Result, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	var res Result
	alive := make([]Attacker, 0, len(attackers))
	for _, a := range attackers {
		if a.HP > 0 {
			alive = append(alive, a)
		} else {
			res.Fallen = append(res.Fallen, a)
		}
	}
	standing := make([]Defense, 0, len(defenses))
	for _, d := range defenses {
		if d.HP > 0 {
			standing = append(standing, d)
		} else {
			res.Destroyed = append(res.Destroyed, d)
		}
	}

	for len(alive) > 0 && len(standing) > 0 {
		if res.Turns == maxTurns {
			res.Stalemate = true
			break
		}
		if res.Turns > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return res, err
			}
		}
		res.Turns++
		ex := Exchange{Turn: res.Turns}

		ti := strongestDefense(standing)
		for _, a := range alive {
			ex.AttackDamage += a.Damage
		}
		standing[ti].HP -= ex.AttackDamage
		ex.Target = standing[ti].Name
		ex.TargetHP = max(standing[ti].HP, 0)
		if standing[ti].HP <= 0 {
			ex.Destroyed = true
			res.Destroyed = append(res.Destroyed, standing[ti])
			standing = append(standing[:ti], standing[ti+1:]...)
			if len(standing) > 0 {
				ex.NextTarget = standing[strongestDefense(standing)].Name
			}
		}

		if len(standing) > 0 {
			incoming := 0
			for _, d := range standing {
				incoming += d.Damage
			}
			ai := pickAttacker(alive)
			target := &alive[ai]
			ex.Blocked = min(target.Defense, incoming)
			ex.CounterDamage = max(incoming-target.Defense, 0)
			target.HP -= ex.CounterDamage
			actor := target.Actor
			ex.CounterTarget = &actor
			ex.CounterHP = max(target.HP, 0)
			if target.HP <= 0 {
				ex.Fallen = true
				res.Fallen = append(res.Fallen, *target)
				alive = append(alive[:ai], alive[ai+1:]...)
			}
		}

		res.Exchanges = append(res.Exchanges, ex)
		if opts.OnExchange != nil {
			opts.OnExchange(ex)
		}
	}

	res.AttackersWon = len(standing) == 0 && len(alive) > 0
	res.Survivors = alive
	res.Standing = standing
	return res, nil
}

// strongestDefense returns the index of the defense with the most HP,
// the first one on ties.
func strongestDefense(defenses []Defense) int {
	best := 0
	for i, d := range defenses {
		if d.HP > defenses[best].HP {
			best = i
		}
	}
	return best
}

// pickAttacker returns the index of the attacker the defenses focus.
func pickAttacker(attackers []Attacker) int {
	equal := true
	for _, a := range attackers {
		if a.HP != attackers[0].HP {
			equal = false
			break
		}
	}

	best := 0
	for i, a := range attackers {
		if equal {
			if a.Damage > attackers[best].Damage {
				best = i
			}
		} else if a.HP < attackers[best].HP {
			best = i
		}
	}
	return best
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
