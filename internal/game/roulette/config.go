// Package roulette implements multiplayer Russian Roulette: a lobby where
// players buy in and spectators bet, followed by rounds in which every living
// player picks a target and pulls the trigger on a shared cylinder.
//
// The Beta variant layers roles, items, random events and sudden death on top
// of the classic rules.
package roulette

import (
	"math/rand"
	"time"
)

// Variant selects the rule set of a session.
type Variant int

const (
	VariantClassic Variant = iota
	VariantBeta
)

// String returns the display name of the variant.
func (v Variant) String() string {
	if v == VariantBeta {
		return "Roulette Beta"
	}
	return "Roulette"
}

// Rules lists the optional mechanics enabled for a variant.
type Rules struct {
	Roles       bool
	Items       bool
	Events      bool
	SuddenDeath bool
}

// Rules returns the mechanics enabled for the variant.
func (v Variant) Rules() Rules {
	if v == VariantBeta {
		return Rules{Roles: true, Items: true, Events: true, SuddenDeath: true}
	}
	return Rules{}
}

// Config holds the tunables of a roulette session.
type Config struct {
	MinPlayers int
	MaxPlayers int

	LobbyDuration   time.Duration
	TargetTimeout   time.Duration
	RedirectTimeout time.Duration
	// TurnDelay paces narration between turns.
	TurnDelay time.Duration

	ChamberSize          int
	BaseLethality        int
	MaxLethality         int
	SuddenDeathLethality int

	EventChance       float64
	InstantKillChance float64
	VestBlockChance   float64

	// MaxIdleRounds ends a session as stalled after that many consecutive
	// rounds in which nobody answered a prompt.
	MaxIdleRounds int

	MaxEntryFee int64
	MaxBet      int64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MinPlayers:           2,
		MaxPlayers:           10,
		LobbyDuration:        60 * time.Second,
		TargetTimeout:        15 * time.Second,
		RedirectTimeout:      30 * time.Second,
		TurnDelay:            1500 * time.Millisecond,
		ChamberSize:          6,
		BaseLethality:        1,
		MaxLethality:         5,
		SuddenDeathLethality: 3,
		EventChance:          0.30,
		InstantKillChance:    0.25,
		VestBlockChance:      0.50,
		MaxIdleRounds:        3,
		MaxEntryFee:          100000,
		MaxBet:               100000,
	}
}

// normalize fills zero values with defaults and clamps the lethality bounds
// so that a fresh cylinder always holds at least one empty chamber.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MinPlayers < 2 {
		c.MinPlayers = d.MinPlayers
	}
	if c.MaxPlayers < c.MinPlayers {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.ChamberSize < 2 {
		c.ChamberSize = d.ChamberSize
	}
	if c.MaxLethality <= 0 || c.MaxLethality >= c.ChamberSize {
		c.MaxLethality = c.ChamberSize - 1
	}
	if c.BaseLethality < 1 {
		c.BaseLethality = 1
	}
	if c.BaseLethality > c.MaxLethality {
		c.BaseLethality = c.MaxLethality
	}
	if c.SuddenDeathLethality < 1 || c.SuddenDeathLethality > c.MaxLethality {
		c.SuddenDeathLethality = c.MaxLethality
	}
	if c.MaxIdleRounds <= 0 {
		c.MaxIdleRounds = d.MaxIdleRounds
	}
	return c
}

// Random is the source of chance for a session. The default implementation
// uses the process-wide math/rand generator; tests inject a scripted one.
type Random interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) Intn(n int) int                     { return rand.Intn(n) }
func (globalRandom) Float64() float64                   { return rand.Float64() }
func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRandom is backed by the process-wide math/rand generator.
var DefaultRandom Random = globalRandom{}
