// Package game defines the contracts shared by every session-based game:
// the actors taking part, the prompt and announcement channels, the ledger
// that moves coins, and the registry that keeps one session per chat.
package game

import (
	"context"
	"errors"
	"time"
)

// Errors shared across game implementations.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrChannelOccupied   = errors.New("a game is already running in this chat")
	ErrActorBusy         = errors.New("player is already in another game")
	ErrNoSession         = errors.New("no game in this chat")
	ErrAlreadyRunning    = errors.New("game has already started")
	ErrDuplicateJoin     = errors.New("player already joined")
	ErrNotParticipant    = errors.New("player is not in this game")
	ErrNotHost           = errors.New("only the host can start the game")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrSessionFull       = errors.New("game is full")
	ErrShuttingDown      = errors.New("bot is shutting down")
)

// Actor is a chat user taking part in a game, either as a participant or a bettor.
type Actor struct {
	ID   int64
	Name string
}

// Option is one labeled choice offered to an actor.
type Option struct {
	Key   string
	Label string
}

// Prompter asks a single actor to pick one of the given options.
//
// Ask blocks until the actor answers, the timeout elapses or ctx is done.
// A timeout is not an error: it is reported as ok == false with a nil error.
// Implementations must release any resources tied to the prompt once Ask returns.
type Prompter interface {
	Ask(ctx context.Context, chatID int64, actor Actor, question string, options []Option, timeout time.Duration) (choice Option, ok bool, err error)
}

// Announcer delivers narration to a chat, and private notes to a single actor.
// Delivery failures are reported but never abort a game.
type Announcer interface {
	Announce(ctx context.Context, chatID int64, text string) error
	Whisper(ctx context.Context, actor Actor, text string) error
}

// Ledger moves coins between players and the house.
//
// Debit must fail with ErrInsufficientFunds, without side effects, when the
// balance cannot cover amount. RecordTransaction is an audit hook: it never
// fails the caller, errors are only logged.
type Ledger interface {
	Debit(ctx context.Context, actorID, amount int64, txType, description string) error
	Credit(ctx context.Context, actorID, amount int64, txType, description string) error
	RecordTransaction(ctx context.Context, fromID, toID int64, subject string, data map[string]any)
}

// PlayerResult is the terminal stat line of one participant.
type PlayerResult struct {
	Actor          Actor
	Won            bool
	ShotsFired     int
	RoundsSurvived int
}

// StatsRecorder persists terminal stats once a game ends.
type StatsRecorder interface {
	RecordResults(ctx context.Context, game string, results []PlayerResult) error
}

// Session is the common surface of a chat-bound game session, so that
// /join, /go and /quit can be routed without knowing the game type.
type Session interface {
	ID() string
	ChatID() int64
	Kind() string
	Join(ctx context.Context, actor Actor) error
	Quit(ctx context.Context, actor Actor) error
	Start(ctx context.Context, actor Actor) error
}
