// Package handler provides Telegram bot command handlers.
package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/service"
)

var errUsage = errors.New("usage")

// displayName returns the best human-readable name of a Telegram user.
func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return fmt.Sprintf("User%d", u.ID)
	}
	return name
}

// storedName is the name kept in the users table.
func storedName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// actorOf converts a Telegram user into a game actor.
func actorOf(u *tele.User) game.Actor {
	return game.Actor{ID: u.ID, Name: displayName(u)}
}

// isGroup reports whether the update came from a group chat.
func isGroup(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && (chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup)
}

// parseFee reads an optional entry fee. No argument means a free game.
func parseFee(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	fee, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || fee < 0 {
		return 0, errUsage
	}
	return fee, nil
}

// parseBet reads "<amount> <seat>".
func parseBet(args []string) (int64, int, error) {
	if len(args) < 2 {
		return 0, 0, errUsage
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, errUsage
	}
	seat, err := strconv.Atoi(strings.TrimPrefix(args[1], "#"))
	if err != nil || seat <= 0 {
		return 0, 0, errUsage
	}
	return amount, seat, nil
}

// parseGrant reads "<user_id> <amount>".
func parseGrant(args []string) (int64, int64, error) {
	if len(args) < 2 {
		return 0, 0, errUsage
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, errUsage
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, errUsage
	}
	return targetID, amount, nil
}

// errorMessage maps a domain error to the reply shown in chat.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "❌ Not enough coins"
	case errors.Is(err, game.ErrChannelOccupied):
		return "⏳ A game is already running in this chat"
	case errors.Is(err, game.ErrActorBusy):
		return "⏳ You are already in another game"
	case errors.Is(err, game.ErrNoSession):
		return "🤷 There is no game here. Start one with /roulette or /siege"
	case errors.Is(err, game.ErrAlreadyRunning):
		return "🚫 The game has already started"
	case errors.Is(err, game.ErrDuplicateJoin):
		return "✋ You already joined"
	case errors.Is(err, game.ErrNotParticipant):
		return "🤷 You are not in this game"
	case errors.Is(err, game.ErrNotHost):
		return "🚫 Only the host can start the game"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "👥 Not enough players yet"
	case errors.Is(err, game.ErrSessionFull):
		return "🈵 The game is full"
	case errors.Is(err, game.ErrShuttingDown):
		return "🔌 The bot is restarting, try again in a minute"
	case errors.Is(err, roulette.ErrBettingClosed):
		return "🚫 Betting is closed"
	case errors.Is(err, roulette.ErrParticipantBet):
		return "🚫 Players cannot bet on their own game"
	case errors.Is(err, roulette.ErrBettorJoin):
		return "🚫 You bet on this game, so you cannot join it"
	case errors.Is(err, roulette.ErrUnknownTarget):
		return "❓ No player in that seat"
	case errors.Is(err, roulette.ErrBetTooHigh):
		return "❌ Bet exceeds the table limit"
	case errors.Is(err, roulette.ErrEntryTooHigh):
		return "❌ Entry fee exceeds the table limit"
	case errors.Is(err, roulette.ErrDuplicateBet):
		return "✋ You already placed a bet in this game"
	case errors.Is(err, roulette.ErrInvalidAmount), errors.Is(err, service.ErrInvalidAmount):
		return "❌ Amount must be positive"
	case errors.Is(err, roulette.ErrGameOver):
		return "🏁 The game is already decided"
	default:
		return "❌ Something went wrong, please try again later"
	}
}

// replyError logs unexpected errors and replies with the mapped message.
func replyError(c tele.Context, op string, err error) error {
	msg := errorMessage(err)
	if strings.HasPrefix(msg, "❌ Something") {
		ev := log.Error().Err(err).Str("op", op)
		if s := c.Sender(); s != nil {
			ev = ev.Int64("user_id", s.ID)
		}
		ev.Msg("Command failed")
	}
	return c.Reply(msg)
}
