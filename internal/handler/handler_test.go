package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/model"
)

func TestParseFee(t *testing.T) {
	tests := []struct {
		args    []string
		want    int64
		wantErr bool
	}{
		{nil, 0, false},
		{[]string{"0"}, 0, false},
		{[]string{"250"}, 250, false},
		{[]string{"-5"}, 0, true},
		{[]string{"abc"}, 0, true},
	}
	for _, tt := range tests {
		got, err := parseFee(tt.args)
		if tt.wantErr {
			assert.Error(t, err, "args %v", tt.args)
			continue
		}
		require.NoError(t, err, "args %v", tt.args)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseBet(t *testing.T) {
	amount, seat, err := parseBet([]string{"50", "2"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), amount)
	assert.Equal(t, 2, seat)

	amount, seat, err = parseBet([]string{"10", "#3"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), amount)
	assert.Equal(t, 3, seat)

	for _, args := range [][]string{nil, {"50"}, {"0", "1"}, {"50", "0"}, {"x", "1"}, {"5", "y"}} {
		_, _, err := parseBet(args)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestParseGrant(t *testing.T) {
	id, amount, err := parseGrant([]string{"123456789", "500"})
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), id)
	assert.Equal(t, int64(500), amount)

	for _, args := range [][]string{nil, {"1"}, {"x", "5"}, {"1", "-5"}} {
		_, _, err := parseGrant(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@alice", displayName(&tele.User{ID: 1, Username: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Bob Smith", displayName(&tele.User{ID: 2, FirstName: "Bob", LastName: "Smith"}))
	assert.Equal(t, "User3", displayName(&tele.User{ID: 3}))
	assert.Equal(t, game.Actor{ID: 1, Name: "@alice"}, actorOf(&tele.User{ID: 1, Username: "alice"}))
}

func TestErrorMessage(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", game.ErrActorBusy)
	assert.Equal(t, "⏳ You are already in another game", errorMessage(wrapped))
	assert.Equal(t, "❌ Not enough coins", errorMessage(game.ErrInsufficientFunds))
	assert.Equal(t, "🚫 Betting is closed", errorMessage(roulette.ErrBettingClosed))
	assert.True(t, strings.HasPrefix(errorMessage(errors.New("db down")), "❌ Something"))

	domain := []error{
		game.ErrChannelOccupied, game.ErrNoSession, game.ErrAlreadyRunning,
		game.ErrDuplicateJoin, game.ErrNotParticipant, game.ErrNotHost,
		game.ErrNotEnoughPlayers, game.ErrSessionFull, game.ErrShuttingDown,
		roulette.ErrParticipantBet,
		roulette.ErrBettorJoin, roulette.ErrUnknownTarget, roulette.ErrBetTooHigh,
		roulette.ErrEntryTooHigh, roulette.ErrDuplicateBet, roulette.ErrGameOver,
	}
	for _, err := range domain {
		assert.False(t, strings.HasPrefix(errorMessage(err), "❌ Something"), "unmapped: %v", err)
	}
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Equal(t, "📊 No games played yet", formatLeaderboard("🔫 Roulette", 10, nil))

	msg := formatLeaderboard("🔫 Roulette", 10, []*model.GameStat{
		{UserID: 1, Username: "alice", Played: 4, Wins: 3},
		{UserID: 2, Played: 2, Wins: 1},
		{UserID: 3, Username: "carol", Played: 1},
		{UserID: 4, Username: "dave", Played: 5},
	})
	assert.Contains(t, msg, "🔫 Roulette TOP 10")
	assert.Contains(t, msg, "🥇 alice: 3 wins / 4 games (75%)")
	assert.Contains(t, msg, "🥈 User2: 1 wins / 2 games (50%)")
	assert.Contains(t, msg, "4. dave: 0 wins / 5 games (0%)")
}
