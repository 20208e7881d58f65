package handler

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
	rankingService *service.RankingService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService, rankingService *service.RankingService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		rankingService: rankingService,
	}
}

// HandleStart handles the /start command.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, created, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender))
	if err != nil {
		return replyError(c, "start", err)
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 Welcome %s!\n\n"+
				"Your account is open with %d coins.\n\n"+
				"Commands:\n"+
				"/balance - your coins and stats\n"+
				"/daily - daily reward\n"+
				"/roulette [fee] - open a Russian Roulette lobby\n"+
				"/roulette_beta [fee] - roulette with roles, items and events\n"+
				"/siege - raise a raid on the city\n"+
				"/join /go /quit - lobby controls\n"+
				"/bet <amount> <seat> - bet on a player\n"+
				"/rr_top - roulette leaderboard",
			displayName(sender), user.Balance,
		))
	}

	return c.Reply(fmt.Sprintf(
		"👋 Welcome back %s!\n\n"+
			"Balance: %d coins",
		displayName(sender), user.Balance,
	))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "balance", err)
	}
	profile, err := h.accountService.GetProfile(ctx, sender.ID)
	if err != nil {
		return replyError(c, "balance", err)
	}

	profit := fmt.Sprintf("%d", profile.GameProfit)
	if profile.GameProfit > 0 {
		profit = "+" + profit
	}

	msg := fmt.Sprintf(
		"📊 Account\n"+
			"━━━━━━━━━━━━━━━\n"+
			"👤 %s\n"+
			"💰 Balance: %d coins\n"+
			"📈 Game profit: %s\n",
		displayName(sender), profile.User.Balance, profit,
	)

	if stat, err := h.rankingService.PlayerStats(ctx, sender.ID, roulette.Kind); err == nil && stat != nil {
		msg += fmt.Sprintf(
			"🔫 Roulette: %d played, %d won (%.0f%%)\n",
			stat.Played, stat.Wins, service.WinRate(stat),
		)
	}
	msg += "━━━━━━━━━━━━━━━"

	return c.Reply(msg)
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "daily", err)
	}

	user, wait, err := h.accountService.ClaimDaily(ctx, sender.ID)
	if errors.Is(err, service.ErrDailyAlreadyClaimed) {
		return c.Reply(fmt.Sprintf("⏰ Come back in %s", service.FormatWait(wait)))
	}
	if err != nil {
		return replyError(c, "daily", err)
	}

	return c.Reply(fmt.Sprintf(
		"✅ Daily reward claimed: +%d coins\n💰 Balance: %d coins",
		h.accountService.DailyReward(), user.Balance,
	))
}
