package handler

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/repository"
	"telegram-roulette-bot/internal/service"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	accountService *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService) *AdminHandler {
	return &AdminHandler{accountService: accountService}
}

// HandleGrant handles /grant <user_id> <amount>.
func (h *AdminHandler) HandleGrant(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseGrant(c.Args())
	if err != nil {
		return c.Reply("❌ Usage: /grant <user_id> <amount>\nExample: /grant 123456789 500")
	}

	user, err := h.accountService.Grant(ctx, sender.ID, targetID, amount)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.Reply("❌ That user has never started the bot")
	}
	if err != nil {
		return replyError(c, "grant", err)
	}

	name := user.Username
	if name == "" {
		name = fmt.Sprintf("%d", targetID)
	}

	return c.Reply(fmt.Sprintf(
		"✅ Done\n\n"+
			"👤 User: %s (ID: %d)\n"+
			"➕ Granted: %d coins\n"+
			"💰 Balance: %d coins",
		name, targetID, amount, user.Balance,
	))
}
