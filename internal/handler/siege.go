package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/siege"
	"telegram-roulette-bot/internal/service"
)

// SiegeHandler raises siege raids.
type SiegeHandler struct {
	accountService *service.AccountService
	siege          *siege.Game
}

// NewSiegeHandler creates a new SiegeHandler.
func NewSiegeHandler(accountService *service.AccountService, siegeGame *siege.Game) *SiegeHandler {
	return &SiegeHandler{
		accountService: accountService,
		siege:          siegeGame,
	}
}

// HandleSiege handles /siege.
func (h *SiegeHandler) HandleSiege(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !isGroup(c) {
		return c.Reply("👥 Sieges are fought in group chats")
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "siege_open", err)
	}

	if _, err := h.siege.Open(ctx, c.Chat().ID, actorOf(sender)); err != nil {
		return replyError(c, "siege_open", err)
	}

	cfg := h.siege.Config()
	var defenses []string
	for _, d := range cfg.Defenses {
		defenses = append(defenses, fmt.Sprintf("• %s (%s) ❤️ %d", d.Name, d.Category, d.HP))
	}

	return c.Send(fmt.Sprintf(
		"⚔️ %s calls for a raid on %s!\n\n"+
			"%s\n\n"+
			"💰 Loot: %d coins shared by the survivors\n"+
			"/join to enlist, /go to march early, /quit to desert\n"+
			"⏳ The army marches in %s",
		displayName(sender), cfg.City,
		strings.Join(defenses, "\n"),
		cfg.Loot, cfg.LobbyDuration,
	))
}
