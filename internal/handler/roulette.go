package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/service"
)

// RouletteHandler opens roulette lobbies and takes spectator bets.
type RouletteHandler struct {
	accountService *service.AccountService
	registry       *game.SessionRegistry
	roulette       *roulette.Game
}

// NewRouletteHandler creates a new RouletteHandler.
func NewRouletteHandler(accountService *service.AccountService, registry *game.SessionRegistry, rouletteGame *roulette.Game) *RouletteHandler {
	return &RouletteHandler{
		accountService: accountService,
		registry:       registry,
		roulette:       rouletteGame,
	}
}

// HandleRoulette handles /roulette [fee].
func (h *RouletteHandler) HandleRoulette(c tele.Context) error {
	return h.open(c, roulette.VariantClassic, "/roulette")
}

// HandleRouletteBeta handles /roulette_beta [fee].
func (h *RouletteHandler) HandleRouletteBeta(c tele.Context) error {
	return h.open(c, roulette.VariantBeta, "/roulette_beta")
}

func (h *RouletteHandler) open(c tele.Context, variant roulette.Variant, command string) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !isGroup(c) {
		return c.Reply("👥 Roulette is played in group chats")
	}

	fee, err := parseFee(c.Args())
	if err != nil {
		return c.Reply(fmt.Sprintf("❌ Usage: %s [entry fee]\nExample: %s 100", command, command))
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "roulette_open", err)
	}

	s, err := h.roulette.Open(ctx, c.Chat().ID, actorOf(sender), variant, fee)
	if err != nil {
		return replyError(c, "roulette_open", err)
	}

	cfg := h.roulette.Config()
	stake := "free game"
	if s.Fee() > 0 {
		stake = fmt.Sprintf("entry %d coins", s.Fee())
	}
	return c.Send(fmt.Sprintf(
		"🔫 %s lobby opened by %s (%s)\n\n"+
			"/join to take a seat (%d-%d players)\n"+
			"/bet <amount> <seat> to back a player\n"+
			"/go for the host to start early\n"+
			"/quit to leave\n\n"+
			"⏳ The table closes in %s",
		variant, displayName(sender), stake,
		cfg.MinPlayers, cfg.MaxPlayers, cfg.LobbyDuration,
	))
}

// HandleBet handles /bet <amount> <seat>.
func (h *RouletteHandler) HandleBet(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil || c.Chat() == nil {
		return nil
	}

	amount, seat, err := parseBet(c.Args())
	if err != nil {
		return c.Reply("❌ Usage: /bet <amount> <seat>\nExample: /bet 50 2")
	}

	sess, ok := h.registry.Get(c.Chat().ID)
	if !ok {
		return replyError(c, "bet", game.ErrNoSession)
	}
	rs, ok := sess.(*roulette.Session)
	if !ok {
		return c.Reply("🚫 Bets are only taken on roulette games")
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "bet", err)
	}

	target, err := rs.PlaceBet(ctx, actorOf(sender), amount, seat)
	if err != nil {
		return replyError(c, "bet", err)
	}

	return c.Reply(fmt.Sprintf("🎟 %s bets %d coins on %s (seat %d)", displayName(sender), amount, target.Name, seat))
}
