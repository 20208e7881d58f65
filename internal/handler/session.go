package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/service"
)

// SessionHandler routes lobby commands to whatever game runs in the chat.
type SessionHandler struct {
	accountService *service.AccountService
	registry       *game.SessionRegistry
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(accountService *service.AccountService, registry *game.SessionRegistry) *SessionHandler {
	return &SessionHandler{
		accountService: accountService,
		registry:       registry,
	}
}

func (h *SessionHandler) current(c tele.Context) (game.Session, bool) {
	if c.Chat() == nil {
		return nil, false
	}
	return h.registry.Get(c.Chat().ID)
}

// HandleJoin handles /join.
func (h *SessionHandler) HandleJoin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	sess, ok := h.current(c)
	if !ok {
		return replyError(c, "join", game.ErrNoSession)
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, storedName(sender)); err != nil {
		return replyError(c, "join", err)
	}

	if err := sess.Join(ctx, actorOf(sender)); err != nil {
		return replyError(c, "join", err)
	}
	return c.Reply(fmt.Sprintf("✅ %s joined the %s", displayName(sender), sess.Kind()))
}

// HandleGo handles /go.
func (h *SessionHandler) HandleGo(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	sess, ok := h.current(c)
	if !ok {
		return replyError(c, "go", game.ErrNoSession)
	}

	if err := sess.Start(context.Background(), actorOf(sender)); err != nil {
		return replyError(c, "go", err)
	}

	log.Info().
		Str("session_id", sess.ID()).
		Int64("chat_id", sess.ChatID()).
		Int64("user_id", sender.ID).
		Msg("Lobby closed by host")
	return c.Reply("🚀 Lobby closed, here we go!")
}

// HandleQuit handles /quit.
func (h *SessionHandler) HandleQuit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	sess, ok := h.current(c)
	if !ok {
		return replyError(c, "quit", game.ErrNoSession)
	}

	if err := sess.Quit(context.Background(), actorOf(sender)); err != nil {
		return replyError(c, "quit", err)
	}
	return c.Reply(fmt.Sprintf("👋 %s left the %s", displayName(sender), sess.Kind()))
}
