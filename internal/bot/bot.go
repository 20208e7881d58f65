// Package bot provides the Telegram bot initialization, middleware and
// handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/handler"
	"telegram-roulette-bot/internal/prompt"
)

// Handlers are the command handlers the bot routes to.
type Handlers struct {
	Account  *handler.AccountHandler
	Admin    *handler.AdminHandler
	Roulette *handler.RouletteHandler
	Siege    *handler.SiegeHandler
	Session  *handler.SessionHandler
	Ranking  *handler.RankingHandler
	Prompts  *prompt.Telegram
}

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	access *PrivateAccess
}

// New creates the Telegram client. Handlers are attached with Register.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		bot:    teleBot,
		cfg:    cfg,
		access: NewPrivateAccess(),
	}, nil
}

// API returns the underlying telebot instance.
func (b *Bot) API() *tele.Bot {
	return b.bot
}

// Register installs middleware and routes every command to h.
func (b *Bot) Register(h *Handlers) {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.access))
	b.bot.Use(LoggingMiddleware())

	b.bot.Handle("/start", h.Account.HandleStart)
	b.bot.Handle("/balance", h.Account.HandleBalance)
	b.bot.Handle("/daily", h.Account.HandleDaily)

	b.bot.Handle("/roulette", h.Roulette.HandleRoulette)
	b.bot.Handle("/roulette_beta", h.Roulette.HandleRouletteBeta)
	b.bot.Handle("/bet", h.Roulette.HandleBet)
	b.bot.Handle("/siege", h.Siege.HandleSiege)

	b.bot.Handle("/join", h.Session.HandleJoin)
	b.bot.Handle("/go", h.Session.HandleGo)
	b.bot.Handle("/quit", h.Session.HandleQuit)

	b.bot.Handle("/rr_top", h.Ranking.HandleRouletteTop)
	b.bot.Handle("/siege_top", h.Ranking.HandleSiegeTop)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/grant", h.Admin.HandleGrant)

	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		return routeCallback(c, h.Prompts)
	})
}

// routeCallback sends prompt answers to the prompt layer and acknowledges
// anything else so the client stops spinning.
func routeCallback(c tele.Context, prompts *prompt.Telegram) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	data := strings.TrimPrefix(cb.Data, "\f")
	if strings.HasPrefix(data, prompt.CallbackUnique+"|") {
		return prompts.HandleCallback(c)
	}
	log.Debug().Str("data", data).Msg("Unknown callback")
	return c.Respond(&tele.CallbackResponse{Text: "This button has expired"})
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
