// Package main is the entry point for the roulette bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/bot"
	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/game/siege"
	"telegram-roulette-bot/internal/handler"
	"telegram-roulette-bot/internal/pkg/db"
	"telegram-roulette-bot/internal/pkg/lock"
	"telegram-roulette-bot/internal/prompt"
	"telegram-roulette-bot/internal/repository"
	"telegram-roulette-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	auditRepo := repository.NewAuditRepository(dbPool.Pool)
	statsRepo := repository.NewStatsRepository(dbPool.Pool)

	accountService := service.NewAccountService(userRepo, txRepo, cfg.Daily.Reward, cfg.Daily.CooldownHours)
	ledgerService := service.NewLedgerService(userRepo, txRepo, auditRepo, lock.NewUserLock())
	rankingService := service.NewRankingService(statsRepo)

	telegramBot, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	prompts := prompt.NewTelegram(telegramBot.API(), prompt.NewBroker())
	registry := game.NewSessionRegistry()
	runner := game.NewRunner()

	rouletteGame := roulette.NewGame(rouletteConfig(cfg.Games.Roulette), roulette.Deps{
		Registry:  registry,
		Ledger:    ledgerService,
		Prompter:  prompts,
		Announcer: prompts,
		Stats:     rankingService,
		Runner:    runner,
	})
	siegeGame := siege.NewGame(siegeConfig(cfg.Games.Siege), siege.Deps{
		Registry:  registry,
		Ledger:    ledgerService,
		Announcer: prompts,
		Stats:     rankingService,
		Runner:    runner,
	})

	telegramBot.Register(&bot.Handlers{
		Account:  handler.NewAccountHandler(accountService, rankingService),
		Admin:    handler.NewAdminHandler(accountService),
		Roulette: handler.NewRouletteHandler(accountService, registry, rouletteGame),
		Siege:    handler.NewSiegeHandler(accountService, siegeGame),
		Session:  handler.NewSessionHandler(accountService, registry),
		Ranking:  handler.NewRankingHandler(rankingService, cfg.Games.Roulette.TopLimit),
		Prompts:  prompts,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go telegramBot.Start()

	sig := <-sigChan
	log.Info().
		Str("signal", sig.String()).
		Int("active_sessions", registry.Count()).
		Msg("Received shutdown signal")

	telegramBot.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Bot.ShutdownTimeout)
	defer shutdownCancel()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Warn().
			Err(err).
			Int("active_sessions", registry.Count()).
			Msg("Sessions still running at shutdown deadline")
	}
	log.Info().Msg("Bot stopped gracefully")
}

func rouletteConfig(c config.RouletteConfig) roulette.Config {
	return roulette.Config{
		MinPlayers:           c.MinPlayers,
		MaxPlayers:           c.MaxPlayers,
		LobbyDuration:        c.LobbyDuration,
		TargetTimeout:        c.TargetTimeout,
		RedirectTimeout:      c.RedirectTimeout,
		TurnDelay:            c.TurnDelay,
		ChamberSize:          c.ChamberSize,
		BaseLethality:        c.BaseLethality,
		MaxLethality:         c.MaxLethality,
		SuddenDeathLethality: c.SuddenDeathLethality,
		EventChance:          c.EventChance,
		InstantKillChance:    c.InstantKillChance,
		VestBlockChance:      c.VestBlockChance,
		MaxIdleRounds:        c.MaxIdleRounds,
		MaxEntryFee:          c.MaxEntryFee,
		MaxBet:               c.MaxBet,
	}
}

func siegeConfig(c config.SiegeConfig) siege.Config {
	defenses := make([]siege.Defense, 0, len(c.Defenses))
	for _, d := range c.Defenses {
		defenses = append(defenses, siege.Defense{
			Name:     d.Name,
			Category: d.Category,
			Damage:   d.Damage,
			HP:       d.HP,
		})
	}
	return siege.Config{
		LobbyDuration: c.LobbyDuration,
		MinAttackers:  c.MinAttackers,
		MaxAttackers:  c.MaxAttackers,
		ExchangeDelay: c.ExchangeDelay,
		MaxTurns:      c.MaxTurns,
		Loot:          c.Loot,
		City:          c.City,
		Attacker: siege.AttackerStats{
			Damage:  c.Attacker.Damage,
			Defense: c.Attacker.Defense,
			HP:      c.Attacker.HP,
		},
		Defenses: defenses,
	}
}
