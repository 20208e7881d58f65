package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/game/siege"
)

func TestGameConfigsFromDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load(".")
	require.NoError(t, err)

	rc := rouletteConfig(cfg.Games.Roulette)
	assert.Equal(t, cfg.Games.Roulette.ChamberSize, rc.ChamberSize)
	assert.Equal(t, cfg.Games.Roulette.LobbyDuration, rc.LobbyDuration)
	assert.Equal(t, cfg.Games.Roulette.MaxBet, rc.MaxBet)

	sc := siegeConfig(cfg.Games.Siege)
	def := siege.DefaultConfig()
	assert.Equal(t, def.City, sc.City)
	assert.Equal(t, def.Attacker, sc.Attacker)
	assert.Equal(t, def.Defenses, sc.Defenses)
}
