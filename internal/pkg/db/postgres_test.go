package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-roulette-bot/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:            "db.internal",
		Port:            6432,
		User:            "roulette",
		Password:        "p@ss/word",
		Name:            "roulette",
		SSLMode:         "require",
		ApplicationName: "roulette-test",
		PoolSize:        8,
		MinConns:        20,
		ConnectTimeout:  3 * time.Second,
		MaxConnLifetime: 10 * time.Minute,
		MaxConnIdleTime: time.Minute,
		HealthCheck:     15 * time.Second,
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(6432), pc.ConnConfig.Port)
	assert.Equal(t, "p@ss/word", pc.ConnConfig.Password)
	assert.Equal(t, "roulette", pc.ConnConfig.Database)
	assert.NotNil(t, pc.ConnConfig.TLSConfig)
	assert.Equal(t, "roulette-test", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(8), pc.MinConns, "min_conns is capped by pool_size")
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 15*time.Second, pc.HealthCheckPeriod)
}

func TestPoolConfig_ZeroValuesKeepDefaults(t *testing.T) {
	pc, err := PoolConfig(&config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Name: "d"})
	require.NoError(t, err)

	assert.Nil(t, pc.ConnConfig.TLSConfig)
	assert.Positive(t, pc.MaxConns)
	assert.Zero(t, pc.MinConns)
	assert.Positive(t, pc.HealthCheckPeriod)
}
