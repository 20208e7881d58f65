// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment
// variable overrides.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
	// ShutdownTimeout bounds how long running games get to refund and close.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	ApplicationName string        `mapstructure:"application_name"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheck     time.Duration `mapstructure:"health_check_period"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// DailyConfig holds daily reward configuration.
type DailyConfig struct {
	Reward        int64 `mapstructure:"reward"`
	CooldownHours int   `mapstructure:"cooldown_hours"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Roulette RouletteConfig `mapstructure:"roulette"`
	Siege    SiegeConfig    `mapstructure:"siege"`
}

// RouletteConfig holds roulette tuning.
type RouletteConfig struct {
	MinPlayers           int           `mapstructure:"min_players"`
	MaxPlayers           int           `mapstructure:"max_players"`
	LobbyDuration        time.Duration `mapstructure:"lobby_duration"`
	TargetTimeout        time.Duration `mapstructure:"target_timeout"`
	RedirectTimeout      time.Duration `mapstructure:"redirect_timeout"`
	TurnDelay            time.Duration `mapstructure:"turn_delay"`
	ChamberSize          int           `mapstructure:"chamber_size"`
	BaseLethality        int           `mapstructure:"base_lethality"`
	MaxLethality         int           `mapstructure:"max_lethality"`
	SuddenDeathLethality int           `mapstructure:"sudden_death_lethality"`
	EventChance          float64       `mapstructure:"event_chance"`
	InstantKillChance    float64       `mapstructure:"instant_kill_chance"`
	VestBlockChance      float64       `mapstructure:"vest_block_chance"`
	MaxIdleRounds        int           `mapstructure:"max_idle_rounds"`
	MaxEntryFee          int64         `mapstructure:"max_entry_fee"`
	MaxBet               int64         `mapstructure:"max_bet"`
	TopLimit             int           `mapstructure:"top_limit"`
}

// SiegeConfig holds raid tuning and the city template.
type SiegeConfig struct {
	LobbyDuration time.Duration   `mapstructure:"lobby_duration"`
	MinAttackers  int             `mapstructure:"min_attackers"`
	MaxAttackers  int             `mapstructure:"max_attackers"`
	ExchangeDelay time.Duration   `mapstructure:"exchange_delay"`
	MaxTurns      int             `mapstructure:"max_turns"`
	Loot          int64           `mapstructure:"loot"`
	City          string          `mapstructure:"city"`
	Attacker      AttackerConfig  `mapstructure:"attacker"`
	Defenses      []DefenseConfig `mapstructure:"defenses"`
}

// AttackerConfig holds the base stats of every raider.
type AttackerConfig struct {
	Damage  int `mapstructure:"damage"`
	Defense int `mapstructure:"defense"`
	HP      int `mapstructure:"hp"`
}

// DefenseConfig describes one city defense.
type DefenseConfig struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
	Damage   int    `mapstructure:"damage"`
	HP       int    `mapstructure:"hp"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory and for a .env file in
// the working directory.
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, DATABASE_HOST, GAMES_ROULETTE_MAX_BET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can provide all config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Registered so AutomaticEnv picks BOT_TOKEN up on Unmarshal.
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "roulette")
	v.SetDefault("database.name", "roulette")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.application_name", "telegram-roulette-bot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")

	// Daily reward defaults
	v.SetDefault("daily.reward", 500)
	v.SetDefault("daily.cooldown_hours", 24)

	// Roulette defaults
	v.SetDefault("games.roulette.min_players", 2)
	v.SetDefault("games.roulette.max_players", 10)
	v.SetDefault("games.roulette.lobby_duration", "60s")
	v.SetDefault("games.roulette.target_timeout", "15s")
	v.SetDefault("games.roulette.redirect_timeout", "30s")
	v.SetDefault("games.roulette.turn_delay", "1500ms")
	v.SetDefault("games.roulette.chamber_size", 6)
	v.SetDefault("games.roulette.base_lethality", 1)
	v.SetDefault("games.roulette.max_lethality", 5)
	v.SetDefault("games.roulette.sudden_death_lethality", 3)
	v.SetDefault("games.roulette.event_chance", 0.30)
	v.SetDefault("games.roulette.instant_kill_chance", 0.25)
	v.SetDefault("games.roulette.vest_block_chance", 0.50)
	v.SetDefault("games.roulette.max_idle_rounds", 3)
	v.SetDefault("games.roulette.max_entry_fee", 100000)
	v.SetDefault("games.roulette.max_bet", 100000)
	v.SetDefault("games.roulette.top_limit", 10)

	// Siege defaults
	v.SetDefault("games.siege.lobby_duration", "60s")
	v.SetDefault("games.siege.min_attackers", 1)
	v.SetDefault("games.siege.max_attackers", 8)
	v.SetDefault("games.siege.exchange_delay", "2s")
	v.SetDefault("games.siege.max_turns", 200)
	v.SetDefault("games.siege.loot", 600)
	v.SetDefault("games.siege.city", "Ironhold")
	v.SetDefault("games.siege.attacker.damage", 12)
	v.SetDefault("games.siege.attacker.defense", 3)
	v.SetDefault("games.siege.attacker.hp", 60)
	v.SetDefault("games.siege.defenses", []map[string]any{
		{"name": "Main Gate", "category": "wall", "damage": 0, "hp": 150},
		{"name": "Archer Tower", "category": "tower", "damage": 8, "hp": 60},
		{"name": "Cannon Battery", "category": "artillery", "damage": 14, "hp": 80},
		{"name": "Garrison", "category": "troops", "damage": 6, "hp": 100},
	})
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
