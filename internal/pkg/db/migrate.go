package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				balance BIGINT NOT NULL DEFAULT 1000 CHECK (balance >= 0),
				last_daily_claim BIGINT DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
		`,
	},
	{
		name: "transactions table",
		sql: `
			CREATE TABLE IF NOT EXISTS transactions (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				amount BIGINT NOT NULL,
				type VARCHAR(50) NOT NULL,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_transactions_type_time ON transactions(type, created_at DESC);
		`,
	},
	{
		name: "audit_log table",
		sql: `
			CREATE TABLE IF NOT EXISTS audit_log (
				id BIGSERIAL PRIMARY KEY,
				from_id BIGINT NOT NULL DEFAULT 0,
				to_id BIGINT NOT NULL DEFAULT 0,
				subject VARCHAR(100) NOT NULL,
				data JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_audit_log_subject_time ON audit_log(subject, created_at DESC);
		`,
	},
	{
		name: "game_stats table",
		sql: `
			CREATE TABLE IF NOT EXISTS game_stats (
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				game VARCHAR(50) NOT NULL,
				played BIGINT NOT NULL DEFAULT 0,
				wins BIGINT NOT NULL DEFAULT 0,
				shots_fired BIGINT NOT NULL DEFAULT 0,
				rounds_survived BIGINT NOT NULL DEFAULT 0,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (user_id, game)
			);
			CREATE INDEX IF NOT EXISTS idx_game_stats_wins ON game_stats(game, wins DESC);
		`,
	},
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
