// Package model defines the data models for the roulette bot.
package model

import "time"

// User represents a Telegram user account.
type User struct {
	TelegramID     int64     `db:"telegram_id"`
	Username       string    `db:"username"`
	Balance        int64     `db:"balance"`
	LastDailyClaim int64     `db:"last_daily_claim"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// AuditEntry is a fire-and-forget record of a game event.
// Data is stored as JSONB.
type AuditEntry struct {
	ID        int64          `db:"id"`
	FromID    int64          `db:"from_id"`
	ToID      int64          `db:"to_id"`
	Subject   string         `db:"subject"`
	Data      map[string]any `db:"data"`
	CreatedAt time.Time      `db:"created_at"`
}

// GameStat holds a user's lifetime counters for one game.
type GameStat struct {
	UserID         int64     `db:"user_id"`
	Username       string    `db:"username"`
	Game           string    `db:"game"`
	Played         int64     `db:"played"`
	Wins           int64     `db:"wins"`
	ShotsFired     int64     `db:"shots_fired"`
	RoundsSurvived int64     `db:"rounds_survived"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeInitial        = "initial"         // Initial balance on account creation
	TxTypeDaily          = "daily"           // Daily reward claim
	TxTypeAdminAdd       = "admin_add"       // Admin added balance
	TxTypeRouletteEntry  = "roulette_entry"  // Roulette entry fee
	TxTypeRouletteBet    = "roulette_bet"    // Spectator bet placement
	TxTypeRoulettePayout = "roulette_payout" // Pot or winning bet payout
	TxTypeRouletteRefund = "roulette_refund" // Entry or bet refund
	TxTypeSiegeLoot      = "siege_loot"      // Siege loot share
)

// GameTransactionTypes returns the transaction types produced by games.
func GameTransactionTypes() []string {
	return []string{TxTypeRouletteEntry, TxTypeRouletteBet, TxTypeRoulettePayout, TxTypeRouletteRefund, TxTypeSiegeLoot}
}
