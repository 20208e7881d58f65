package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/pkg/lock"
	"telegram-roulette-bot/internal/repository"
)

// ErrInvalidAmount is returned for non-positive ledger amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// BalanceStore applies balance changes atomically.
type BalanceStore interface {
	Debit(ctx context.Context, telegramID int64, amount int64) (*model.User, error)
	Credit(ctx context.Context, telegramID int64, amount int64) (*model.User, error)
}

// TransactionStore records balance changes.
type TransactionStore interface {
	Create(ctx context.Context, userID int64, amount int64, txType string, description *string) (*model.Transaction, error)
}

// AuditStore records free-form game audit entries.
type AuditStore interface {
	Create(ctx context.Context, fromID, toID int64, subject string, data map[string]any) (*model.AuditEntry, error)
}

// LedgerService moves coins for games and keeps the transaction history.
// It implements game.Ledger.
type LedgerService struct {
	balances BalanceStore
	txs      TransactionStore
	audit    AuditStore
	locks    *lock.UserLock
}

var _ game.Ledger = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(balances BalanceStore, txs TransactionStore, audit AuditStore, locks *lock.UserLock) *LedgerService {
	if locks == nil {
		locks = lock.NewUserLock()
	}
	return &LedgerService{
		balances: balances,
		txs:      txs,
		audit:    audit,
		locks:    locks,
	}
}

// Debit withdraws amount from a player. Unknown players and short balances
// both surface as game.ErrInsufficientFunds.
func (s *LedgerService) Debit(ctx context.Context, actorID, amount int64, txType, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.locks.WithLock(ctx, actorID, func() error {
		if _, err := s.balances.Debit(ctx, actorID, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) || errors.Is(err, repository.ErrUserNotFound) {
				return game.ErrInsufficientFunds
			}
			return fmt.Errorf("failed to debit %d from %d: %w", amount, actorID, err)
		}
		s.record(ctx, actorID, -amount, txType, description)
		return nil
	})
}

// Credit pays amount to a player.
func (s *LedgerService) Credit(ctx context.Context, actorID, amount int64, txType, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.locks.WithLock(ctx, actorID, func() error {
		if _, err := s.balances.Credit(ctx, actorID, amount); err != nil {
			return fmt.Errorf("failed to credit %d to %d: %w", amount, actorID, err)
		}
		s.record(ctx, actorID, amount, txType, description)
		return nil
	})
}

// RecordTransaction writes an audit entry. Failures are logged only.
func (s *LedgerService) RecordTransaction(ctx context.Context, fromID, toID int64, subject string, data map[string]any) {
	if _, err := s.audit.Create(ctx, fromID, toID, subject, data); err != nil {
		log.Error().Err(err).
			Int64("from_id", fromID).
			Int64("to_id", toID).
			Str("subject", subject).
			Msg("Failed to record audit entry")
	}
}

// The balance is already moved at this point, so a failed history write is
// logged rather than returned.
func (s *LedgerService) record(ctx context.Context, userID, amount int64, txType, description string) {
	var desc *string
	if description != "" {
		desc = &description
	}
	if _, err := s.txs.Create(ctx, userID, amount, txType, desc); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Int64("amount", amount).
			Str("type", txType).
			Msg("Failed to record transaction")
	}
}
