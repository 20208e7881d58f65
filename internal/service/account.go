// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/repository"
)

// ErrDailyAlreadyClaimed is returned while the daily cooldown is running.
var ErrDailyAlreadyClaimed = errors.New("daily reward already claimed")

// Profile is the /balance view of an account.
type Profile struct {
	User       *model.User
	GameProfit int64
}

// AccountService handles user account operations.
type AccountService struct {
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	dailyReward int64
	cooldownHrs int
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	dailyReward int64,
	cooldownHours int,
) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		txRepo:      txRepo,
		dailyReward: dailyReward,
		cooldownHrs: cooldownHours,
	}
}

// EnsureUser ensures a user exists, creating one if necessary, and keeps
// the stored username current. The bool reports whether it was created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	user, created, err := s.userRepo.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if created {
		desc := "welcome bonus"
		if _, err := s.txRepo.Create(ctx, telegramID, user.Balance, model.TxTypeInitial, &desc); err != nil {
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to record initial balance")
		}
		return user, true, nil
	}

	if user.Username != username && username != "" {
		if err := s.userRepo.UpdateUsername(ctx, telegramID, username); err != nil {
			log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to update username")
		}
		user.Username = username
	}

	return user, false, nil
}

// GetProfile returns a user with their lifetime profit from games.
func (s *AccountService) GetProfile(ctx context.Context, telegramID int64) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	profit, err := s.txRepo.SumByTypes(ctx, telegramID, model.GameTransactionTypes())
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, GameProfit: profit}, nil
}

// Grant adds amount to a user's balance on behalf of an admin.
func (s *AccountService) Grant(ctx context.Context, adminID, telegramID, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.UpdateBalance(ctx, telegramID, amount)
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("granted by %d", adminID)
	if _, err := s.txRepo.Create(ctx, telegramID, amount, model.TxTypeAdminAdd, &desc); err != nil {
		log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to record grant")
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("user_id", telegramID).
		Int64("amount", amount).
		Msg("Balance granted")
	return user, nil
}

// ClaimDaily pays the daily reward. While the cooldown runs it returns
// ErrDailyAlreadyClaimed together with the remaining wait.
func (s *AccountService) ClaimDaily(ctx context.Context, telegramID int64) (*model.User, time.Duration, error) {
	canClaim, remaining, err := s.userRepo.CanClaimDaily(ctx, telegramID, s.cooldownHrs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check daily claim eligibility: %w", err)
	}
	if !canClaim {
		return nil, remaining, ErrDailyAlreadyClaimed
	}

	if _, err := s.userRepo.UpdateDailyClaim(ctx, telegramID, time.Now().Unix()); err != nil {
		return nil, 0, fmt.Errorf("failed to update daily claim time: %w", err)
	}
	user, err := s.userRepo.UpdateBalance(ctx, telegramID, s.dailyReward)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to add daily reward: %w", err)
	}

	desc := "daily reward"
	if _, err := s.txRepo.Create(ctx, telegramID, s.dailyReward, model.TxTypeDaily, &desc); err != nil {
		log.Warn().Err(err).Int64("user_id", telegramID).Msg("Failed to record daily reward")
	}

	return user, 0, nil
}

// DailyReward returns the configured daily reward.
func (s *AccountService) DailyReward() int64 {
	return s.dailyReward
}

// FormatWait renders a cooldown as "3h 4m 5s".
func FormatWait(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, sec)
}
