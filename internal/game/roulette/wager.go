package roulette

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/model"
)

// Wager errors.
var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrDuplicateBet   = errors.New("you already placed a bet in this game")
	ErrAlreadySettled = errors.New("wagers already settled")
)

// Bet is a spectator's stake on one participant.
type Bet struct {
	Bettor   game.Actor
	Amount   int64
	TargetID int64
}

// PayoutKind tags why a credit was issued.
type PayoutKind string

const (
	PayoutPot    PayoutKind = "pot"
	PayoutBet    PayoutKind = "bet"
	PayoutRefund PayoutKind = "refund"
)

// Payout is one credit issued on settlement or refund.
type Payout struct {
	ActorID int64
	Name    string
	Amount  int64
	Kind    PayoutKind
}

// WagerLedger holds the entry pot and spectator bets of one session and
// moves coins through a game.Ledger. Debits happen as soon as an entry or
// bet is accepted, credits happen once on Settle or RefundAll.
type WagerLedger struct {
	ledger    game.Ledger
	sessionID string
	fee       int64

	entries    map[int64]game.Actor
	entryOrder []int64
	bets       map[int64]*Bet
	betOrder   []int64
	settled    bool
	mu         sync.Mutex
}

// NewWagerLedger creates a wager ledger charging fee per entry.
func NewWagerLedger(ledger game.Ledger, sessionID string, fee int64) *WagerLedger {
	return &WagerLedger{
		ledger:    ledger,
		sessionID: sessionID,
		fee:       fee,
		entries:   make(map[int64]game.Actor),
		bets:      make(map[int64]*Bet),
	}
}

// Fee returns the entry fee.
func (w *WagerLedger) Fee() int64 {
	return w.fee
}

// CollectEntry debits the entry fee from actor. A free game records the
// entry without touching the ledger.
func (w *WagerLedger) CollectEntry(ctx context.Context, actor game.Actor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.settled {
		return ErrAlreadySettled
	}
	if _, ok := w.entries[actor.ID]; ok {
		return game.ErrDuplicateJoin
	}
	if w.fee > 0 {
		desc := fmt.Sprintf("roulette entry %s", w.sessionID)
		if err := w.ledger.Debit(ctx, actor.ID, w.fee, model.TxTypeRouletteEntry, desc); err != nil {
			return err
		}
	}
	w.entries[actor.ID] = actor
	w.entryOrder = append(w.entryOrder, actor.ID)
	return nil
}

// RefundEntry credits the original entry fee back to actor.
func (w *WagerLedger) RefundEntry(ctx context.Context, actor game.Actor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entries[actor.ID]; !ok {
		return game.ErrNotParticipant
	}
	if w.fee > 0 {
		desc := fmt.Sprintf("roulette entry refund %s", w.sessionID)
		if err := w.ledger.Credit(ctx, actor.ID, w.fee, model.TxTypeRouletteRefund, desc); err != nil {
			return err
		}
	}
	delete(w.entries, actor.ID)
	for i, id := range w.entryOrder {
		if id == actor.ID {
			w.entryOrder = append(w.entryOrder[:i], w.entryOrder[i+1:]...)
			break
		}
	}
	return nil
}

// PlaceBet debits amount from bettor and records a stake on targetID.
// Eligibility of the bettor and the target is the session's concern.
func (w *WagerLedger) PlaceBet(ctx context.Context, bettor game.Actor, amount, targetID int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.settled {
		return ErrAlreadySettled
	}
	if _, ok := w.bets[bettor.ID]; ok {
		return ErrDuplicateBet
	}
	desc := fmt.Sprintf("roulette bet %s", w.sessionID)
	if err := w.ledger.Debit(ctx, bettor.ID, amount, model.TxTypeRouletteBet, desc); err != nil {
		return err
	}
	w.bets[bettor.ID] = &Bet{Bettor: bettor, Amount: amount, TargetID: targetID}
	w.betOrder = append(w.betOrder, bettor.ID)
	return nil
}

// RefundBetsOn returns and removes every stake on targetID. Used when a
// player leaves the lobby.
func (w *WagerLedger) RefundBetsOn(ctx context.Context, targetID int64) ([]Payout, error) {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		return nil, ErrAlreadySettled
	}
	var payouts []Payout
	kept := w.betOrder[:0]
	for _, id := range w.betOrder {
		b := w.bets[id]
		if b.TargetID != targetID {
			kept = append(kept, id)
			continue
		}
		payouts = append(payouts, Payout{ActorID: b.Bettor.ID, Name: b.Bettor.Name, Amount: b.Amount, Kind: PayoutRefund})
		delete(w.bets, id)
	}
	w.betOrder = kept
	w.mu.Unlock()

	return payouts, w.credit(ctx, payouts, "roulette bet refund")
}

// HasBet reports whether the actor already placed a bet.
func (w *WagerLedger) HasBet(actorID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.bets[actorID]
	return ok
}

// EntryPot returns the total of collected entry fees.
func (w *WagerLedger) EntryPot() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fee * int64(len(w.entries))
}

// SpectatorPool returns the total of all spectator stakes.
func (w *WagerLedger) SpectatorPool() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spectatorPoolLocked()
}

func (w *WagerLedger) spectatorPoolLocked() int64 {
	var total int64
	for _, b := range w.bets {
		total += b.Amount
	}
	return total
}

// Bets returns the placed bets in placement order.
func (w *WagerLedger) Bets() []Bet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.betsLocked()
}

func (w *WagerLedger) betsLocked() []Bet {
	bets := make([]Bet, 0, len(w.betOrder))
	for _, id := range w.betOrder {
		bets = append(bets, *w.bets[id])
	}
	return bets
}

// ComputePayouts returns the credits owed when a session ends.
//
// With a winner, the winner takes the whole entry pot, and every bettor who
// backed the winner gets the stake back plus an equal share of the whole
// spectator pool, rounded down; the remainder is forfeited. Without a winner
// nothing is paid.
func ComputePayouts(entryPot int64, bets []Bet, winner *game.Actor) []Payout {
	if winner == nil {
		return nil
	}

	var payouts []Payout
	if entryPot > 0 {
		payouts = append(payouts, Payout{ActorID: winner.ID, Name: winner.Name, Amount: entryPot, Kind: PayoutPot})
	}

	var pool int64
	var winning []Bet
	for _, b := range bets {
		pool += b.Amount
		if b.TargetID == winner.ID {
			winning = append(winning, b)
		}
	}
	if len(winning) == 0 {
		return payouts
	}

	share := pool / int64(len(winning))
	for _, b := range winning {
		payouts = append(payouts, Payout{
			ActorID: b.Bettor.ID,
			Name:    b.Bettor.Name,
			Amount:  b.Amount + share,
			Kind:    PayoutBet,
		})
	}
	return payouts
}

// Settle pays out the session result. It can run only once; a failed credit
// is logged by the caller and does not stop the remaining credits.
func (w *WagerLedger) Settle(ctx context.Context, winner *game.Actor) ([]Payout, error) {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		return nil, ErrAlreadySettled
	}
	w.settled = true
	payouts := ComputePayouts(w.fee*int64(len(w.entries)), w.betsLocked(), winner)
	w.mu.Unlock()

	return payouts, w.credit(ctx, payouts, "roulette payout")
}

// RefundAll returns every entry fee and stake. Used when the lobby fails to
// fill or the game stalls.
func (w *WagerLedger) RefundAll(ctx context.Context) ([]Payout, error) {
	w.mu.Lock()
	if w.settled {
		w.mu.Unlock()
		return nil, ErrAlreadySettled
	}
	w.settled = true

	var payouts []Payout
	if w.fee > 0 {
		for _, id := range w.entryOrder {
			a := w.entries[id]
			payouts = append(payouts, Payout{ActorID: a.ID, Name: a.Name, Amount: w.fee, Kind: PayoutRefund})
		}
	}
	for _, b := range w.betsLocked() {
		payouts = append(payouts, Payout{ActorID: b.Bettor.ID, Name: b.Bettor.Name, Amount: b.Amount, Kind: PayoutRefund})
	}
	w.mu.Unlock()

	return payouts, w.credit(ctx, payouts, "roulette refund")
}

func (w *WagerLedger) credit(ctx context.Context, payouts []Payout, what string) error {
	var errs []error
	for _, p := range payouts {
		txType := model.TxTypeRoulettePayout
		if p.Kind == PayoutRefund {
			txType = model.TxTypeRouletteRefund
		}
		desc := fmt.Sprintf("%s %s (%s)", what, w.sessionID, p.Kind)
		if err := w.ledger.Credit(ctx, p.ActorID, p.Amount, txType, desc); err != nil {
			errs = append(errs, fmt.Errorf("failed to credit %d to %d: %w", p.Amount, p.ActorID, err))
		}
	}
	return errors.Join(errs...)
}
