// Package prompt delivers actor choice prompts over Telegram inline
// keyboards and routes the button presses back to the waiting game.
package prompt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Prompt errors.
var (
	ErrUnknownPrompt = errors.New("prompt expired or unknown")
	ErrNotYourPrompt = errors.New("this choice is not yours")
	ErrInvalidChoice = errors.New("invalid choice")
)

type pending struct {
	actorID int64
	options int
	answer  chan int
}

// Broker matches answers to outstanding prompts by token. Each prompt
// accepts exactly one answer, from the actor it was addressed to.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*pending
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{pending: make(map[string]*pending)}
}

// Await registers a prompt with options choices for actorID, hands its
// token to send, and blocks until the actor answers, the timeout expires or
// ctx is done. A timeout returns ok=false and no error. The prompt is
// forgotten on return whatever the outcome.
func (b *Broker) Await(ctx context.Context, actorID int64, options int, timeout time.Duration, send func(token string) error) (int, bool, error) {
	if options <= 0 {
		return 0, false, ErrInvalidChoice
	}

	token := uuid.NewString()
	p := &pending{actorID: actorID, options: options, answer: make(chan int, 1)}

	b.mu.Lock()
	b.pending[token] = p
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, token)
		b.mu.Unlock()
	}()

	if err := send(token); err != nil {
		return 0, false, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case idx := <-p.answer:
		return idx, true, nil
	case <-timer.C:
		return 0, false, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// Resolve delivers actorID's choice for token.
func (b *Broker) Resolve(token string, actorID int64, idx int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[token]
	if !ok {
		return ErrUnknownPrompt
	}
	if p.actorID != actorID {
		return ErrNotYourPrompt
	}
	if idx < 0 || idx >= p.options {
		return ErrInvalidChoice
	}

	delete(b.pending, token)
	p.answer <- idx
	return nil
}

// Pending returns the number of outstanding prompts.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
