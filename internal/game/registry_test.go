package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type stubSession struct {
	chatID int64
}

func (s *stubSession) ID() string                               { return "stub" }
func (s *stubSession) ChatID() int64                            { return s.chatID }
func (s *stubSession) Kind() string                             { return "stub" }
func (s *stubSession) Join(ctx context.Context, a Actor) error  { return nil }
func (s *stubSession) Quit(ctx context.Context, a Actor) error  { return nil }
func (s *stubSession) Start(ctx context.Context, a Actor) error { return nil }

func TestSessionRegistry_RegisterOnePerChat(t *testing.T) {
	r := NewSessionRegistry()

	require.NoError(t, r.Register(&stubSession{chatID: 1}))
	assert.ErrorIs(t, r.Register(&stubSession{chatID: 1}), ErrChannelOccupied)
	require.NoError(t, r.Register(&stubSession{chatID: 2}))
	assert.Equal(t, 2, r.Count())

	s, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), s.ChatID())

	r.Unregister(1)
	_, ok = r.Get(1)
	assert.False(t, ok)
	require.NoError(t, r.Register(&stubSession{chatID: 1}))
}

func TestSessionRegistry_RegisterNil(t *testing.T) {
	r := NewSessionRegistry()
	assert.Error(t, r.Register(nil))
}

func TestSessionRegistry_BusyFlags(t *testing.T) {
	r := NewSessionRegistry()

	require.NoError(t, r.MarkBusy(10, 1))
	assert.True(t, r.IsActorBusy(10))
	assert.ErrorIs(t, r.MarkBusy(10, 2), ErrActorBusy)
	assert.ErrorIs(t, r.MarkBusy(10, 1), ErrActorBusy)

	// Freeing from the wrong chat keeps the binding.
	r.MarkFree(10, 2)
	assert.True(t, r.IsActorBusy(10))

	r.MarkFree(10, 1)
	assert.False(t, r.IsActorBusy(10))
}

func TestSessionRegistry_UnregisterFreesActors(t *testing.T) {
	r := NewSessionRegistry()
	require.NoError(t, r.Register(&stubSession{chatID: 1}))
	require.NoError(t, r.Register(&stubSession{chatID: 2}))
	require.NoError(t, r.MarkBusy(10, 1))
	require.NoError(t, r.MarkBusy(11, 1))
	require.NoError(t, r.MarkBusy(20, 2))

	r.Unregister(1)

	assert.False(t, r.IsActorBusy(10))
	assert.False(t, r.IsActorBusy(11))
	assert.True(t, r.IsActorBusy(20))
}

func TestSessionRegistry_ConcurrentMarkBusy(t *testing.T) {
	r := NewSessionRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for chat := int64(1); chat <= 20; chat++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			if r.MarkBusy(42, chatID) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(chat)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

// TestSessionRegistryBusyProperty checks that after any sequence of bind and
// release operations each actor is bound to at most one chat, and that the
// registry agrees with a simple model.
func TestSessionRegistryBusyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewSessionRegistry()
		model := make(map[int64]int64)

		ops := rapid.IntRange(1, 60).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			actor := rapid.Int64Range(1, 5).Draw(t, "actor")
			chat := rapid.Int64Range(1, 3).Draw(t, "chat")

			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				err := r.MarkBusy(actor, chat)
				if _, bound := model[actor]; bound {
					if err == nil {
						t.Fatalf("actor %d bound twice", actor)
					}
				} else {
					if err != nil {
						t.Fatalf("unexpected error binding actor %d: %v", actor, err)
					}
					model[actor] = chat
				}
			case 1:
				r.MarkFree(actor, chat)
				if model[actor] == chat {
					delete(model, actor)
				}
			case 2:
				r.Unregister(chat)
				for a, c := range model {
					if c == chat {
						delete(model, a)
					}
				}
			}

			for a := int64(1); a <= 5; a++ {
				_, want := model[a]
				if got := r.IsActorBusy(a); got != want {
					t.Fatalf("actor %d busy=%v, model says %v", a, got, want)
				}
			}
		}
	})
}
