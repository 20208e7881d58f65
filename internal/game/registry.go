package game

import (
	"fmt"
	"sync"
)

// SessionRegistry tracks the live session of every chat and which chat each
// participating actor is currently bound to. It is shared by all game types,
// so an actor can be an active participant of at most one session at a time.
type SessionRegistry struct {
	sessions map[int64]Session // chatID -> session
	busy     map[int64]int64   // actorID -> chatID
	mu       sync.RWMutex
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]Session),
		busy:     make(map[int64]int64),
	}
}

// Register binds a session to its chat.
// Returns ErrChannelOccupied if the chat already has a live session.
func (r *SessionRegistry) Register(s Session) error {
	if s == nil {
		return fmt.Errorf("cannot register nil session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ChatID()]; exists {
		return ErrChannelOccupied
	}
	r.sessions[s.ChatID()] = s
	return nil
}

// Unregister removes the chat's session and frees every actor bound to it.
// Unregistering an empty chat is a no-op.
func (r *SessionRegistry) Unregister(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, chatID)
	for actorID, boundChat := range r.busy {
		if boundChat == chatID {
			delete(r.busy, actorID)
		}
	}
}

// Get returns the live session of a chat.
func (r *SessionRegistry) Get(chatID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

// IsActorBusy reports whether the actor participates in any live session.
func (r *SessionRegistry) IsActorBusy(actorID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.busy[actorID]
	return ok
}

// MarkBusy binds an actor to the session of chatID.
// Returns ErrActorBusy if the actor is already bound to any session.
func (r *SessionRegistry) MarkBusy(actorID, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.busy[actorID]; ok {
		return ErrActorBusy
	}
	r.busy[actorID] = chatID
	return nil
}

// MarkFree releases an actor bound to chatID.
// Bindings to other chats are left untouched.
func (r *SessionRegistry) MarkFree(actorID, chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if boundChat, ok := r.busy[actorID]; ok && boundChat == chatID {
		delete(r.busy, actorID)
	}
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
