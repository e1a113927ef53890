// Package repository provides session storage implementations.
package repository

import (
	"sync"

	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/game"
)

// InMemorySessionRepository is an in-memory implementation of
// game.Repository.
type InMemorySessionRepository struct {
	sessions map[string]*game.Session
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository(logger *zap.Logger) *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*game.Session),
		logger:   logger,
	}
}

// Save stores a session under its game id.
func (r *InMemorySessionRepository) Save(session *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Get retrieves a session by game id.
func (r *InMemorySessionRepository) Get(id string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Delete removes a session.
func (r *InMemorySessionRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Active returns every stored session that is still running.
func (r *InMemorySessionRepository) Active() []*game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*game.Session
	for _, s := range r.sessions {
		if s.Status() == game.StatusActive {
			active = append(active, s)
		}
	}
	return active
}
