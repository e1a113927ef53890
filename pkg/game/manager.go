package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/events"
	"github.com/castlemate/chess-server/pkg/rules"
)

// Repository stores live sessions keyed by game id.
type Repository interface {
	Save(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// Manager creates, looks up and tears down game sessions.
type Manager struct {
	repo      Repository
	initial   time.Duration
	increment time.Duration
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewManager creates a manager backed by the given repository. Every
// session it creates starts with the configured initial time and
// per-move increment.
func NewManager(
	repo Repository,
	initial, increment time.Duration,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		repo:      repo,
		initial:   initial,
		increment: increment,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateSession builds a pending session for gameID around a fresh
// rules engine and registers it.
func (m *Manager) CreateSession(gameID string) *Session {
	session := NewSession(gameID, rules.NewGame(), m.initial, m.increment, m.publisher, m.logger)
	m.repo.Save(session)

	m.logger.Info("created new game session", zap.String("game_id", gameID))

	m.publisher.Publish(events.Event{
		Type:   events.EventGameCreated,
		GameID: gameID,
	})
	return session
}

// GetSession returns a session by game id.
func (m *Manager) GetSession(gameID string) (*Session, bool) {
	return m.repo.Get(gameID)
}

// RemoveSession closes a finished session and drops it from storage.
func (m *Manager) RemoveSession(gameID string) {
	if session, ok := m.repo.Get(gameID); ok {
		session.Close()
		m.repo.Delete(gameID)
	}
	m.logger.Info("removed game session", zap.String("game_id", gameID))
}
