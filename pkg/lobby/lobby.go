// Package lobby implements the matchmaking state machine. It tracks
// which clients sit in or watch which games, independent of live game
// state and networking.
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the matchmaking state of a game.
type Status string

// A game waits for a second player, is being played, or is finished and
// kept only for display until the players leave.
const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Game is the lobby's view of one game.
type Game struct {
	ID         string
	Status     Status
	Players    []string
	Spectators map[string]struct{}
}

// Info is a read-only snapshot row used for lobby broadcasts.
type Info struct {
	ID         string
	Status     Status
	Players    []string
	Spectators []string
}

// Lobby is the matchmaking directory. All mutations and snapshot reads
// happen under one mutex per lobby instance since connection handlers
// call concurrently.
type Lobby struct {
	mu            sync.RWMutex
	games         map[string]*Game
	order         []string // game ids in creation order
	playerGame    map[string]string
	spectatorGame map[string]string
	logger        *zap.Logger
}

// New creates an empty lobby.
func New(logger *zap.Logger) *Lobby {
	return &Lobby{
		games:         make(map[string]*Game),
		playerGame:    make(map[string]string),
		spectatorGame: make(map[string]string),
		logger:        logger,
	}
}

// CreateGame allocates a fresh waiting game with playerID as its sole
// member and returns the new game id. A client sits in at most one
// game; any previous seat is released first.
func (l *Lobby) CreateGame(playerID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.leaveLocked(playerID)

	gameID := uuid.New().String()
	l.games[gameID] = &Game{
		ID:         gameID,
		Status:     StatusWaiting,
		Players:    []string{playerID},
		Spectators: make(map[string]struct{}),
	}
	l.order = append(l.order, gameID)
	l.playerGame[playerID] = gameID

	l.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID))
	return gameID
}

// JoinGame seats playerID in an existing game, releasing any seat the
// player already holds elsewhere. It fails if the game is unknown, not
// waiting, already has two players, or already seats this player.
// Joining as the second player transitions the game to playing.
func (l *Lobby) JoinGame(gameID, playerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.playerGame[playerID] == gameID {
		return false
	}
	l.leaveLocked(playerID)
	return l.joinLocked(gameID, playerID)
}

func (l *Lobby) joinLocked(gameID, playerID string) bool {
	g, ok := l.games[gameID]
	if !ok {
		l.logger.Warn("join: game not found", zap.String("game_id", gameID))
		return false
	}
	if g.Status != StatusWaiting {
		l.logger.Warn("join: game not waiting", zap.String("game_id", gameID))
		return false
	}
	if len(g.Players) >= 2 {
		l.logger.Warn("join: game full", zap.String("game_id", gameID))
		return false
	}

	g.Players = append(g.Players, playerID)
	l.playerGame[playerID] = gameID
	if len(g.Players) == 2 {
		g.Status = StatusPlaying
	}

	l.logger.Info("player joined game",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID))
	return true
}

// JoinRandomGame seats playerID in the oldest waiting game, creating a
// fresh game when none is open. It returns the game id and whether an
// existing game was joined (false means a new game was created).
func (l *Lobby) JoinRandomGame(playerID string) (string, bool) {
	l.mu.Lock()
	l.leaveLocked(playerID)
	for _, gameID := range l.order {
		g, ok := l.games[gameID]
		if !ok || g.Status != StatusWaiting || len(g.Players) >= 2 {
			continue
		}
		if l.joinLocked(gameID, playerID) {
			l.mu.Unlock()
			return gameID, true
		}
	}
	l.mu.Unlock()

	return l.CreateGame(playerID), false
}

// LeaveGame removes a client from whichever game it participates in.
// Removing the last player deletes the game outright; removing one of
// two players from a playing game marks it finished (forfeit). Leaving
// as a spectator never affects game status.
func (l *Lobby) LeaveGame(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.leaveLocked(clientID)
}

func (l *Lobby) leaveLocked(clientID string) {
	if gameID, ok := l.playerGame[clientID]; ok {
		delete(l.playerGame, clientID)
		g := l.games[gameID]
		for i, pid := range g.Players {
			if pid == clientID {
				g.Players = append(g.Players[:i], g.Players[i+1:]...)
				break
			}
		}
		switch {
		case len(g.Players) == 0:
			l.deleteGameLocked(gameID)
			l.logger.Info("game removed, no players left", zap.String("game_id", gameID))
		case len(g.Players) == 1 && g.Status == StatusPlaying:
			g.Status = StatusFinished
			l.logger.Info("game finished by forfeit", zap.String("game_id", gameID))
		}
		return
	}

	if gameID, ok := l.spectatorGame[clientID]; ok {
		delete(l.spectatorGame, clientID)
		if g, ok := l.games[gameID]; ok {
			delete(g.Spectators, clientID)
		}
		l.logger.Info("spectator left game",
			zap.String("game_id", gameID),
			zap.String("client_id", clientID))
	}
}

func (l *Lobby) deleteGameLocked(gameID string) {
	g := l.games[gameID]
	for spectatorID := range g.Spectators {
		delete(l.spectatorGame, spectatorID)
	}
	delete(l.games, gameID)
	for i, id := range l.order {
		if id == gameID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// SpectateGame adds clientID to the game's spectator set. Re-adding is
// a no-op, not an error. It fails only when the game is unknown.
func (l *Lobby) SpectateGame(gameID, clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.games[gameID]
	if !ok {
		l.logger.Warn("spectate: game not found", zap.String("game_id", gameID))
		return false
	}

	// A spectator watches one game at a time.
	if prev, ok := l.spectatorGame[clientID]; ok && prev != gameID {
		if pg, ok := l.games[prev]; ok {
			delete(pg.Spectators, clientID)
		}
	}

	g.Spectators[clientID] = struct{}{}
	l.spectatorGame[clientID] = gameID

	l.logger.Info("spectator added",
		zap.String("game_id", gameID),
		zap.String("client_id", clientID))
	return true
}

// MarkFinished flips a game to finished, used when its session ends by
// checkmate, draw or timeout while both players remain seated.
func (l *Lobby) MarkFinished(gameID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.games[gameID]; ok {
		g.Status = StatusFinished
	}
}

// GameState returns the status of a game.
func (l *Lobby) GameState(gameID string) (Status, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.games[gameID]
	if !ok {
		return "", false
	}
	return g.Status, true
}

// Players returns the ordered player ids of a game.
func (l *Lobby) Players(gameID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.games[gameID]
	if !ok {
		return nil
	}
	players := make([]string, len(g.Players))
	copy(players, g.Players)
	return players
}

// Spectators returns the spectator ids of a game.
func (l *Lobby) Spectators(gameID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.games[gameID]
	if !ok {
		return nil
	}
	spectators := make([]string, 0, len(g.Spectators))
	for id := range g.Spectators {
		spectators = append(spectators, id)
	}
	return spectators
}

// OpponentOf returns the other player in playerID's game.
func (l *Lobby) OpponentOf(playerID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	gameID, ok := l.playerGame[playerID]
	if !ok {
		return "", false
	}
	g := l.games[gameID]
	if len(g.Players) < 2 {
		return "", false
	}
	if g.Players[0] == playerID {
		return g.Players[1], true
	}
	return g.Players[0], true
}

// GameOf returns the game a client participates in, as player or
// spectator.
func (l *Lobby) GameOf(clientID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if gameID, ok := l.playerGame[clientID]; ok {
		return gameID, true
	}
	gameID, ok := l.spectatorGame[clientID]
	return gameID, ok
}

// IsPlayer reports whether clientID is seated as a player somewhere.
func (l *Lobby) IsPlayer(clientID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.playerGame[clientID]
	return ok
}

// GameIDs returns every game id in creation order.
func (l *Lobby) GameIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, len(l.order))
	copy(ids, l.order)
	return ids
}

// ActiveGameIDs returns ids of games currently being played.
func (l *Lobby) ActiveGameIDs() []string {
	return l.gameIDsByStatus(StatusPlaying)
}

// WaitingGameIDs returns ids of games still waiting for an opponent.
func (l *Lobby) WaitingGameIDs() []string {
	return l.gameIDsByStatus(StatusWaiting)
}

func (l *Lobby) gameIDsByStatus(status Status) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []string
	for _, id := range l.order {
		if l.games[id].Status == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a consistent copy of the whole directory in creation
// order, taken under the lobby lock so broadcasts never see a game
// mid-transition.
func (l *Lobby) Snapshot() []Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	infos := make([]Info, 0, len(l.order))
	for _, id := range l.order {
		g := l.games[id]
		players := make([]string, len(g.Players))
		copy(players, g.Players)
		spectators := make([]string, 0, len(g.Spectators))
		for sid := range g.Spectators {
			spectators = append(spectators, sid)
		}
		infos = append(infos, Info{
			ID:         id,
			Status:     g.Status,
			Players:    players,
			Spectators: spectators,
		})
	}
	return infos
}
