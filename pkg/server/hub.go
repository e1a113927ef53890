package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/events"
	"github.com/castlemate/chess-server/pkg/game"
	"github.com/castlemate/chess-server/pkg/lobby"
	"github.com/castlemate/chess-server/pkg/protocol"
)

// Hub is the connection dispatcher. It keeps the directory of connected
// clients, routes inbound messages to the lobby and the owning game
// session, and pushes lobby snapshots to everyone after state-affecting
// operations. Routing runs on each connection's own goroutine so a slow
// broadcast in one game never stalls another connection.
type Hub struct {
	mu      sync.RWMutex // protects the clients map
	clients map[string]*Connection

	lobby     *lobby.Lobby
	manager   *game.Manager
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewHub creates a hub and subscribes it to game lifecycle events so
// sessions that end on their own (timeouts, checkmates) still refresh
// the lobby directory.
func NewHub(
	l *lobby.Lobby,
	manager *game.Manager,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Hub {
	h := &Hub{
		clients:   make(map[string]*Connection),
		lobby:     l,
		manager:   manager,
		publisher: publisher,
		logger:    logger,
	}

	publisher.Subscribe(events.EventGameEnded, func(event events.Event) {
		h.lobby.MarkFinished(event.GameID)
		h.BroadcastLobbyUpdate()
	})

	return h
}

// Register adds a connection to the directory and greets it with its
// assigned client id.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.clients[conn.ID.String()] = conn
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("new connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", total))

	h.send(conn, protocol.TypeWelcome, protocol.WelcomePayload{
		ClientID: conn.ID.String(),
	})
}

// Unregister removes a connection and runs the same cleanup as an
// explicit leave: detach from any game, refresh the lobby for everyone.
func (h *Hub) Unregister(conn *Connection) {
	clientID := conn.ID.String()

	h.mu.Lock()
	_, known := h.clients[clientID]
	delete(h.clients, clientID)
	total := len(h.clients)
	h.mu.Unlock()

	if !known {
		return
	}

	h.logger.Info("connection unregistered",
		zap.String("connection_id", clientID),
		zap.Int("total", total))

	h.detachFromGame(conn)
	h.BroadcastLobbyUpdate()
}

// Route dispatches one decoded message from conn.
func (h *Hub) Route(conn *Connection, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeSetUsername:
		h.handleSetUsername(conn, msg)
	case protocol.TypeCreateGame:
		h.handleCreateGame(conn)
	case protocol.TypeJoinGame:
		h.handleJoinGame(conn, msg)
	case protocol.TypeSpectate:
		h.handleSpectate(conn, msg)
	case protocol.TypeLeave:
		h.detachFromGame(conn)
		h.BroadcastLobbyUpdate()
	case protocol.TypeMove:
		h.handleMove(conn, msg)
	case protocol.TypeChat:
		h.handleChat(conn, msg)
	case protocol.TypeGetGames:
		h.send(conn, protocol.TypeLobbyUpdate, h.lobbySnapshot())
	default:
		h.sendError(conn, "Unknown message type")
	}
}

func (h *Hub) handleSetUsername(conn *Connection, msg protocol.Message) {
	var payload protocol.SetUsernamePayload
	if err := msg.DecodePayload(&payload); err != nil {
		h.sendError(conn, "Invalid SET_USERNAME payload")
		return
	}
	if payload.Username != "" {
		conn.SetUsername(payload.Username)
	}

	h.logger.Info("username set",
		zap.String("connection_id", conn.ID.String()),
		zap.String("username", conn.Username()))

	h.send(conn, protocol.TypeSetUsernameAck, protocol.SetUsernameAckPayload{
		Success:  true,
		Username: conn.Username(),
	})
}

func (h *Hub) handleCreateGame(conn *Connection) {
	clientID := conn.ID.String()

	// Creating a game releases whatever seat the client already holds.
	h.detachFromGame(conn)

	gameID := h.lobby.CreateGame(clientID)
	session := h.manager.CreateSession(gameID)
	role, err := session.AddPlayer(clientID, conn.Username(), conn)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.send(conn, protocol.TypeCreateGame, protocol.GameJoinedPayload{
		GameID: gameID,
		Role:   string(role),
	})
	h.BroadcastLobbyUpdate()
}

func (h *Hub) handleJoinGame(conn *Connection, msg protocol.Message) {
	var payload protocol.JoinGamePayload
	if err := msg.DecodePayload(&payload); err != nil {
		h.sendError(conn, "Invalid JOIN_GAME payload")
		return
	}
	clientID := conn.ID.String()

	gameID := payload.GameID
	if gameID == "" {
		// Join any open game, creating a fresh one when none waits.
		h.detachFromGame(conn)
		joinedID, joinedExisting := h.lobby.JoinRandomGame(clientID)
		if !joinedExisting {
			session := h.manager.CreateSession(joinedID)
			role, err := session.AddPlayer(clientID, conn.Username(), conn)
			if err != nil {
				h.sendError(conn, err.Error())
				return
			}
			h.send(conn, protocol.TypeJoinGame, protocol.GameJoinedPayload{
				GameID: joinedID,
				Role:   string(role),
			})
			h.BroadcastLobbyUpdate()
			return
		}
		h.seatAndStart(conn, joinedID)
		return
	}

	if _, ok := h.manager.GetSession(gameID); !ok {
		h.sendError(conn, "Game not found")
		return
	}
	// Switching games releases the old seat before taking the new one.
	h.detachFromGame(conn)
	if !h.lobby.JoinGame(gameID, clientID) {
		h.sendError(conn, "Cannot join game")
		return
	}
	h.seatAndStart(conn, gameID)
}

// seatAndStart seats conn in an already-joined game and, as this is the
// second player, transitions the session to active: the clock task
// starts and every participant receives GAME_STARTED plus an initial
// state snapshot.
func (h *Hub) seatAndStart(conn *Connection, gameID string) {
	session, ok := h.manager.GetSession(gameID)
	if !ok {
		h.sendError(conn, "Game not found")
		return
	}

	role, err := session.AddPlayer(conn.ID.String(), conn.Username(), conn)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.send(conn, protocol.TypeJoinGame, protocol.GameJoinedPayload{
		GameID: gameID,
		Role:   string(role),
	})

	session.Start()
	session.BroadcastGameStarted()
	session.BroadcastState()
	h.BroadcastLobbyUpdate()
}

func (h *Hub) handleSpectate(conn *Connection, msg protocol.Message) {
	var payload protocol.SpectatePayload
	if err := msg.DecodePayload(&payload); err != nil {
		h.sendError(conn, "Invalid SPECTATE payload")
		return
	}
	clientID := conn.ID.String()

	session, ok := h.manager.GetSession(payload.GameID)
	if !ok {
		h.sendError(conn, "Game not found")
		return
	}
	// A spectator switching games is pulled out of the old one first;
	// a seated player keeps its seat.
	if current, ok := h.lobby.GameOf(clientID); ok &&
		current != payload.GameID && !h.lobby.IsPlayer(clientID) {
		h.detachFromGame(conn)
	}
	if !h.lobby.SpectateGame(payload.GameID, clientID) {
		h.sendError(conn, "Cannot spectate game")
		return
	}

	session.AddSpectator(clientID, conn.Username(), conn)
	h.send(conn, protocol.TypeSpectate, protocol.SpectatePayload{
		GameID: payload.GameID,
	})
	session.BroadcastState()
}

func (h *Hub) handleMove(conn *Connection, msg protocol.Message) {
	var payload protocol.MovePayload
	if err := msg.DecodePayload(&payload); err != nil {
		h.sendError(conn, "Invalid MOVE payload")
		return
	}
	clientID := conn.ID.String()

	gameID, ok := h.lobby.GameOf(clientID)
	if !ok {
		h.sendError(conn, "You are not in a game")
		return
	}
	session, ok := h.manager.GetSession(gameID)
	if !ok {
		h.sendError(conn, "Game not found")
		return
	}

	if err := session.ProcessMove(clientID, payload.Move); err != nil {
		h.sendError(conn, err.Error())
	}
}

func (h *Hub) handleChat(conn *Connection, msg protocol.Message) {
	var payload protocol.ChatPayload
	if err := msg.DecodePayload(&payload); err != nil {
		h.sendError(conn, "Invalid CHAT payload")
		return
	}
	clientID := conn.ID.String()

	gameID, ok := h.lobby.GameOf(clientID)
	if !ok {
		h.sendError(conn, "You must be in a game to send chat messages")
		return
	}
	session, ok := h.manager.GetSession(gameID)
	if !ok {
		h.sendError(conn, "Game not found")
		return
	}

	// Players chat under their color tag, everyone else as spectator.
	role, _ := session.RoleOf(clientID)
	if !session.BroadcastChat(conn.Username(), payload.Message, role) {
		h.sendError(conn, "Failed to send chat message")
	}
}

// detachFromGame removes conn from whatever game it participates in.
// When the last player leaves, remaining spectators receive a final
// GAME_OVER before the session is torn down.
func (h *Hub) detachFromGame(conn *Connection) {
	clientID := conn.ID.String()

	gameID, ok := h.lobby.GameOf(clientID)
	if !ok {
		return
	}
	session, ok := h.manager.GetSession(gameID)
	if !ok {
		h.lobby.LeaveGame(clientID)
		return
	}

	h.lobby.LeaveGame(clientID)
	session.RemoveClient(clientID)

	if session.PlayerCount() == 0 {
		if session.SpectatorCount() > 0 {
			session.BroadcastGameOver()
		}
		h.manager.RemoveSession(gameID)
		return
	}
	session.BroadcastState()
}

// BroadcastLobbyUpdate pushes the current lobby directory to every
// connected client so lobby UIs stay current.
func (h *Hub) BroadcastLobbyUpdate() {
	payload := h.lobbySnapshot()

	msg, err := protocol.NewMessage(protocol.TypeLobbyUpdate, payload)
	if err != nil {
		h.logger.Error("encoding lobby update", zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			h.logger.Error("lobby update send failed",
				zap.String("connection_id", c.ID.String()),
				zap.Error(err))
		}
	}
}

// lobbySnapshot renders the lobby directory with display names resolved
// through the client table.
func (h *Hub) lobbySnapshot() protocol.LobbyUpdatePayload {
	infos := h.lobby.Snapshot()

	h.mu.RLock()
	defer h.mu.RUnlock()

	games := make(map[string]protocol.GameSummary, len(infos))
	for _, info := range infos {
		players := make([]string, 0, len(info.Players))
		for _, pid := range info.Players {
			if c, ok := h.clients[pid]; ok {
				players = append(players, c.Username())
			} else {
				players = append(players, "Unknown")
			}
		}
		games[info.ID] = protocol.GameSummary{
			Status:  string(info.Status),
			Players: players,
		}
	}
	return protocol.LobbyUpdatePayload{Games: games}
}

func (h *Hub) send(conn *Connection, msgType string, payload any) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		h.logger.Error("encoding message",
			zap.String("msg_type", msgType),
			zap.Error(err))
		return
	}
	if err := conn.Send(msg); err != nil {
		h.logger.Error("send failed",
			zap.String("connection_id", conn.ID.String()),
			zap.String("msg_type", msgType),
			zap.Error(err))
	}
}

func (h *Hub) sendError(conn *Connection, message string) {
	h.send(conn, protocol.TypeError, protocol.ErrorPayload{Message: message})
}
