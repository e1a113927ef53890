// Package game implements the per-game session engine: the single
// point of truth for move legality, clock accounting and broadcast
// fan-out for one game.
package game

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/castlemate/chess-server/internal/color"
	"github.com/castlemate/chess-server/pkg/events"
	"github.com/castlemate/chess-server/pkg/protocol"
	"github.com/castlemate/chess-server/pkg/rules"
)

// Status is the lifecycle state of a session.
type Status string

// A session is pending until the second player is seated, active while
// the clock runs, and completed once a terminal condition is reached.
// Completed is absorbing; no further moves are accepted.
const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const (
	clockTick         = 100 * time.Millisecond
	broadcastInterval = time.Second
)

// Sender pushes one encoded protocol message to a participant. The
// server's Connection satisfies it; tests substitute in-memory fakes.
type Sender interface {
	Send(msg protocol.Message) error
}

// ChatEntry is one line of the session chat log.
type ChatEntry struct {
	Sender  string
	Message string
}

// Session owns one game's authoritative state: board, per-color clocks,
// chat log and participant sockets. All fields are guarded by mu; the
// clock goroutine and move processing share it so elapsed time is never
// accounted twice.
type Session struct {
	ID string

	mu    sync.Mutex
	board rules.Game

	status     Status
	roles      map[string]color.Color // clientID -> assigned color
	names      map[string]string      // clientID -> display name
	spectators map[string]struct{}
	senders    map[string]Sender // players and spectators

	remaining    map[color.Color]time.Duration
	increment    time.Duration
	lastMoveTime time.Time

	chatLog []ChatEntry

	startTime      time.Time
	endTime        time.Time // zero until the session ends
	resultOverride string    // set for endings the board cannot express

	done    chan struct{}
	stopped bool

	now func() time.Time // clock source, swapped out in tests

	publisher *events.Publisher
	logger    *zap.Logger
}

// NewSession creates a pending session around the given rules engine.
// The clock task does not start until Start is called.
func NewSession(
	id string,
	board rules.Game,
	initial, increment time.Duration,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Session {
	return &Session{
		ID:         id,
		board:      board,
		status:     StatusPending,
		roles:      make(map[string]color.Color),
		names:      make(map[string]string),
		spectators: make(map[string]struct{}),
		senders:    make(map[string]Sender),
		remaining: map[color.Color]time.Duration{
			color.White: initial,
			color.Black: initial,
		},
		increment: increment,
		done:      make(chan struct{}),
		now:       time.Now,
		publisher: publisher,
		logger:    logger,
	}
}

// AddPlayer seats a client, assigning white first, then black. Seating
// an already-seated client just refreshes its socket. Fails with
// ErrGameFull once both colors are taken.
func (s *Session) AddPlayer(clientID, name string, sender Sender) (color.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, seated := s.roles[clientID]
	if !seated {
		switch {
		case !s.colorTakenLocked(color.White):
			role = color.White
		case !s.colorTakenLocked(color.Black):
			role = color.Black
		default:
			return "", ErrGameFull
		}
		s.roles[clientID] = role
	}
	s.names[clientID] = name
	s.senders[clientID] = sender

	s.logger.Info("player added to game",
		zap.String("game_id", s.ID),
		zap.String("client_id", clientID),
		zap.String("role", string(role)))
	return role, nil
}

func (s *Session) colorTakenLocked(c color.Color) bool {
	for _, role := range s.roles {
		if role == c {
			return true
		}
	}
	return false
}

// AddSpectator records a spectator and announces the join to all
// current participants as a system chat line.
func (s *Session) AddSpectator(clientID, name string, sender Sender) {
	s.mu.Lock()
	s.spectators[clientID] = struct{}{}
	s.names[clientID] = name
	s.senders[clientID] = sender
	s.mu.Unlock()

	s.logger.Info("spectator added to game",
		zap.String("game_id", s.ID),
		zap.String("client_id", clientID))

	s.BroadcastChat("System", fmt.Sprintf("%s joined as a spectator", name), "")
}

// RemoveClient removes a client from whichever of players or spectators
// contains it. Losing one of two players while active ends the game by
// forfeit; losing the last player ends the session outright.
func (s *Session) RemoveClient(clientID string) {
	s.mu.Lock()

	var forfeitWinner color.Color
	forfeit := false

	if role, ok := s.roles[clientID]; ok {
		delete(s.roles, clientID)
		if s.status == StatusActive && len(s.roles) == 1 {
			forfeitWinner = role.Opp()
			forfeit = true
		}
	}
	delete(s.spectators, clientID)
	delete(s.senders, clientID)
	delete(s.names, clientID)

	if len(s.roles) == 0 {
		if s.status != StatusCompleted {
			s.endLocked(s.resultLocked())
		}
		s.logger.Info("session ended, no remaining players", zap.String("game_id", s.ID))
	} else if forfeit {
		result := "0-1"
		if forfeitWinner == color.White {
			result = "1-0"
		}
		s.endLocked(result)
		s.logger.Info("session ended by forfeit",
			zap.String("game_id", s.ID),
			zap.String("result", result))
	}
	s.mu.Unlock()

	s.logger.Info("client removed from game",
		zap.String("game_id", s.ID),
		zap.String("client_id", clientID))

	if forfeit {
		s.BroadcastGameOver()
		s.BroadcastState()
	}
}

// Start transitions the session to active and launches the clock task.
// Called exactly once, when the second player is seated.
func (s *Session) Start() {
	s.mu.Lock()
	now := s.now()
	s.status = StatusActive
	s.startTime = now
	s.lastMoveTime = now
	s.mu.Unlock()

	s.logger.Info("game started", zap.String("game_id", s.ID))
	s.publisher.Publish(events.Event{
		Type:   events.EventGameStarted,
		GameID: s.ID,
	})

	go s.clockLoop()
}

// Close ends the session if it is still running and stops the clock
// task. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.status != StatusCompleted {
		s.endLocked(s.resultLocked())
	} else {
		s.stopClockLocked()
	}
	s.mu.Unlock()
}

// endLocked records the terminal result, stamps endTime and stops the
// clock task. Callers hold mu.
func (s *Session) endLocked(result string) {
	s.resultOverride = result
	s.endTime = s.now()
	s.status = StatusCompleted
	s.stopClockLocked()
}

func (s *Session) stopClockLocked() {
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
}

// ProcessMove validates and applies one move for clientID. Validation
// completes before any clock or board mutation so a rejected move never
// leaves half-applied state. On success the new state is broadcast to
// every participant.
func (s *Session) ProcessMove(clientID, token string) error {
	s.mu.Lock()

	role, ok := s.roles[clientID]
	if !ok {
		s.mu.Unlock()
		return ErrNotAPlayer
	}
	if s.status == StatusCompleted {
		s.mu.Unlock()
		return ErrGameOver
	}
	if s.board.Turn() != role {
		s.mu.Unlock()
		return ErrWrongTurn
	}
	if err := rules.ParseMove(token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrMalformedMove, token)
	}
	if !slices.Contains(s.board.LegalMoves(), token) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrIllegalMove, token)
	}

	// Time accounting happens before the move is applied: charge the
	// mover for thinking time, then credit the increment.
	now := s.now()
	prevRemaining := s.remaining[role]
	prevMoveTime := s.lastMoveTime
	var elapsed time.Duration
	if !prevMoveTime.IsZero() {
		elapsed = now.Sub(prevMoveTime)
	}
	s.remaining[role] = max(0, prevRemaining-elapsed) + s.increment
	s.lastMoveTime = now

	if err := s.board.Push(token); err != nil {
		s.remaining[role] = prevRemaining
		s.lastMoveTime = prevMoveTime
		s.mu.Unlock()
		s.logger.Error("rules engine rejected validated move",
			zap.String("game_id", s.ID),
			zap.String("move", token),
			zap.Error(err))
		return fmt.Errorf("applying move %q: %w", token, err)
	}

	over := s.board.IsGameOver()
	if over {
		s.endLocked(s.resultLocked())
	}
	s.mu.Unlock()

	s.logger.Info("move processed",
		zap.String("game_id", s.ID),
		zap.String("client_id", clientID),
		zap.String("move", token))

	if over {
		s.BroadcastGameOver()
	}
	s.BroadcastState()
	return nil
}

// clockLoop is the per-session clock task. Every tick it charges the
// mover's clock; on timeout it ends the game unilaterally; roughly once
// per second it broadcasts state so displayed clocks stay fresh. It
// exits when the session ends.
func (s *Session) clockLoop() {
	ticker := time.NewTicker(clockTick)
	defer ticker.Stop()

	lastBroadcast := s.now()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.status != StatusActive {
				s.mu.Unlock()
				return
			}

			now := s.now()
			mover := s.board.Turn()
			elapsed := now.Sub(s.lastMoveTime)
			s.remaining[mover] = max(0, s.remaining[mover]-elapsed)
			s.lastMoveTime = now

			if s.remaining[mover] <= 0 {
				s.endLocked(s.resultLocked())
				s.mu.Unlock()
				s.logger.Info("game over on time",
					zap.String("game_id", s.ID),
					zap.String("flagged", string(mover)))
				s.BroadcastGameOver()
				s.BroadcastState()
				return
			}
			s.mu.Unlock()

			if s.now().Sub(lastBroadcast) >= broadcastInterval {
				s.BroadcastState()
				lastBroadcast = s.now()
			}
		}
	}
}

// resultLocked classifies the terminal result: checkmate favors the
// side that delivered it, stalemate and material draws score 1/2-1/2, a
// flag fall favors the other color, and anything else defaults to a
// draw. Callers hold mu.
func (s *Session) resultLocked() string {
	if s.resultOverride != "" {
		return s.resultOverride
	}
	if s.board.IsCheckmate() {
		if s.board.Turn() == color.White {
			return "0-1"
		}
		return "1-0"
	}
	if s.board.IsGameOver() {
		return s.board.Result()
	}
	if s.remaining[color.White] <= 0 {
		return "0-1"
	}
	if s.remaining[color.Black] <= 0 {
		return "1-0"
	}
	return "1/2-1/2"
}

// Result returns the session's result string.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

// BroadcastChat appends a role-tagged chat line to the log and fans it
// out to every participant. An empty role tags the sender as a
// spectator. Individual send failures are tolerated; the return value
// reports whether at least one delivery succeeded.
func (s *Session) BroadcastChat(senderName, text string, role color.Color) bool {
	var tag string
	switch role {
	case color.White:
		tag = "[White]"
	case color.Black:
		tag = "[Black]"
	default:
		tag = "[Spectator]"
	}
	displayName := fmt.Sprintf("%s %s", senderName, tag)

	s.mu.Lock()
	s.chatLog = append(s.chatLog, ChatEntry{Sender: displayName, Message: text})
	recipients := s.sendersLocked()
	s.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeChat, protocol.ChatBroadcastPayload{
		Sender:    displayName,
		Message:   text,
		Timestamp: epochSeconds(s.now()),
	})
	if err != nil {
		s.logger.Error("encoding chat message", zap.Error(err))
		return false
	}

	sent := s.fanOut(msg, recipients)
	return sent > 0
}

// BroadcastState sends the full authoritative snapshot to every
// participant. Send failures are logged per client and never abort the
// remaining fan-out.
func (s *Session) BroadcastState() {
	s.mu.Lock()
	state := s.snapshotLocked()
	recipients := s.sendersLocked()
	s.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeUpdate, state)
	if err != nil {
		s.logger.Error("encoding state update", zap.Error(err))
		return
	}
	s.fanOut(msg, recipients)
}

// BroadcastGameStarted announces the transition to active play to every
// participant, carrying both display names, the initial position and
// the starting clocks.
func (s *Session) BroadcastGameStarted() {
	s.mu.Lock()
	payload := protocol.GameStartedPayload{
		GameID:           s.ID,
		GameStatePayload: s.snapshotLocked(),
	}
	recipients := s.sendersLocked()
	s.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeGameStarted, payload)
	if err != nil {
		s.logger.Error("encoding game started message", zap.Error(err))
		return
	}
	s.fanOut(msg, recipients)
}

// BroadcastGameOver announces the terminal result to every participant
// and publishes the game-ended event so the lobby directory can be
// refreshed.
func (s *Session) BroadcastGameOver() {
	s.mu.Lock()
	result := s.resultLocked()
	payload := protocol.GameOverPayload{
		Result:      result,
		WhitePlayer: s.playerNameLocked(color.White),
		BlackPlayer: s.playerNameLocked(color.Black),
		EndTime:     epochSeconds(s.endTime),
	}
	recipients := s.sendersLocked()
	s.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeGameOver, payload)
	if err != nil {
		s.logger.Error("encoding game over message", zap.Error(err))
		return
	}
	s.fanOut(msg, recipients)

	s.publisher.Publish(events.Event{
		Type:    events.EventGameEnded,
		GameID:  s.ID,
		Payload: map[string]string{"result": result},
	})
}

// fanOut delivers msg to every recipient, counting rather than
// propagating failures.
func (s *Session) fanOut(msg protocol.Message, recipients map[string]Sender) int {
	sent := 0
	for clientID, sender := range recipients {
		if err := sender.Send(msg); err != nil {
			s.logger.Error("broadcast send failed",
				zap.String("game_id", s.ID),
				zap.String("client_id", clientID),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

func (s *Session) sendersLocked() map[string]Sender {
	recipients := make(map[string]Sender, len(s.senders))
	for id, sender := range s.senders {
		recipients[id] = sender
	}
	return recipients
}

func (s *Session) snapshotLocked() protocol.GameStatePayload {
	return protocol.GameStatePayload{
		BoardFEN:    s.board.FEN(),
		Turn:        string(s.board.Turn()),
		IsCheck:     s.board.InCheck(),
		IsCheckmate: s.board.IsCheckmate(),
		IsStalemate: s.board.IsStalemate(),
		IsGameOver:  s.board.IsGameOver() || s.status == StatusCompleted,
		Result:      s.resultLocked(),
		TimeRemaining: protocol.TimeRemaining{
			White: s.remaining[color.White].Seconds(),
			Black: s.remaining[color.Black].Seconds(),
		},
		MoveHistory: s.board.Moves(),
		WhitePlayer: s.playerNameLocked(color.White),
		BlackPlayer: s.playerNameLocked(color.Black),
	}
}

func (s *Session) playerNameLocked(c color.Color) string {
	for clientID, role := range s.roles {
		if role == c {
			return s.names[clientID]
		}
	}
	return ""
}

// StateSnapshot returns the current authoritative state for composing
// messages outside the session, e.g. GAME_STARTED.
func (s *Session) StateSnapshot() protocol.GameStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RoleOf returns a seated client's color.
func (s *Session) RoleOf(clientID string) (color.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[clientID]
	return role, ok
}

// PlayerCount reports how many players remain seated.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roles)
}

// SpectatorCount reports how many spectators are watching.
func (s *Session) SpectatorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spectators)
}

// Status returns the session lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TimeRemaining returns the stored clock value for a color.
func (s *Session) TimeRemaining(c color.Color) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining[c]
}

// ChatLog returns a copy of the chat history.
func (s *Session) ChatLog() []ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.chatLog)
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
