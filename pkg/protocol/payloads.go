package protocol

// WelcomePayload is sent once when a connection is accepted.
type WelcomePayload struct {
	ClientID string `json:"client_id"`
}

// SetUsernamePayload carries the display name a client wants to use.
type SetUsernamePayload struct {
	Username string `json:"username"`
}

// SetUsernameAckPayload confirms a username change.
type SetUsernameAckPayload struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// JoinGamePayload requests joining a game. An empty GameID means "join
// any waiting game, creating one if none exists".
type JoinGamePayload struct {
	GameID string `json:"game_id,omitempty"`
}

// GameJoinedPayload answers CREATE_GAME and JOIN_GAME with the game and
// the color the client was seated as.
type GameJoinedPayload struct {
	GameID string `json:"game_id"`
	Role   string `json:"role"`
}

// SpectatePayload names the game to watch; echoed back as confirmation.
type SpectatePayload struct {
	GameID string `json:"game_id"`
}

// MovePayload carries a move in coordinate notation, e.g. "e2e4" or
// "e7e8q".
type MovePayload struct {
	Move string `json:"move"`
}

// ChatPayload is the client→server chat request.
type ChatPayload struct {
	Message string `json:"message"`
}

// ChatBroadcastPayload is the server→client chat fan-out. Sender is the
// display name already annotated with the sender's role. Timestamp is
// epoch seconds.
type ChatBroadcastPayload struct {
	Sender    string  `json:"sender"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// TimeRemaining reports both clocks in seconds.
type TimeRemaining struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

// GameStatePayload is the full authoritative snapshot broadcast as
// UPDATE after every state change and clock refresh.
type GameStatePayload struct {
	BoardFEN      string        `json:"board_fen"`
	Turn          string        `json:"turn"`
	IsCheck       bool          `json:"is_check"`
	IsCheckmate   bool          `json:"is_checkmate"`
	IsStalemate   bool          `json:"is_stalemate"`
	IsGameOver    bool          `json:"is_game_over"`
	Result        string        `json:"result"`
	TimeRemaining TimeRemaining `json:"time_remaining"`
	MoveHistory   []string      `json:"move_history"`
	WhitePlayer   string        `json:"white_player"`
	BlackPlayer   string        `json:"black_player"`
}

// GameStartedPayload is sent to both players when the second one joins.
type GameStartedPayload struct {
	GameID string `json:"game_id"`
	GameStatePayload
}

// GameOverPayload announces a finished game. EndTime is epoch seconds.
type GameOverPayload struct {
	Result      string  `json:"result"`
	WhitePlayer string  `json:"white_player"`
	BlackPlayer string  `json:"black_player"`
	EndTime     float64 `json:"end_time"`
}

// ErrorPayload carries a human-readable rejection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// GameSummary is one lobby directory row.
type GameSummary struct {
	Status  string   `json:"status"`
	Players []string `json:"players"`
}

// LobbyUpdatePayload is the lobby directory snapshot pushed to every
// client after state-affecting operations.
type LobbyUpdatePayload struct {
	Games map[string]GameSummary `json:"games"`
}
