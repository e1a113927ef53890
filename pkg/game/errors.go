package game

import "errors"

// Session errors surfaced to the acting client only, never broadcast.
var (
	// ErrNotAPlayer rejects moves from clients that are not seated in
	// this session.
	ErrNotAPlayer = errors.New("you are not a player in this game")
	// ErrGameOver rejects moves once the session has ended.
	ErrGameOver = errors.New("the game is already over")
	// ErrWrongTurn rejects moves made out of turn.
	ErrWrongTurn = errors.New("it's not your turn")
	// ErrMalformedMove rejects move tokens that fail to parse.
	ErrMalformedMove = errors.New("invalid move format")
	// ErrIllegalMove rejects well-formed moves that are not legal in
	// the current position.
	ErrIllegalMove = errors.New("that move is not legal")
	// ErrGameFull rejects a third player; both colors are assigned.
	ErrGameFull = errors.New("both player roles are taken")
)
