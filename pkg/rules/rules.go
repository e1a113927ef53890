// Package rules is the boundary to the chess rules engine. The session
// engine only ever talks to the Game interface; the backing
// implementation wraps corentings/chess.
package rules

import (
	"errors"
	"fmt"

	"github.com/castlemate/chess-server/internal/color"
)

// ErrBadMoveFormat is returned by ParseMove for tokens that are not
// syntactically valid coordinate moves, independent of the position.
var ErrBadMoveFormat = errors.New("rules: bad move format")

// Game is the live rules-engine view of one chess game. Implementations
// are not safe for concurrent use; the owning session serializes
// access.
type Game interface {
	// Turn reports the color to move.
	Turn() color.Color
	// LegalMoves lists every legal move for the current position in
	// coordinate notation.
	LegalMoves() []string
	// Push applies a move in coordinate notation. The position is
	// unchanged on error.
	Push(move string) error
	// FEN serializes the current position.
	FEN() string
	// Moves returns the move history in coordinate notation.
	Moves() []string
	// InCheck reports whether the side to move is in check.
	InCheck() bool
	// IsCheckmate reports whether the side to move is checkmated.
	IsCheckmate() bool
	// IsStalemate reports whether the side to move is stalemated.
	IsStalemate() bool
	// IsGameOver reports whether the position is terminal, including
	// draws by insufficient material or repetition rules.
	IsGameOver() bool
	// Result returns "1-0", "0-1" or "1/2-1/2" for terminal positions
	// and "*" otherwise.
	Result() string
}

// ParseMove validates a move token: a 4-character coordinate pair such
// as "e2e4", optionally suffixed with a promotion piece letter from
// {q, r, b, n}. Whether the move is legal is a separate question
// answered against LegalMoves.
func ParseMove(token string) error {
	if len(token) != 4 && len(token) != 5 {
		return fmt.Errorf("%w: %q", ErrBadMoveFormat, token)
	}
	for i := 0; i < 4; i += 2 {
		if token[i] < 'a' || token[i] > 'h' {
			return fmt.Errorf("%w: bad file in %q", ErrBadMoveFormat, token)
		}
		if token[i+1] < '1' || token[i+1] > '8' {
			return fmt.Errorf("%w: bad rank in %q", ErrBadMoveFormat, token)
		}
	}
	if len(token) == 5 {
		switch token[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return fmt.Errorf("%w: bad promotion piece %q", ErrBadMoveFormat, token[4:])
		}
	}
	return nil
}
