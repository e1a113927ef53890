package rules

import (
	"github.com/corentings/chess/v2"

	"github.com/castlemate/chess-server/internal/color"
)

// chessGame adapts corentings/chess to the Game interface.
type chessGame struct {
	game *chess.Game
}

// NewGame returns a rules engine holding a fresh game from the standard
// starting position.
func NewGame() Game {
	return &chessGame{game: chess.NewGame()}
}

func (c *chessGame) Turn() color.Color {
	if c.game.Position().Turn() == chess.White {
		return color.White
	}
	return color.Black
}

func (c *chessGame) LegalMoves() []string {
	valid := c.game.ValidMoves()
	moves := make([]string, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, m.String())
	}
	return moves
}

func (c *chessGame) Push(move string) error {
	// PushMove parses SAN only; decode the coordinate token first and
	// re-encode it so the Game interface keeps its UCI surface.
	pos := c.game.Position()
	m, err := chess.UCINotation{}.Decode(pos, move)
	if err != nil {
		return err
	}
	return c.game.PushMove(chess.AlgebraicNotation{}.Encode(pos, m), nil)
}

func (c *chessGame) FEN() string {
	return c.game.FEN()
}

func (c *chessGame) Moves() []string {
	played := c.game.Moves()
	moves := make([]string, 0, len(played))
	for _, m := range played {
		moves = append(moves, m.String())
	}
	return moves
}

func (c *chessGame) InCheck() bool {
	played := c.game.Moves()
	if len(played) == 0 {
		return false
	}
	return played[len(played)-1].HasTag(chess.Check)
}

func (c *chessGame) IsCheckmate() bool {
	return c.game.Method() == chess.Checkmate
}

func (c *chessGame) IsStalemate() bool {
	return c.game.Method() == chess.Stalemate
}

func (c *chessGame) IsGameOver() bool {
	return c.game.Outcome() != chess.NoOutcome
}

func (c *chessGame) Result() string {
	return c.game.Outcome().String()
}
