package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemate/chess-server/internal/color"
)

func TestParseMove(t *testing.T) {
	valid := []string{"e2e4", "a1h8", "g1f3", "e7e8q", "a7a8r", "h2h1b", "b7b8n"}
	for _, token := range valid {
		assert.NoError(t, ParseMove(token), token)
	}

	invalid := []string{
		"",
		"e2",
		"e2e",
		"e2e4e5",
		"i2i4", // file out of range
		"e0e4", // rank out of range
		"e2e9",
		"e7e8k", // king is not a promotion piece
		"e7e8p",
		"2e4e", // file and rank swapped
		"E2E4", // uppercase is rejected
	}
	for _, token := range invalid {
		assert.ErrorIs(t, ParseMove(token), ErrBadMoveFormat, token)
	}
}

func TestNewGameStartingPosition(t *testing.T) {
	g := NewGame()

	assert.Equal(t, color.White, g.Turn())
	assert.False(t, g.IsGameOver())
	assert.False(t, g.InCheck())
	assert.Equal(t, "*", g.Result())
	assert.Empty(t, g.Moves())
	assert.Contains(t, g.LegalMoves(), "e2e4")
	assert.Len(t, g.LegalMoves(), 20)
}

func TestPushFlipsTurnAndRecordsHistory(t *testing.T) {
	g := NewGame()

	require.NoError(t, g.Push("e2e4"))
	assert.Equal(t, color.Black, g.Turn())

	require.NoError(t, g.Push("e7e5"))
	assert.Equal(t, color.White, g.Turn())
	assert.Equal(t, []string{"e2e4", "e7e5"}, g.Moves())
}

func TestPushIllegalMoveLeavesPositionUnchanged(t *testing.T) {
	g := NewGame()
	fen := g.FEN()

	require.Error(t, g.Push("e2e5"))
	assert.Equal(t, fen, g.FEN())
	assert.Equal(t, color.White, g.Turn())
	assert.Empty(t, g.Moves())
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	g := NewGame()
	for _, move := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		require.NoError(t, g.Push(move))
	}

	assert.True(t, g.InCheck())
	assert.True(t, g.IsCheckmate())
	assert.True(t, g.IsGameOver())
	assert.False(t, g.IsStalemate())
	assert.Equal(t, "0-1", g.Result())
}
