package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLobby() *Lobby {
	return New(zap.NewNop())
}

func TestCreateGame(t *testing.T) {
	l := newTestLobby()

	gameID := l.CreateGame("p1")
	require.NotEmpty(t, gameID)

	status, ok := l.GameState(gameID)
	require.True(t, ok)
	assert.Equal(t, StatusWaiting, status)
	assert.Equal(t, []string{"p1"}, l.Players(gameID))
	assert.True(t, l.IsPlayer("p1"))
}

func TestJoinGameTransitionsToPlaying(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")

	require.True(t, l.JoinGame(gameID, "p2"))

	status, _ := l.GameState(gameID)
	assert.Equal(t, StatusPlaying, status)
	assert.Equal(t, []string{"p1", "p2"}, l.Players(gameID))

	opp, ok := l.OpponentOf("p1")
	require.True(t, ok)
	assert.Equal(t, "p2", opp)
}

func TestJoinGameRejectsUnknownAndFull(t *testing.T) {
	l := newTestLobby()

	assert.False(t, l.JoinGame("no-such-game", "p1"))

	gameID := l.CreateGame("p1")
	require.True(t, l.JoinGame(gameID, "p2"))

	// A third seat request must not disturb the seated players.
	assert.False(t, l.JoinGame(gameID, "p3"))
	assert.Equal(t, []string{"p1", "p2"}, l.Players(gameID))
	assert.False(t, l.IsPlayer("p3"))
}

func TestJoinRandomGamePrefersOldestWaiting(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	second := l.CreateGame("p2")

	gameID, joined := l.JoinRandomGame("p3")
	assert.True(t, joined)
	assert.Equal(t, first, gameID)

	gameID, joined = l.JoinRandomGame("p4")
	assert.True(t, joined)
	assert.Equal(t, second, gameID)
}

func TestJoinRandomGameCreatesWhenNoneWaiting(t *testing.T) {
	l := newTestLobby()

	gameID, joined := l.JoinRandomGame("p1")
	assert.False(t, joined)

	status, ok := l.GameState(gameID)
	require.True(t, ok)
	assert.Equal(t, StatusWaiting, status)
	assert.Equal(t, []string{"p1"}, l.Players(gameID))
}

func TestCreateGameReleasesPreviousSeat(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	second := l.CreateGame("p1")

	// The abandoned solo game is gone; no ghost seat survives.
	_, ok := l.GameState(first)
	assert.False(t, ok)
	assert.Equal(t, []string{second}, l.GameIDs())
	assert.Equal(t, []string{"p1"}, l.Players(second))

	l.LeaveGame("p1")
	assert.Empty(t, l.GameIDs())
	assert.False(t, l.IsPlayer("p1"))
}

func TestCreateGameForfeitsActiveGame(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	require.True(t, l.JoinGame(first, "p2"))

	second := l.CreateGame("p1")

	status, ok := l.GameState(first)
	require.True(t, ok)
	assert.Equal(t, StatusFinished, status)
	assert.Equal(t, []string{"p2"}, l.Players(first))
	assert.Equal(t, []string{"p1"}, l.Players(second))
}

func TestJoinGameReleasesPreviousSeat(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	second := l.CreateGame("p2")

	require.True(t, l.JoinGame(second, "p1"))

	_, ok := l.GameState(first)
	assert.False(t, ok)
	assert.Equal(t, []string{"p2", "p1"}, l.Players(second))

	gameID, ok := l.GameOf("p1")
	require.True(t, ok)
	assert.Equal(t, second, gameID)
}

func TestJoinGameRejectsOwnGame(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")

	assert.False(t, l.JoinGame(gameID, "p1"))
	assert.Equal(t, []string{"p1"}, l.Players(gameID))
}

func TestJoinRandomGameNeverMatchesOwnAbandonedGame(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")

	gameID, joined := l.JoinRandomGame("p1")
	assert.False(t, joined)
	assert.NotEqual(t, first, gameID)

	_, ok := l.GameState(first)
	assert.False(t, ok)
}

func TestLeaveGameSolePlayerDeletesGame(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")
	require.True(t, l.SpectateGame(gameID, "s1"))

	l.LeaveGame("p1")

	_, ok := l.GameState(gameID)
	assert.False(t, ok)
	assert.Empty(t, l.GameIDs())

	// The spectator mapping must not dangle after the game is gone.
	_, ok = l.GameOf("s1")
	assert.False(t, ok)
}

func TestLeaveGameForfeitMarksFinished(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")
	require.True(t, l.JoinGame(gameID, "p2"))

	l.LeaveGame("p2")

	status, ok := l.GameState(gameID)
	require.True(t, ok)
	assert.Equal(t, StatusFinished, status)
	assert.Equal(t, []string{"p1"}, l.Players(gameID))
}

func TestSpectateGame(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")

	assert.False(t, l.SpectateGame("no-such-game", "s1"))

	require.True(t, l.SpectateGame(gameID, "s1"))
	// Spectating twice is a no-op.
	require.True(t, l.SpectateGame(gameID, "s1"))
	assert.Equal(t, []string{"s1"}, l.Spectators(gameID))

	got, ok := l.GameOf("s1")
	require.True(t, ok)
	assert.Equal(t, gameID, got)
	assert.False(t, l.IsPlayer("s1"))
}

func TestSpectateSwitchesGames(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	second := l.CreateGame("p2")
	require.True(t, l.SpectateGame(first, "s1"))

	require.True(t, l.SpectateGame(second, "s1"))

	assert.Empty(t, l.Spectators(first))
	assert.Equal(t, []string{"s1"}, l.Spectators(second))

	gameID, ok := l.GameOf("s1")
	require.True(t, ok)
	assert.Equal(t, second, gameID)
}

func TestSpectatorLeaveDoesNotTouchStatus(t *testing.T) {
	l := newTestLobby()
	gameID := l.CreateGame("p1")
	require.True(t, l.JoinGame(gameID, "p2"))
	require.True(t, l.SpectateGame(gameID, "s1"))

	l.LeaveGame("s1")

	status, _ := l.GameState(gameID)
	assert.Equal(t, StatusPlaying, status)
	assert.Empty(t, l.Spectators(gameID))
}

func TestGameIDFilters(t *testing.T) {
	l := newTestLobby()
	waiting := l.CreateGame("p1")
	playing := l.CreateGame("p2")
	require.True(t, l.JoinGame(playing, "p3"))
	finished := l.CreateGame("p4")
	require.True(t, l.JoinGame(finished, "p5"))
	l.MarkFinished(finished)

	assert.Equal(t, []string{waiting, playing, finished}, l.GameIDs())
	assert.Equal(t, []string{waiting}, l.WaitingGameIDs())
	assert.Equal(t, []string{playing}, l.ActiveGameIDs())
}

func TestSnapshot(t *testing.T) {
	l := newTestLobby()
	first := l.CreateGame("p1")
	second := l.CreateGame("p2")
	require.True(t, l.JoinGame(second, "p3"))
	require.True(t, l.SpectateGame(second, "s1"))

	infos := l.Snapshot()
	require.Len(t, infos, 2)

	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, StatusWaiting, infos[0].Status)
	assert.Equal(t, []string{"p1"}, infos[0].Players)
	assert.Empty(t, infos[0].Spectators)

	assert.Equal(t, second, infos[1].ID)
	assert.Equal(t, StatusPlaying, infos[1].Status)
	assert.Equal(t, []string{"p2", "p3"}, infos[1].Players)
	assert.Equal(t, []string{"s1"}, infos[1].Spectators)
}
