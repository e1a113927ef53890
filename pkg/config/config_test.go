package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeControlDefaults(t *testing.T) {
	t.Setenv("GAME_INITIAL_SECONDS", "")
	t.Setenv("GAME_INCREMENT_SECONDS", "")

	initial, increment := TimeControlFromEnv()
	assert.Equal(t, DefaultInitialTime, initial)
	assert.Equal(t, DefaultIncrement, increment)
}

func TestTimeControlFromEnv(t *testing.T) {
	t.Setenv("GAME_INITIAL_SECONDS", "300")
	t.Setenv("GAME_INCREMENT_SECONDS", "2")

	initial, increment := TimeControlFromEnv()
	assert.Equal(t, 5*time.Minute, initial)
	assert.Equal(t, 2*time.Second, increment)
}

func TestTimeControlRejectsBadValues(t *testing.T) {
	t.Setenv("GAME_INITIAL_SECONDS", "not-a-number")
	t.Setenv("GAME_INCREMENT_SECONDS", "-5")

	initial, increment := TimeControlFromEnv()
	assert.Equal(t, DefaultInitialTime, initial)
	assert.Equal(t, DefaultIncrement, increment)
}
