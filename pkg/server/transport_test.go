package server

import (
	"io"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCloseError(t *testing.T) {
	for _, code := range []int{
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	} {
		err := normalizeCloseError(&websocket.CloseError{Code: code})
		assert.ErrorIs(t, err, io.EOF, "close code %d", code)
	}

	// Abnormal closures and unrelated errors pass through untouched.
	abnormal := &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	assert.Equal(t, abnormal, normalizeCloseError(abnormal))
	assert.Equal(t, io.ErrUnexpectedEOF, normalizeCloseError(io.ErrUnexpectedEOF))
}
