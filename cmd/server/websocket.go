package main

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Clients are identified by ephemeral ids only; any origin may
	// connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the HTTP connection and registers it as a
// regular client; from here on it speaks the same protocol as the TCP
// path.
func (app *application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	conn := server.NewConnection(server.NewWSTransport(ws), app.Hub, app.Logger)
	app.Hub.Register(conn)

	app.Logger.Info("websocket connection established",
		zap.String("remote_addr", r.RemoteAddr))

	go conn.ReadPump()
}
