package server

import (
	"bufio"
	"io"
	"net"

	"github.com/gorilla/websocket"

	"github.com/castlemate/chess-server/pkg/wire"
)

// Transport carries whole protocol messages over a persistent
// connection. The TCP implementation uses length-prefixed framing; the
// websocket implementation maps one protocol message to one text
// message, since websocket frames already delimit payloads.
type Transport interface {
	// ReadMessage blocks until one complete message payload is
	// available.
	ReadMessage() ([]byte, error)
	// WriteMessage writes one complete message payload.
	WriteMessage(data []byte) error
	Close() error
	RemoteAddr() string
}

type tcpTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewTCPTransport wraps a raw TCP connection with wire framing.
func NewTCPTransport(conn net.Conn) Transport {
	return &tcpTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (t *tcpTransport) ReadMessage() ([]byte, error) {
	return wire.ReadFrame(t.reader)
}

func (t *tcpTransport) WriteMessage(data []byte) error {
	return wire.WriteFrame(t.conn, data)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

type wsTransport struct {
	ws *websocket.Conn
}

// NewWSTransport wraps a websocket connection.
func NewWSTransport(ws *websocket.Conn) Transport {
	return &wsTransport{ws: ws}
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	for {
		msgType, data, err := t.ws.ReadMessage()
		if err != nil {
			return nil, normalizeCloseError(err)
		}
		// We only handle text
		if msgType == websocket.TextMessage {
			return data, nil
		}
	}
}

// normalizeCloseError maps an expected websocket closure to io.EOF so
// callers treat it like a peer hanging up a TCP stream.
func normalizeCloseError(err error) error {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return io.EOF
	}
	return err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.ws.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.ws.RemoteAddr().String()
}
