package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlemate/chess-server/pkg/protocol"
)

// Connection is one connected client: an id minted at accept time, its
// transport and a mutable display name.
type Connection struct {
	ID        uuid.UUID
	hub       *Hub
	transport Transport
	writeMu   sync.Mutex // protects concurrent writes to the transport

	mu       sync.RWMutex
	username string

	logger *zap.Logger
}

// NewConnection wraps a transport into a registered-ready connection.
func NewConnection(transport Transport, hub *Hub, logger *zap.Logger) *Connection {
	return &Connection{
		ID:        uuid.New(),
		hub:       hub,
		transport: transport,
		logger:    logger,
	}
}

// Username returns the display name, falling back to a guest name
// derived from the client id until one is set.
func (c *Connection) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.username != "" {
		return c.username
	}
	return fmt.Sprintf("Guest_%s", c.ID.String()[:6])
}

// SetUsername updates the display name. May be called more than once.
func (c *Connection) SetUsername(name string) {
	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
}

// ReadPump handles inbound messages from the client until the
// connection drops, then runs the same cleanup path as an explicit
// leave.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.transport.Close()
	}()

	for {
		payload, err := c.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.logger.Info("connection closed",
					zap.String("connection_id", c.ID.String()))
			} else {
				c.logger.Error("read error",
					zap.String("connection_id", c.ID.String()),
					zap.Error(err))
			}
			return
		}

		msg, err := protocol.Decode(payload)
		if err != nil {
			c.logger.Error("failed to parse inbound message",
				zap.String("connection_id", c.ID.String()),
				zap.Error(err))
			c.hub.sendError(c, "Invalid message format")
			continue
		}

		c.hub.Route(c, msg)
	}
}

// Send encodes and writes one message to this client. Safe for
// concurrent use.
func (c *Connection) Send(msg protocol.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteMessage(data)
}
