// Package protocol defines the message envelope exchanged between
// client and server and the typed payloads it carries. One encoded
// message corresponds to exactly one wire frame (TCP) or one text
// message (websocket).
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message type tags. CREATE_GAME, JOIN_GAME and SPECTATE use the same
// tag for the request and its direct response.
const (
	TypeWelcome        = "WELCOME"
	TypeSetUsername    = "SET_USERNAME"
	TypeSetUsernameAck = "SET_USERNAME_ACK"
	TypeCreateGame     = "CREATE_GAME"
	TypeJoinGame       = "JOIN_GAME"
	TypeSpectate       = "SPECTATE"
	TypeLeave          = "LEAVE"
	TypeGetGames       = "GET_GAMES"
	TypeMove           = "MOVE"
	TypeChat           = "CHAT"
	TypeUpdate         = "UPDATE"
	TypeGameStarted    = "GAME_STARTED"
	TypeGameOver       = "GAME_OVER"
	TypeError          = "ERROR"
	TypeLobbyUpdate    = "LOBBY_UPDATE"
)

// ErrMalformedMessage is returned by Decode for messages that are not
// valid JSON or are missing required fields.
var ErrMalformedMessage = errors.New("protocol: malformed message")

// Message is the generic wrapper for everything on the wire. Data holds
// the raw payload which is parsed further based on Type. ClientID is
// optional origin information.
type Message struct {
	Type     string          `json:"msg_type"`
	Data     json.RawMessage `json:"data"`
	ClientID string          `json:"client_id,omitempty"`
}

// NewMessage builds a message of the given type around payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("protocol: encoding %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Data: data}, nil
}

// Encode serializes the message for framing.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encoding message: %w", err)
	}
	return data, nil
}

// DecodePayload parses the message data into v.
func (m Message) DecodePayload(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: bad %s payload: %v", ErrMalformedMessage, m.Type, err)
	}
	return nil
}

// Decode parses a raw frame payload into a Message. Both msg_type and
// data are required.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing msg_type", ErrMalformedMessage)
	}
	if len(m.Data) == 0 {
		return Message{}, fmt.Errorf("%w: missing data", ErrMalformedMessage)
	}
	return m, nil
}
