package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/internal/usecase"
)

const (
	actionNewGame = "game:new"
	actionRound   = "game:round"
	actionState   = "game:state"
	actionUpdate  = "game:update"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type PlayersPayload struct {
	One string `json:"one"`
	Two string `json:"two"`
}

type Payload struct {
	Players *PlayersPayload    `json:"players,omitempty"`
	Row     *int               `json:"row,omitempty"`
	Column  *int               `json:"column,omitempty"`
	Game    *usecase.Match     `json:"game,omitempty"`
	Outcome *tictactoe.Outcome `json:"outcome,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// client wraps a connection, gorilla allows one concurrent writer per connection.
type client struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
}

func (that *Server) sendMessage(c *client, action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if err = c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = c.conn.WriteJSON(Message{Action: action, Payload: payloadBytes}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(c *client, action, errorMsg string) error {
	if err := that.sendMessage(c, action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload

	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
