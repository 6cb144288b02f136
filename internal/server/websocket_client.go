package server

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketClient wraps a WebSocket connection. Writes are serialized so the
// step observer and the request loop can share the connection.
type WebSocketClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadMessage blocks until a non-blank message arrives and returns it
// trimmed. Blank messages are skipped.
func (c *WebSocketClient) ReadMessage() ([]byte, error) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(message); len(trimmed) > 0 {
			return trimmed, nil
		}
	}
}

// WriteJSON sends v as a JSON text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// CloseWithReason sends a close frame with the given code and text, then
// closes the connection.
func (c *WebSocketClient) CloseWithReason(code int, text string) error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
