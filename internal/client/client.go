// Package client talks to a running mazewave service over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/mazewave/internal/server"
)

// ErrClosed is returned when the server closes the connection mid-request.
var ErrClosed = errors.New("connection closed by server")

// ServerError is an error message the service sent instead of a result.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server refused request: " + e.Message
}

// Client is one connection to the service. Requests on a client are
// serialized.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Dial connects to the service's /ws endpoint, e.g. ws://localhost:8080/ws.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Generate sends one request and waits for its result. onStep, if not nil,
// receives the step messages of a traced request. A refused request returns
// a *ServerError; a failed generation returns the result with OK unset.
func (c *Client) Generate(ctx context.Context, req server.Request, onStep func(server.StepMessage)) (*server.ResultMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Unblock the read loop when ctx ends
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()
	defer c.conn.SetReadDeadline(time.Time{})

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.ClosePolicyViolation) {
				return nil, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}

		switch envelope.Type {
		case server.TypeStep:
			if onStep == nil {
				continue
			}
			var step server.StepMessage
			if err := json.Unmarshal(data, &step); err != nil {
				return nil, fmt.Errorf("malformed step: %w", err)
			}
			onStep(step)
		case server.TypeResult:
			var result server.ResultMessage
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, fmt.Errorf("malformed result: %w", err)
			}
			return &result, nil
		case server.TypeError:
			var msg server.ErrorMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return nil, fmt.Errorf("malformed error: %w", err)
			}
			return nil, &ServerError{Message: msg.Error}
		default:
			return nil, fmt.Errorf("unexpected message type %q", envelope.Type)
		}
	}
}

// Close sends a normal close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
