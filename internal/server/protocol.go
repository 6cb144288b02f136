package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/mazewave/internal/maze"
	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

// Message types sent to clients
const (
	TypeStep   = "step"
	TypeResult = "result"
	TypeError  = "error"
)

var (
	ErrInvalidSize     = errors.New("width and height must be positive")
	ErrRequestTooLarge = errors.New("request too large")
)

// Request asks for one maze. Seed 0 lets the server pick one.
type Request struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Seed   int64 `json:"seed"`
	Trace  bool  `json:"trace"`
}

// StepMessage reports one cell assignment when the request set trace.
type StepMessage struct {
	Type      string `json:"type"`
	Attempt   int    `json:"attempt"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Tile      string `json:"tile"`
	Glyph     string `json:"glyph"`
	Collapsed int    `json:"collapsed"`
	Total     int    `json:"total"`
}

// ResultMessage ends every accepted request.
type ResultMessage struct {
	Type        string `json:"type"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	Seed        int64  `json:"seed"`
	Attempts    int    `json:"attempts"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Grid        string `json:"grid,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	RunID       int64  `json:"run_id,omitempty"`
}

// ErrorMessage answers a request that was refused before generation.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// key identifies requests that always produce the same answer. Unseeded
// requests have no key.
func (r Request) key() string {
	if r.Seed == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d/%d", r.Width, r.Height, r.Seed)
}

func newStepMessage(attempt int, step wfc.Step[maze.Tile]) StepMessage {
	return StepMessage{
		Type:      TypeStep,
		Attempt:   attempt,
		X:         step.X,
		Y:         step.Y,
		Tile:      step.Tile.String(),
		Glyph:     string(step.Tile.Glyph()),
		Collapsed: step.Collapsed,
		Total:     step.Total,
	}
}

func newErrorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: TypeError, Error: err.Error()}
}

// parseRequest decodes and validates a request. maxCells bounds
// width*height.
func parseRequest(data []byte, maxCells int) (Request, error) {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("malformed request: %w", err)
	}

	if req.Width <= 0 || req.Height <= 0 {
		return Request{}, fmt.Errorf("%w, got %dx%d", ErrInvalidSize, req.Width, req.Height)
	}
	// width*height can overflow int
	if req.Width > maxCells/req.Height {
		return Request{}, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrRequestTooLarge, req.Width, req.Height, maxCells)
	}
	return req, nil
}
