package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// StreamInterval is the minimum time between progress events on a stream.
const StreamInterval = 100 * time.Millisecond

// Stream event types.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// StreamEvent is one message sent on the /v1/layout/stream websocket.
type StreamEvent struct {
	Type     string          `json:"type"`
	Progress *StreamProgress `json:"progress,omitempty"`
	Result   *LayoutResponse `json:"result,omitempty"`
	Error    *errorResponse  `json:"error,omitempty"`
}

// StreamProgress reports a running spring relaxation.
type StreamProgress struct {
	Iteration int     `json:"iteration"`
	Damper    float64 `json:"damper"`
	MaxMotion float64 `json:"max_motion"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// layoutStream runs one layout over a websocket. The client sends a
// LayoutRequest as its first message; the server answers with progress
// events, then a single result or error event, and closes the connection.
func (s *Server) layoutStream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "unexpected server error")
	c.SetReadLimit(MaxBodyBytes)

	ctx := r.Context()
	_, data, err := c.Read(ctx)
	if err != nil {
		s.logger.Debug("read stream request", "error", err)
		return
	}
	var req LayoutRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.streamError(ctx, c, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode request: %v", err))
		return
	}
	// Reading is done; a closed connection now cancels ctx.
	ctx = c.CloseRead(ctx)

	if len(req.Graph) == 0 {
		s.streamError(ctx, c, apperr.New(apperr.ErrCodeInvalidInput, "graph is required"))
		return
	}
	g, err := graph.UnmarshalGraph(req.Graph)
	if err != nil {
		s.streamError(ctx, c, err)
		return
	}

	opts := req.Options
	opts.ApplyConfig(s.defaults)
	opts.Progress = layout.Throttle(StreamInterval, func(p layout.Progress) {
		ev := StreamEvent{Type: EventProgress, Progress: &StreamProgress{
			Iteration: p.Iteration,
			Damper:    p.Damper,
			MaxMotion: p.MaxMotion,
			ElapsedMS: p.Elapsed.Milliseconds(),
		}}
		if err := wsjson.Write(ctx, c, ev); err != nil {
			s.logger.Debug("dropped progress event", "error", err)
		}
	})

	res, err := s.runner.Layout(ctx, g, opts)
	if err != nil {
		s.streamError(ctx, c, err)
		return
	}

	ev := StreamEvent{Type: EventResult, Result: &LayoutResponse{
		RequestID: RequestID(r.Context()),
		Graph:     res.Graph,
		Layout:    res.Layout,
		CacheHit:  res.CacheHit,
	}}
	if err := wsjson.Write(ctx, c, ev); err != nil {
		s.logger.Warn("write stream result", "error", err)
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) streamError(ctx context.Context, c *websocket.Conn, err error) {
	code := apperr.GetCode(err)
	msg := apperr.UserMessage(err)
	if code == "" {
		code = apperr.ErrCodeInternal
		msg = http.StatusText(http.StatusInternalServerError)
	}
	if code == apperr.ErrCodeInternal {
		s.logger.Error("stream failed", "error", err)
	}
	ev := StreamEvent{Type: EventError, Error: &errorResponse{Code: string(code), Message: msg}}
	if werr := wsjson.Write(ctx, c, ev); werr != nil {
		s.logger.Debug("write stream error", "error", werr)
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}
