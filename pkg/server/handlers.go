package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matzehuels/graphlayout/pkg/buildinfo"
	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
	"github.com/matzehuels/graphlayout/pkg/render"
)

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Graph   json.RawMessage  `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// LayoutResponse is the reply to POST /v1/layout.
type LayoutResponse struct {
	RequestID string       `json:"request_id"`
	Graph     graph.Graph  `json:"graph"`
	Layout    graph.Layout `json:"layout"`
	CacheHit  bool         `json:"cache_hit"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handlerFunc is an http.HandlerFunc that reports failures as an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			// client went away
			return
		}

		status := apperr.HTTPStatus(err)
		code := apperr.GetCode(err)
		msg := apperr.UserMessage(err)
		if code == "" {
			code = apperr.ErrCodeInternal
			msg = http.StatusText(status)
		}
		if status >= 500 {
			s.logger.Error("handler failed", "error", err, "request_id", RequestID(r.Context()))
		}
		writeJSON(w, status, errorResponse{Code: string(code), Message: msg})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
	return nil
}

func (s *Server) algorithms(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string][]string{"algorithms": layout.Names()})
	return nil
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) error {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode request: %v", err)
	}
	if len(req.Graph) == 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "graph is required")
	}
	g, err := graph.UnmarshalGraph(req.Graph)
	if err != nil {
		return err
	}

	opts := req.Options
	opts.ApplyConfig(s.defaults)
	res, err := s.runner.Layout(r.Context(), g, opts)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, LayoutResponse{
		RequestID: RequestID(r.Context()),
		Graph:     res.Graph,
		Layout:    res.Layout,
		CacheHit:  res.CacheHit,
	})
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read request: %v", err)
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		return err
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	out, _, err := s.runner.Render(r.Context(), g, format)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
	return nil
}
