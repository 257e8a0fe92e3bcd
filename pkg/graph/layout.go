package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// =============================================================================
// Layout - Result of a Layout Pass
// =============================================================================

// Layout is the serialization format of a committed layout pass.
// It is what the API returns and what the cache stores: applying it to a
// model of the same graph reproduces the pass without running it again.
//
// Positions are vertex centers, as in [layout.Update].
type Layout struct {
	Algorithm string `json:"algorithm" bson:"algorithm"`
	GraphHash string `json:"graph_hash,omitempty" bson:"graph_hash,omitempty"`

	// Commit payload
	Positions  map[string]layout.Point `json:"positions" bson:"positions"`
	LaidOut    []string                `json:"laid_out,omitempty" bson:"laid_out,omitempty"`
	ResetEdges []string                `json:"reset_edges,omitempty" bson:"reset_edges,omitempty"`
	Shifts     map[string]layout.Point `json:"shifts,omitempty" bson:"shifts,omitempty"`

	// Frame of the visible nodes after the pass
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Pass statistics
	Roots      []string `json:"roots,omitempty" bson:"roots,omitempty"`
	Iterations int      `json:"iterations,omitempty" bson:"iterations,omitempty"`
	Damper     float64  `json:"damper,omitempty" bson:"damper,omitempty"`
	Converged  bool     `json:"converged,omitempty" bson:"converged,omitempty"`
	DurationMS int64    `json:"duration_ms" bson:"duration_ms"`
}

// NewLayout builds the result document of a pass from its update and stats.
// frame is the bounding box of the graph after the commit.
func NewLayout(u layout.Update, stats layout.Stats, frame layout.Rect) Layout {
	return Layout{
		Algorithm:  stats.Algorithm,
		Positions:  u.Positions,
		LaidOut:    slices.Clone(u.LaidOut),
		ResetEdges: slices.Clone(u.ResetEdges),
		Shifts:     u.Shifts,
		Width:      frame.X + frame.Width,
		Height:     frame.Y + frame.Height,
		Roots:      slices.Clone(stats.Roots),
		Iterations: stats.Iterations,
		Damper:     stats.Damper,
		Converged:  stats.Converged,
		DurationMS: stats.Duration.Milliseconds(),
	}
}

// Update converts the document back into a commit payload.
func (l *Layout) Update() layout.Update {
	return layout.Update{
		Positions:  l.Positions,
		LaidOut:    slices.Clone(l.LaidOut),
		ResetEdges: slices.Clone(l.ResetEdges),
		Shifts:     l.Shifts,
	}
}

// Stats converts the document back into pass statistics.
func (l *Layout) Stats() layout.Stats {
	return layout.Stats{
		Algorithm:  l.Algorithm,
		Nodes:      len(l.Positions),
		Roots:      slices.Clone(l.Roots),
		Iterations: l.Iterations,
		Damper:     l.Damper,
		Converged:  l.Converged,
		Duration:   time.Duration(l.DurationMS) * time.Millisecond,
	}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that the algorithm is known.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if !slices.Contains(layout.Names(), l.Algorithm) {
		return Layout{}, errors.New(errors.ErrCodeInvalidAlgorithm, "layout has unknown algorithm %q", l.Algorithm)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
