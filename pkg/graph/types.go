package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Graph kinds.
const (
	KindRule    = "rule"    // Transformation rule
	KindHost    = "host"    // Host (instance) graph
	KindType    = "type"    // Type graph
	KindControl = "control" // Control automaton
	KindLTS     = "lts"     // Labelled transition system
)

// Kinds lists the accepted graph kinds.
var Kinds = []string{KindRule, KindHost, KindType, KindControl, KindLTS}

// Default node size, used when a document leaves width or height out.
const (
	DefaultNodeWidth  = 80.0
	DefaultNodeHeight = 30.0
)

// =============================================================================
// Graph - Displayed Graph Document
// =============================================================================

// Graph is the canonical serialization format for displayed graphs.
// Used for files, API requests and responses, and cache entries.
//
// Node coordinates are top-left corners in layout space (y grows downward).
type Graph struct {
	Kind  string `json:"kind,omitempty" bson:"kind,omitempty"`
	Start string `json:"start,omitempty" bson:"start,omitempty"` // Start state (lts, control)
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a displayed vertex.
type Node struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`

	Pinned  bool `json:"pinned,omitempty" bson:"pinned,omitempty"`   // Placed by hand; never moved by layout
	Hidden  bool `json:"hidden,omitempty" bson:"hidden,omitempty"`   // Filtered out of the display
	Grayed  bool `json:"grayed,omitempty" bson:"grayed,omitempty"`   // Shown, but ignored by layout
	Pending bool `json:"pending,omitempty" bson:"pending,omitempty"` // Never laid out
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Bounds returns the node rectangle.
func (n *Node) Bounds() layout.Rect {
	return layout.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// Edge is a displayed directed edge. Points are the intermediate routing
// points between the endpoints; an empty list is a straight line.
type Edge struct {
	ID     string         `json:"id,omitempty" bson:"id,omitempty"`
	From   string         `json:"from" bson:"from"`
	To     string         `json:"to" bson:"to"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	Hidden bool           `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Grayed bool           `json:"grayed,omitempty" bson:"grayed,omitempty"`
	Points []layout.Point `json:"points,omitempty" bson:"points,omitempty"`
}

// =============================================================================
// Defaults and Validation
// =============================================================================

// Normalize fills in defaults: node sizes, edge IDs and the graph kind.
func (g *Graph) Normalize() {
	if g.Kind == "" {
		g.Kind = KindHost
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Width == 0 {
			n.Width = DefaultNodeWidth
		}
		if n.Height == 0 {
			n.Height = DefaultNodeHeight
		}
	}
	for i := range g.Edges {
		if g.Edges[i].ID == "" {
			g.Edges[i].ID = fmt.Sprintf("e%d", i)
		}
	}
}

// Validate checks identifiers, references and geometry.
// All returned errors carry errors.ErrCodeInvalidGraph.
func (g *Graph) Validate() error {
	if g.Kind != "" && !slices.Contains(Kinds, g.Kind) {
		return errors.New(errors.ErrCodeInvalidGraph, "unknown graph kind %q", g.Kind)
	}

	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := errors.ValidateID("node", n.ID); err != nil {
			return err
		}
		if nodes[n.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		nodes[n.ID] = true
		if err := errors.ValidateSize(n.ID, n.Width, n.Height); err != nil {
			return err
		}
		if err := errors.ValidateCoordinate(n.ID, n.X, n.Y); err != nil {
			return err
		}
	}

	edges := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if err := errors.ValidateID("edge", e.ID); err != nil {
			return err
		}
		if edges[e.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge id %q", e.ID)
		}
		edges[e.ID] = true
		if !nodes[e.From] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q: unknown source %q", e.ID, e.From)
		}
		if !nodes[e.To] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %q: unknown target %q", e.ID, e.To)
		}
	}

	if g.Start != "" && !nodes[g.Start] {
		return errors.New(errors.ErrCodeInvalidGraph, "unknown start node %q", g.Start)
	}
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Bounds returns the smallest rectangle containing every visible node.
// It is the zero Rect for a graph without visible nodes.
func (g *Graph) Bounds() layout.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		if n.Hidden {
			continue
		}
		minX, minY = min(minX, n.X), min(minY, n.Y)
		maxX, maxY = max(maxX, n.X+n.Width), max(maxY, n.Y+n.Height)
	}
	if math.IsInf(minX, 1) {
		return layout.Rect{}
	}
	return layout.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// DefaultAlgorithm returns the layout algorithm suited to a graph kind.
// Transition systems and control automata are drawn as trees from their
// start state; structural graphs are drawn with springs.
func DefaultAlgorithm(kind string) string {
	switch kind {
	case KindLTS, KindControl:
		return layout.AlgorithmForest
	default:
		return layout.AlgorithmSpring
	}
}

// SuggestedRoots returns the forest roots implied by the graph itself:
// the start state, if any.
func (g *Graph) SuggestedRoots() []string {
	if g.Start == "" {
		return nil
	}
	return []string{g.Start}
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() Graph {
	out := Graph{
		Kind:  g.Kind,
		Start: g.Start,
		Nodes: slices.Clone(g.Nodes),
		Edges: slices.Clone(g.Edges),
	}
	for i := range out.Edges {
		out.Edges[i].Points = slices.Clone(out.Edges[i].Points)
	}
	return out
}
