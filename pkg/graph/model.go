package graph

import (
	"slices"
	"strconv"
	"sync"

	"github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// Change describes one observable modification of a Model.
type Change struct {
	Revision uint64
	Layout   bool     // The change is a committed layout pass
	Nodes    []string // Nodes whose geometry or flags changed
}

// Model is an in-memory graph host. It implements [layout.View], so a
// layouter can read from and commit to it directly.
//
// Every mutation, including a layout commit, is applied under one lock and
// announced to subscribers exactly once after the lock is released.
type Model struct {
	mu       sync.RWMutex
	g        Graph
	nodes    map[string]int
	edges    map[string]int
	revision uint64
	subs     []func(Change)
}

// NewModel normalizes and validates g and returns a model holding a copy.
func NewModel(g Graph) (*Model, error) {
	g = g.Clone()
	g.Normalize()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	m := &Model{g: g}
	m.reindex()
	return m, nil
}

func (m *Model) reindex() {
	m.nodes = make(map[string]int, len(m.g.Nodes))
	for i, n := range m.g.Nodes {
		m.nodes[n.ID] = i
	}
	m.edges = make(map[string]int, len(m.g.Edges))
	for i, e := range m.g.Edges {
		m.edges[e.ID] = i
	}
}

// Subscribe registers fn to be called after every change.
// Callbacks run on the goroutine that made the change.
func (m *Model) Subscribe(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Model) notify(c Change) {
	m.mu.RLock()
	subs := slices.Clone(m.subs)
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Revision returns the number of changes applied so far.
func (m *Model) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Graph returns a snapshot of the current document.
func (m *Model) Graph() Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.g.Clone()
}

// =============================================================================
// layout.View
// =============================================================================

// Vertices implements [layout.View] in document order.
func (m *Model) Vertices() []layout.Vertex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]layout.Vertex, len(m.g.Nodes))
	for i, n := range m.g.Nodes {
		out[i] = layout.Vertex{
			ID:      n.ID,
			Bounds:  n.Bounds(),
			Pinned:  n.Pinned,
			Visible: !n.Hidden,
			Grayed:  n.Grayed,
			Pending: n.Pending,
		}
	}
	return out
}

// Edges implements [layout.View] in document order.
func (m *Model) Edges() []layout.Edge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]layout.Edge, len(m.g.Edges))
	for i, e := range m.g.Edges {
		out[i] = layout.Edge{
			ID:      e.ID,
			Source:  e.From,
			Target:  e.To,
			Label:   e.Label,
			Visible: !e.Hidden,
			Grayed:  e.Grayed,
		}
	}
	return out
}

// Commit implements [layout.View]. The update is checked in full before
// anything is applied; an update naming an unknown node or edge is
// rejected with errors.ErrCodeNotFound and leaves the model untouched.
//
// Edges whose endpoints were both shifted by the same amount have their
// routing points translated along.
func (m *Model) Commit(u layout.Update) error {
	m.mu.Lock()
	for id := range u.Positions {
		if _, ok := m.nodes[id]; !ok {
			m.mu.Unlock()
			return errors.New(errors.ErrCodeNotFound, "commit: unknown node %q", id)
		}
	}
	for _, id := range u.LaidOut {
		if _, ok := m.nodes[id]; !ok {
			m.mu.Unlock()
			return errors.New(errors.ErrCodeNotFound, "commit: unknown node %q", id)
		}
	}
	reset := make(map[string]bool, len(u.ResetEdges))
	for _, id := range u.ResetEdges {
		if _, ok := m.edges[id]; !ok {
			m.mu.Unlock()
			return errors.New(errors.ErrCodeNotFound, "commit: unknown edge %q", id)
		}
		reset[id] = true
	}

	for id, c := range u.Positions {
		n := &m.g.Nodes[m.nodes[id]]
		r := n.Bounds().Centered(c)
		n.X, n.Y = r.X, r.Y
	}
	for _, id := range u.LaidOut {
		m.g.Nodes[m.nodes[id]].Pending = false
	}
	for i := range m.g.Edges {
		e := &m.g.Edges[i]
		if reset[e.ID] {
			e.Points = nil
			continue
		}
		s, okS := u.Shifts[e.From]
		t, okT := u.Shifts[e.To]
		if okS && okT && s == t {
			for j := range e.Points {
				e.Points[j] = e.Points[j].Add(s)
			}
		}
	}

	m.revision++
	c := Change{Revision: m.revision, Layout: true, Nodes: slices.Clone(u.LaidOut)}
	m.mu.Unlock()

	m.notify(c)
	return nil
}

// =============================================================================
// Edits
// =============================================================================

// edit applies fn to the node with the given ID and announces the change.
func (m *Model) edit(id string, fn func(n *Node)) error {
	m.mu.Lock()
	i, ok := m.nodes[id]
	if !ok {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "unknown node %q", id)
	}
	fn(&m.g.Nodes[i])
	m.revision++
	c := Change{Revision: m.revision, Nodes: []string{id}}
	m.mu.Unlock()

	m.notify(c)
	return nil
}

// Move places the top-left corner of a node at (x, y).
func (m *Model) Move(id string, x, y float64) error {
	if err := errors.ValidateCoordinate(id, x, y); err != nil {
		return err
	}
	return m.edit(id, func(n *Node) { n.X, n.Y = x, y })
}

// SetPinned marks a node as placed by hand, or releases it.
func (m *Model) SetPinned(id string, pinned bool) error {
	return m.edit(id, func(n *Node) { n.Pinned = pinned })
}

// SetHidden filters a node out of the display, or shows it again.
func (m *Model) SetHidden(id string, hidden bool) error {
	return m.edit(id, func(n *Node) { n.Hidden = hidden })
}

// AddNode appends a node. New nodes are pending until laid out.
func (m *Model) AddNode(n Node) error {
	n.Pending = true
	if n.Width == 0 {
		n.Width = DefaultNodeWidth
	}
	if n.Height == 0 {
		n.Height = DefaultNodeHeight
	}
	if err := errors.ValidateID("node", n.ID); err != nil {
		return err
	}
	if err := errors.ValidateSize(n.ID, n.Width, n.Height); err != nil {
		return err
	}

	m.mu.Lock()
	if _, dup := m.nodes[n.ID]; dup {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
	}
	m.nodes[n.ID] = len(m.g.Nodes)
	m.g.Nodes = append(m.g.Nodes, n)
	m.revision++
	c := Change{Revision: m.revision, Nodes: []string{n.ID}}
	m.mu.Unlock()

	m.notify(c)
	return nil
}

// AddEdge appends an edge between existing nodes. An empty ID is assigned.
func (m *Model) AddEdge(e Edge) error {
	m.mu.Lock()
	if e.ID == "" {
		e.ID = nextEdgeID(m.edges, len(m.g.Edges))
	}
	if err := errors.ValidateID("edge", e.ID); err != nil {
		m.mu.Unlock()
		return err
	}
	if _, dup := m.edges[e.ID]; dup {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge id %q", e.ID)
	}
	for _, id := range []string{e.From, e.To} {
		if _, ok := m.nodes[id]; !ok {
			m.mu.Unlock()
			return errors.New(errors.ErrCodeNotFound, "edge %q: unknown node %q", e.ID, id)
		}
	}
	m.edges[e.ID] = len(m.g.Edges)
	m.g.Edges = append(m.g.Edges, e)
	m.revision++
	c := Change{Revision: m.revision, Nodes: []string{e.From, e.To}}
	m.mu.Unlock()

	m.notify(c)
	return nil
}

func nextEdgeID(used map[string]int, n int) string {
	for i := n; ; i++ {
		id := "e" + strconv.Itoa(i)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// Reconcile applies the edits that turned the document prev into next:
// moved, pinned and hidden nodes, and appended nodes and edges. prev is the
// source document the model was built or last reconciled from.
//
// Changes a model cannot express as edits (removed or rewired elements,
// new sizes, labels or kinds) are rejected with errors.ErrCodeUnsupported
// before anything is applied; the caller builds a new model instead.
func (m *Model) Reconcile(prev, next Graph) error {
	prev, next = prev.Clone(), next.Clone()
	prev.Normalize()
	next.Normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	if prev.Kind != next.Kind || prev.Start != next.Start {
		return errors.New(errors.ErrCodeUnsupported, "graph kind or start state changed")
	}

	old := make(map[string]Node, len(prev.Nodes))
	for _, n := range prev.Nodes {
		old[n.ID] = n
	}
	var added []Node
	for _, n := range next.Nodes {
		o, ok := old[n.ID]
		if !ok {
			added = append(added, n)
			continue
		}
		delete(old, n.ID)
		if o.Label != n.Label || o.Width != n.Width || o.Height != n.Height || o.Grayed != n.Grayed {
			return errors.New(errors.ErrCodeUnsupported, "node %q changed shape", n.ID)
		}
	}
	if len(old) > 0 {
		return errors.New(errors.ErrCodeUnsupported, "nodes were removed")
	}

	oldEdges := make(map[string]Edge, len(prev.Edges))
	for _, e := range prev.Edges {
		oldEdges[e.ID] = e
	}
	var addedEdges []Edge
	for _, e := range next.Edges {
		o, ok := oldEdges[e.ID]
		if !ok {
			addedEdges = append(addedEdges, e)
			continue
		}
		delete(oldEdges, e.ID)
		if o.From != e.From || o.To != e.To || o.Label != e.Label || o.Hidden != e.Hidden || o.Grayed != e.Grayed {
			return errors.New(errors.ErrCodeUnsupported, "edge %q changed", e.ID)
		}
	}
	if len(oldEdges) > 0 {
		return errors.New(errors.ErrCodeUnsupported, "edges were removed")
	}

	for _, n := range prev.Nodes {
		to, _ := next.Node(n.ID)
		if to.X != n.X || to.Y != n.Y {
			if err := m.Move(n.ID, to.X, to.Y); err != nil {
				return err
			}
		}
		if to.Pinned != n.Pinned {
			if err := m.SetPinned(n.ID, to.Pinned); err != nil {
				return err
			}
		}
		if to.Hidden != n.Hidden {
			if err := m.SetHidden(n.ID, to.Hidden); err != nil {
				return err
			}
		}
	}
	for _, n := range added {
		if err := m.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range addedEdges {
		if err := m.AddEdge(e); err != nil {
			return err
		}
	}
	return nil
}
