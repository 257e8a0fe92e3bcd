package layout

// snapshot is the state shared by all layouters: the bridge between the
// host view and the transient nodes an algorithm moves around.
//
// It is created empty, filled by prepare at the start of every pass and
// turned into an Update by finish. The node map of the last pass survives
// as the "old" state the next pass measures shifts against.
type snapshot struct {
	view View
	opts Options

	// onlyPending treats every vertex that is not pending as immovable.
	onlyPending bool

	nodes map[string]*Node // working map of the current pass
	order []*Node          // nodes in view order
	index map[string]int   // node ID -> position in order

	// immovable holds the recorded shift of every vertex that must not
	// move. A zero shift means none was recorded.
	immovable map[string]Point

	edges     []Edge // layout-eligible edges, in view order
	viewEdges []Edge // all edges of the view at prepare time
}

func newSnapshot(v View, opts Options) snapshot {
	return snapshot{view: v, opts: opts.withDefaults()}
}

// SetOptions replaces the options of the next pass. The state of the last
// pass is kept.
func (s *snapshot) SetOptions(opts Options) {
	s.opts = opts.withDefaults()
}

// prepare scans the view and builds the working map of the pass.
func (s *snapshot) prepare(recordShift bool) {
	old := s.nodes
	vertices := s.view.Vertices()

	s.nodes = make(map[string]*Node, len(vertices))
	s.order = make([]*Node, 0, len(vertices))
	s.index = make(map[string]int, len(vertices))
	s.immovable = make(map[string]Point)

	for _, v := range vertices {
		if !v.Visible || v.Grayed {
			continue
		}
		if _, dup := s.nodes[v.ID]; dup {
			continue
		}
		n := newNode(v.ID, v.Bounds)
		if v.Pinned || (s.onlyPending && !v.Pending) {
			var shift Point
			if prev, ok := old[v.ID]; ok && recordShift {
				shift = v.Bounds.Location().Sub(prev.Location())
				n.SetLocation(prev.x, prev.y)
			}
			s.immovable[v.ID] = shift
		}
		s.index[v.ID] = len(s.order)
		s.nodes[v.ID] = n
		s.order = append(s.order, n)
	}

	s.viewEdges = s.view.Edges()
	s.edges = s.edges[:0]
	for _, e := range s.viewEdges {
		if s.eligible(e) {
			s.edges = append(s.edges, e)
		}
	}
}

// eligible reports whether e takes part in layout.
func (s *snapshot) eligible(e Edge) bool {
	if !e.Visible || e.Grayed {
		return false
	}
	_, okS := s.nodes[e.Source]
	_, okT := s.nodes[e.Target]
	return okS && okT
}

// isImmovable reports whether the node with the given ID may not move.
func (s *snapshot) isImmovable(id string) bool {
	_, ok := s.immovable[id]
	return ok
}

// movable reports whether id is part of the pass and free to move.
func (s *snapshot) movable(id string) bool {
	_, in := s.nodes[id]
	return in && !s.isImmovable(id)
}

// finish commits the pass to the view as one update.
// An empty pass commits nothing.
func (s *snapshot) finish() error {
	if len(s.order) == 0 {
		return nil
	}
	u := Update{
		Positions: make(map[string]Point, len(s.order)),
		LaidOut:   make([]string, 0, len(s.order)),
		Shifts:    make(map[string]Point),
	}
	for _, n := range s.order {
		shift := s.immovable[n.ID]
		u.Positions[n.ID] = n.Center().Add(shift)
		u.LaidOut = append(u.LaidOut, n.ID)
		if !shift.IsZero() {
			u.Shifts[n.ID] = shift
		}
	}
	for _, e := range s.viewEdges {
		if s.movable(e.Source) || s.movable(e.Target) {
			u.ResetEdges = append(u.ResetEdges, e.ID)
		}
	}

	err := s.view.Commit(u)

	// The next pass compares against what was committed.
	for id, shift := range s.immovable {
		s.nodes[id].translate(shift)
	}
	return err
}

// counts returns the number of nodes and immovable nodes of the pass.
func (s *snapshot) counts() (nodes, immovable int) {
	return len(s.order), len(s.immovable)
}
