package layout

// Vertex is the read-only view of one displayed vertex, as supplied by the host.
type Vertex struct {
	ID     string // Unique, stable identifier
	Bounds Rect   // Current on-screen rectangle

	// Pinned marks a vertex the user placed manually; layout never moves it.
	Pinned bool
	// Visible is false for vertices that are filtered out of the display.
	Visible bool
	// Grayed marks vertices shown but excluded from layout.
	Grayed bool
	// Pending marks vertices that have never been laid out.
	// Incremental layouters only move pending vertices.
	Pending bool
}

// Edge is the read-only view of one displayed edge.
type Edge struct {
	ID      string
	Source  string // Source vertex ID
	Target  string // Target vertex ID
	Label   string // Primary ordering key for deterministic child order
	Visible bool
	Grayed  bool
}

// View is the accessor a host implements to expose its graph to a layouter.
//
// Vertices and Edges must return their elements in a stable order; that
// order is the tie-breaker wherever the algorithms would otherwise depend on
// map iteration, so it determines whether repeated runs are reproducible.
//
// Commit receives the complete outcome of a layout pass. Implementations must
// apply it as a single atomic change: observers never see a partially
// applied layout. Hosts with thread-affinity requirements are responsible for
// dispatching the call onto the right goroutine.
type View interface {
	Vertices() []Vertex
	Edges() []Edge
	Commit(Update) error
}

// Update is the result of one layout pass.
type Update struct {
	// Positions maps every laid-out vertex to its new center.
	Positions map[string]Point
	// LaidOut lists vertices that are no longer pending, in display order.
	LaidOut []string
	// ResetEdges lists edges whose intermediate points must be discarded,
	// leaving a straight line between the endpoints.
	ResetEdges []string
	// Shifts holds the displacement recorded for immovable vertices that
	// were moved by the user since the previous pass. Hosts may translate
	// the points of edges between such vertices by the same amount.
	Shifts map[string]Point
}

// IsEmpty reports whether u carries no positions.
func (u Update) IsEmpty() bool { return len(u.Positions) == 0 }
