// Package layout computes vertex positions for displayed graphs.
//
// # Overview
//
// The package knows nothing about how a graph is stored or drawn. A host
// exposes its graph through the [View] interface: an ordered list of
// [Vertex] rectangles, an ordered list of [Edge] values, and a Commit method
// that applies an [Update] atomically. A [Layouter] reads the view, moves
// per-pass [Node] copies of the vertices, and commits the result in one
// call.
//
// Two algorithms are provided:
//
//   - [Forest] spans the graph with a forest and draws each tree top-down,
//     parents centered over their children. Cycles and shared descendants
//     are broken by keeping the first parent that reaches a vertex.
//   - [Spring] is a force-directed simulation for free-form, cycle-heavy
//     graphs such as transition systems. It stops when its damper reaches
//     zero or when [Options.Timeout] elapses.
//
// Create a layouter by name with [New], or directly:
//
//	lay := layout.NewForest(view, layout.Options{SuggestedRoots: []string{"s0"}})
//	stats, err := lay.Start(ctx, false)
//
// # Immovable Vertices
//
// Pinned vertices are never moved. Their committed position is their
// current position. When a layouter is started with recordShift set, the
// displacement of each pinned vertex since the previous pass of the same
// layouter is reported in [Update.Shifts] so the host can move edge points
// along with it.
//
// The layouter returned by [Layouter.Incremental] additionally treats every
// vertex that is not [Vertex.Pending] as pinned.
//
// # Determinism
//
// Every ordering decision falls back to the order of [View.Vertices] and
// [View.Edges], never to map iteration. Forest layouts are fully
// reproducible; spring layouts are reproducible for a fixed
// [Options.Seed] when they converge before the timeout.
//
// # Concurrency
//
// A layouter is bound to one view and must not be started concurrently.
// Options.Progress runs on the goroutine that called Start.
package layout
