// Package graph provides the displayed-graph document, its serialization,
// and an in-memory host model that layouters commit to.
//
// # Architecture
//
// The package sits between the wire format and the layout core:
//
//   - [Graph], [Node], [Edge]: the JSON/BSON document (this package)
//   - [Model]: a mutable host that implements layout.View
//   - [Layout]: the serialized outcome of one layout pass
//   - pkg/layout: the algorithms, which only see layout.View
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Coordinates are top-left corners;
// width and height default to 80x30:
//
//	{
//	  "kind": "lts",
//	  "start": "s0",
//	  "nodes": [{"id": "s0"}, {"id": "s1", "pinned": true, "x": 200, "y": 40}],
//	  "edges": [{"from": "s0", "to": "s1", "label": "a"}]
//	}
//
// Reading normalizes and validates the document:
//
//	g, err := graph.ReadGraphFile("lts.json")
//	data, _ := graph.MarshalGraph(g)
//
// Validation failures carry errors.ErrCodeInvalidGraph.
//
// # Model
//
// [NewModel] copies a document into a [Model]. A layouter started on the
// model commits one [layout.Update]; the model applies it atomically,
// clears the routing points of reset edges, bumps its revision and calls
// subscribers once. [Model.Graph] returns the resulting document.
//
// # Graph Kinds
//
//	graph.KindLTS, graph.KindControl     // drawn as forests from the start state
//	graph.KindRule, graph.KindHost,
//	graph.KindType                       // drawn with springs
//
// See [DefaultAlgorithm].
//
// # Concurrency
//
// Model is safe for concurrent use. Graph and Layout values are plain data.
package graph
