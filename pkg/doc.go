// Package pkg provides the libraries behind graphlayout.
//
// # Overview
//
// graphlayout places the nodes of graphs produced by state-space tools:
// labelled transition systems, control flow graphs, rule dependency graphs
// and type graphs. The layout core knows nothing about these kinds; it sees
// rectangles and edges through a small view interface and commits positions
// back in one atomic update.
//
// # Architecture
//
// The data flow of a layout request:
//
//	graph document (JSON)
//	         ↓
//	    [graph] package (validate, host as a live Model)
//	         ↓
//	    [layout] package (forest or spring pass over the view)
//	         ↓
//	    [graph.Model] commit → subscribers
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF)
//
// [pipeline] wraps these steps with caching and observability so the CLI and
// the HTTP API behave the same.
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("lts.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Layout(ctx, g, pipeline.Options{})
//	svg, _, _ := runner.Render(ctx, res.Graph, render.FormatSVG)
//
// # Main Packages
//
// [layout] - Geometry, the view interface and both layout algorithms. The
// forest layout arranges trees top-down from suggested roots; the spring
// layout relaxes a seeded force simulation until it converges or times out.
//
// [graph] - The JSON graph document, the [graph.Model] host that
// implements the view, and the layout result document.
//
// [pipeline] - Options, defaults, cache keys and the [pipeline.Runner].
//
// [cache] - File, Redis, MongoDB and null backends for layouts and renderings.
//
// [render] - DOT output with pinned coordinates, SVG through Graphviz, and
// PNG or PDF through rsvg-convert.
//
// [server] - The HTTP API.
//
// [config] - The TOML configuration file.
//
// [errors] - Coded errors shared by all packages.
//
// [observability] - Hooks for metrics and tracing.
//
// # Testing
//
//	go test ./...                # All tests
//	go test ./pkg/layout/...     # Specific package
//	go test -run Example ./...   # Examples only
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/graph
// [graph.Model]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/graph#Model
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/render
// [server]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/observability
package pkg
