// Package render draws laid-out graphs.
//
// Rendering never computes a layout: [ToDOT] pins every visible node at the
// position stored in the graph document and [RenderSVG] hands that to
// Graphviz's neato engine, which keeps pinned nodes in place and only routes
// the edges.
//
//	svg, err := render.Render(ctx, g, render.FormatSVG)
//
// PNG and PDF output convert the SVG with the external rsvg-convert tool
// from librsvg.
package render
