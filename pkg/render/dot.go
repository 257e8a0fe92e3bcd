package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/graphlayout/pkg/graph"
)

// pointsPerInch converts layout units to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT writes the visible part of g as a Graphviz digraph whose nodes are
// pinned at their laid-out positions (pos="x,y!"), so that rendering with
// neato draws the computed geometry instead of a new layout.
//
// Layout coordinates grow downwards; Graphviz coordinates grow upwards, so
// y is negated. Grayed elements are drawn dashed and grey, pinned nodes with
// a heavier outline.
func ToDOT(g graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, fixedsize=true];\n")
	buf.WriteString("  edge [fontsize=10, arrowsize=0.7];\n")
	buf.WriteString("\n")

	visible := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Hidden {
			continue
		}
		visible[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Hidden || !visible[e.From] || !visible[e.To] {
			continue
		}
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node) []string {
	c := n.Bounds().Center()
	attrs := []string{
		fmt.Sprintf("label=%q", n.DisplayLabel()),
		fmt.Sprintf("pos=\"%s,%s!\"", num(c.X), num(-c.Y)),
		fmt.Sprintf("width=%s", num(n.Width/pointsPerInch)),
		fmt.Sprintf("height=%s", num(n.Height/pointsPerInch)),
	}
	switch {
	case n.Grayed:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "color=grey60", "fontcolor=grey50")
	case n.Pinned:
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	if e.Grayed {
		attrs = append(attrs, "style=dashed", "color=grey60", "fontcolor=grey50")
	}
	return attrs
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
