package layout

import "fmt"

// Node is the per-pass snapshot of a vertex rectangle.
//
// A Node is created by prepare from the vertex bounds and owned by the
// layouter until the pass is committed. Algorithms move nodes with
// SetLocation; the size is fixed at creation.
type Node struct {
	ID string

	x, y          float64
	width, height float64
}

func newNode(id string, r Rect) *Node {
	return &Node{ID: id, x: r.X, y: r.Y, width: r.Width, height: r.Height}
}

// X returns the left edge of the node.
func (n *Node) X() float64 { return n.x }

// Y returns the top edge of the node.
func (n *Node) Y() float64 { return n.y }

// Width returns the node width.
func (n *Node) Width() float64 { return n.width }

// Height returns the node height.
func (n *Node) Height() float64 { return n.height }

// Location returns the top-left corner.
func (n *Node) Location() Point { return Point{X: n.x, Y: n.y} }

// Bounds returns the node rectangle.
func (n *Node) Bounds() Rect { return Rect{X: n.x, Y: n.y, Width: n.width, Height: n.height} }

// Center returns the midpoint of the node rectangle.
func (n *Node) Center() Point { return Point{X: n.x + n.width/2, Y: n.y + n.height/2} }

// SetLocation moves the top-left corner to (x, y).
func (n *Node) SetLocation(x, y float64) {
	n.x, n.y = x, y
}

func (n *Node) translate(d Point) {
	n.x += d.X
	n.y += d.Y
}

func (n *Node) String() string {
	return fmt.Sprintf("%s[%.1f,%.1f %.1fx%.1f]", n.ID, n.x, n.y, n.width, n.height)
}
