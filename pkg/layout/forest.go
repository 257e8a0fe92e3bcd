package layout

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"
)

// Forest arranges the graph as a set of top-down trees.
//
// Each pass spans the eligible vertices with a forest: roots are chosen by
// continuity (immovable vertices that were roots in the previous pass),
// then by Options.SuggestedRoots, then by ascending in-degree. Shared
// descendants and cycles are broken by keeping only the first parent that
// reaches a vertex in breadth-first order. Trees are then placed so that
// every parent is centered over its children and no two subtrees collide on
// any level.
//
// Immovable vertices never become children. A tree rooted at an immovable
// vertex is laid out around that vertex's current position; all other trees
// are packed left to right from the origin.
type Forest struct {
	snapshot

	roots    []*Node
	branches map[string][]*Node
	depth    map[string]int
	oldRoots map[string]bool
}

// NewForest creates a forest layouter for v.
func NewForest(v View, opts Options) *Forest {
	return &Forest{snapshot: newSnapshot(v, opts)}
}

// Name implements [Layouter].
func (f *Forest) Name() string { return AlgorithmForest }

// Incremental implements [Layouter]. Forest layout is always complete, so
// it returns f.
func (f *Forest) Incremental() Layouter { return f }

// Start implements [Layouter]. It returns an error wrapping
// [ErrUnknownRoot] if a suggested root names no vertex of the view.
func (f *Forest) Start(ctx context.Context, recordShift bool) (Stats, error) {
	begin := time.Now()
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	if err := f.checkSuggestedRoots(); err != nil {
		return Stats{}, err
	}

	f.prepare(recordShift)
	f.buildForest()
	f.place()
	if err := f.finish(); err != nil {
		return Stats{}, err
	}

	f.oldRoots = make(map[string]bool, len(f.roots))
	for _, r := range f.roots {
		f.oldRoots[r.ID] = true
	}

	nodes, immovable := f.counts()
	stats := Stats{
		Algorithm: AlgorithmForest,
		Nodes:     nodes,
		Immovable: immovable,
		Roots:     f.Roots(),
		Duration:  time.Since(begin),
	}
	f.opts.Logger.Debug("forest layout", "nodes", nodes, "roots", len(stats.Roots), "took", stats.Duration)
	return stats, nil
}

// Roots returns the root IDs of the last pass, in placement order.
func (f *Forest) Roots() []string {
	ids := make([]string, len(f.roots))
	for i, r := range f.roots {
		ids[i] = r.ID
	}
	return ids
}

// Branches returns the pruned child lists of the last pass. Vertices
// without children are omitted.
func (f *Forest) Branches() map[string][]string {
	out := make(map[string][]string, len(f.branches))
	for id, kids := range f.branches {
		if len(kids) == 0 {
			continue
		}
		ids := make([]string, len(kids))
		for i, k := range kids {
			ids[i] = k.ID
		}
		out[id] = ids
	}
	return out
}

func (f *Forest) checkSuggestedRoots() error {
	if len(f.opts.SuggestedRoots) == 0 {
		return nil
	}
	known := make(map[string]bool)
	for _, v := range f.view.Vertices() {
		known[v.ID] = true
	}
	for _, id := range f.opts.SuggestedRoots {
		if !known[id] {
			return fmt.Errorf("%w: %q", ErrUnknownRoot, id)
		}
	}
	return nil
}

// buildForest selects roots and prunes the branch map into a forest.
func (f *Forest) buildForest() {
	indegree := make(map[string]int, len(f.order))
	out := make(map[string][]Edge)
	for _, e := range f.edges {
		if e.Source == e.Target || f.isImmovable(e.Target) {
			continue
		}
		indegree[e.Target]++
		out[e.Source] = append(out[e.Source], e)
	}

	f.branches = make(map[string][]*Node, len(out))
	for id, edges := range out {
		slices.SortStableFunc(edges, func(a, b Edge) int {
			return cmp.Or(
				cmp.Compare(a.Label, b.Label),
				cmp.Compare(f.index[a.Target], f.index[b.Target]),
				cmp.Compare(a.ID, b.ID),
			)
		})
		seen := make(map[string]bool, len(edges))
		kids := make([]*Node, 0, len(edges))
		for _, e := range edges {
			if seen[e.Target] {
				continue
			}
			seen[e.Target] = true
			kids = append(kids, f.nodes[e.Target])
		}
		f.branches[id] = kids
	}

	remaining := make(map[string]bool, len(f.order))
	for _, n := range f.order {
		remaining[n.ID] = true
	}
	f.roots = f.roots[:0]
	f.depth = make(map[string]int, len(f.order))
	for _, id := range f.rootCandidates(indegree) {
		if !remaining[id] {
			continue
		}
		delete(remaining, id)
		f.roots = append(f.roots, f.nodes[id])
		f.depth[id] = 0

		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			var kept []*Node
			for _, k := range f.branches[cur] {
				if !remaining[k.ID] {
					continue
				}
				delete(remaining, k.ID)
				kept = append(kept, k)
				f.depth[k.ID] = f.depth[cur] + 1
				queue = append(queue, k.ID)
			}
			f.branches[cur] = kept
		}
	}
}

// rootCandidates lists vertex IDs in root priority order. IDs may repeat;
// the first occurrence wins.
func (f *Forest) rootCandidates(indegree map[string]int) []string {
	ids := make([]string, 0, 2*len(f.order))
	for _, n := range f.order {
		if f.isImmovable(n.ID) && f.oldRoots[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	for _, id := range f.opts.SuggestedRoots {
		if _, ok := f.nodes[id]; ok {
			ids = append(ids, id)
		}
	}
	tiered := slices.Clone(f.order)
	slices.SortStableFunc(tiered, func(a, b *Node) int {
		return cmp.Compare(indegree[a.ID], indegree[b.ID])
	})
	for _, n := range tiered {
		ids = append(ids, n.ID)
	}
	return ids
}

// place assigns coordinates to every movable node of the forest.
func (f *Forest) place() {
	levels := f.levels()

	var free *contour
	for _, r := range f.roots {
		if f.isImmovable(r.ID) {
			continue
		}
		free = merge(free, f.subtree(r), MinNodeDistance)
	}
	if free != nil {
		for _, m := range free.members {
			m.node.SetLocation(m.x+MinNodeDistance, levels[m.depth])
		}
	}

	for _, r := range f.roots {
		if f.isImmovable(r.ID) {
			f.anchor(r, levels)
		}
	}
}

// levels returns the top y of every tree depth. Levels are shared by all
// trees so that equal depths line up.
func (f *Forest) levels() []float64 {
	var heights []float64
	for id, d := range f.depth {
		for len(heights) <= d {
			heights = append(heights, 0)
		}
		heights[d] = max(heights[d], f.nodes[id].height)
	}
	ys := make([]float64, len(heights))
	for d := 1; d < len(ys); d++ {
		ys[d] = ys[d-1] + heights[d-1] + VerticalSpace
	}
	return ys
}

// anchor lays out the tree of the immovable root r so that r keeps its
// current position. Movable members are kept at non-negative coordinates.
func (f *Forest) anchor(r *Node, levels []float64) {
	c := f.subtree(r)
	var rootX float64
	for _, m := range c.members {
		if m.node == r {
			rootX = m.x
		}
	}
	at := r.Location().Add(f.immovable[r.ID])
	dx, dy := at.X-rootX, at.Y-levels[0]

	minX, minY := math.Inf(1), math.Inf(1)
	for _, m := range c.members {
		if m.node == r {
			continue
		}
		minX = min(minX, m.x+dx)
		minY = min(minY, levels[m.depth]+dy)
	}
	var fixX, fixY float64
	if minX < 0 {
		fixX = -minX
	}
	if minY < 0 {
		fixY = -minY
	}
	for _, m := range c.members {
		if m.node == r {
			continue
		}
		m.node.SetLocation(m.x+dx+fixX, levels[m.depth]+dy+fixY)
	}
}

// subtree computes the contour of the tree below n. Depths in the result
// are absolute.
func (f *Forest) subtree(n *Node) *contour {
	var kids *contour
	for _, k := range f.branches[n.ID] {
		kids = merge(kids, f.subtree(k), MinChildDistance)
	}

	d := f.depth[n.ID]
	if kids == nil {
		return &contour{
			left:    []float64{0},
			right:   []float64{n.width},
			members: []placed{{node: n, x: 0, depth: d}},
		}
	}

	x := (kids.left[0]+kids.right[0])/2 - n.width/2
	var shift float64
	if x < 0 {
		shift, x = -x, 0
	}
	c := &contour{
		left:    make([]float64, 0, len(kids.left)+1),
		right:   make([]float64, 0, len(kids.right)+1),
		members: make([]placed, 0, len(kids.members)+1),
	}
	c.left = append(c.left, x)
	c.right = append(c.right, x+n.width)
	c.members = append(c.members, placed{node: n, x: x, depth: d})
	for i := range kids.left {
		c.left = append(c.left, kids.left[i]+shift)
		c.right = append(c.right, kids.right[i]+shift)
	}
	for _, m := range kids.members {
		m.x += shift
		c.members = append(c.members, m)
	}
	c.normalize()
	return c
}

// contour is the outline of a group of subtrees placed side by side.
// left and right hold the extreme x of each level, counted from the
// group's top level. The leftmost extent over all levels is zero.
type contour struct {
	left, right []float64
	members     []placed
}

type placed struct {
	node  *Node
	x     float64
	depth int
}

// merge places b to the right of a as close as the level gaps allow and
// returns the combined contour. a may be nil. top is the gap required on
// the first level; deeper levels need MinNodeDistance.
func merge(a, b *contour, top float64) *contour {
	if a == nil {
		return b
	}
	offset := math.Inf(-1)
	for d := 0; d < min(len(a.right), len(b.left)); d++ {
		gap := MinNodeDistance
		if d == 0 {
			gap = top
		}
		offset = max(offset, a.right[d]+gap-b.left[d])
	}

	n := max(len(a.left), len(b.left))
	c := &contour{
		left:    make([]float64, n),
		right:   make([]float64, n),
		members: append(a.members, b.members...),
	}
	for d := range n {
		switch {
		case d >= len(a.left):
			c.left[d], c.right[d] = b.left[d]+offset, b.right[d]+offset
		case d >= len(b.left):
			c.left[d], c.right[d] = a.left[d], a.right[d]
		default:
			c.left[d] = min(a.left[d], b.left[d]+offset)
			c.right[d] = max(a.right[d], b.right[d]+offset)
		}
	}
	for i := len(a.members); i < len(c.members); i++ {
		c.members[i].x += offset
	}
	c.normalize()
	return c
}

func (c *contour) normalize() {
	low := slices.Min(c.left)
	if low == 0 {
		return
	}
	for d := range c.left {
		c.left[d] -= low
		c.right[d] -= low
	}
	for i := range c.members {
		c.members[i].x -= low
	}
}
