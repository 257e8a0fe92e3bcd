package layout

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Spring simulation constants. Changing them changes where the layout
// settles, not only how fast.
const (
	innerIterations = 10

	// repulsion is the range, per axis, within which two vertices push each
	// other apart, and the strength of that push.
	repulsion = 200.0

	// maxStep bounds the motion of a vertex along each axis per iteration.
	maxStep = 5.0

	// almostZero is the per-axis distance below which two vertices are
	// separated by random jitter instead of by their offset.
	almostZero = 0.1

	fastMotion   = 0.4
	mediumMotion = 0.8
	damperBound  = 0.9

	fastDamping   = 0.01
	mediumDamping = 0.003
	slowDamping   = 0.0001
)

// body is the simulation state of one vertex.
type body struct {
	node    *Node
	pos     r2.Vec // top-left corner
	half    r2.Vec // half the size
	delta   r2.Vec // force accumulated in the current iteration
	movable bool
}

func (b *body) center() r2.Vec { return r2.Add(b.pos, b.half) }

// Spring is a force-directed layouter. Edges act as springs pulling their
// endpoints together, nearby vertices repel each other, and a damper that
// decays from 1 to 0 throttles motion until the layout settles or the
// timeout elapses. Running out of time is a normal outcome.
type Spring struct {
	snapshot

	mu     sync.Mutex
	bodies map[string]*body
	pairs  [][2]*body
	rng    *rand.Rand

	damper        float64
	maxMotion     float64
	lastMaxMotion float64
	motionRatio   float64
	iterations    int
}

// NewSpring creates a spring layouter for v.
func NewSpring(v View, opts Options) *Spring {
	return &Spring{snapshot: newSnapshot(v, opts)}
}

// Name implements [Layouter].
func (s *Spring) Name() string { return AlgorithmSpring }

// Incremental implements [Layouter]. The returned layouter moves only
// pending vertices and measures shifts against the last pass of s.
func (s *Spring) Incremental() Layouter {
	inc := NewSpring(s.view, s.opts)
	inc.onlyPending = true
	inc.nodes = s.nodes
	return inc
}

// Start implements [Layouter]. If ctx is cancelled while relaxing, nothing
// is committed and the context error is returned.
func (s *Spring) Start(ctx context.Context, recordShift bool) (Stats, error) {
	begin := time.Now()
	deadline := begin.Add(s.opts.Timeout)

	s.prepare(recordShift)
	s.reset()

	for s.damper > 0 && time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		s.relax()
		if s.opts.Progress != nil {
			s.opts.Progress(Progress{
				Iteration: s.iterations,
				Damper:    s.damper,
				MaxMotion: s.maxMotion,
				Elapsed:   time.Since(begin),
			})
		}
	}

	for _, b := range s.bodies {
		if b.movable {
			b.node.SetLocation(b.pos.X, b.pos.Y)
		}
	}
	if err := s.finish(); err != nil {
		return Stats{}, err
	}

	nodes, immovable := s.counts()
	stats := Stats{
		Algorithm:  AlgorithmSpring,
		Nodes:      nodes,
		Immovable:  immovable,
		Iterations: s.iterations,
		Damper:     s.damper,
		Converged:  s.damper == 0,
		Duration:   time.Since(begin),
	}
	s.opts.Logger.Debug("spring layout",
		"nodes", nodes,
		"iterations", stats.Iterations,
		"damper", stats.Damper,
		"converged", stats.Converged,
		"took", stats.Duration)
	return stats, nil
}

// reset builds the simulation state from the prepared snapshot.
func (s *Spring) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bodies = make(map[string]*body, len(s.order))
	for _, n := range s.order {
		// Immovable nodes hold their previous-pass location; forces act on
		// where the vertex is now.
		at := n.Location().Add(s.immovable[n.ID])
		s.bodies[n.ID] = &body{
			node:    n,
			pos:     r2.Vec{X: at.X, Y: at.Y},
			half:    r2.Vec{X: n.width / 2, Y: n.height / 2},
			movable: !s.isImmovable(n.ID),
		}
	}
	s.pairs = s.pairs[:0]
	for _, e := range s.edges {
		if e.Source == e.Target {
			continue
		}
		s.pairs = append(s.pairs, [2]*body{s.bodies[e.Source], s.bodies[e.Target]})
	}

	seed := s.opts.Seed
	s.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	s.damper = 1
	s.maxMotion = 0
	s.lastMaxMotion = 0
	s.motionRatio = 0
	s.iterations = 0
}

// relax runs one round of inner iterations.
func (s *Spring) relax() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range innerIterations {
		s.relaxEdges()
		s.avoidLabels()
		s.moveNodes()
		s.iterations++
	}
}

// relaxEdges pulls the endpoints of every edge toward each other in
// proportion to their distance.
func (s *Spring) relaxEdges() {
	k := s.opts.Rigidity / 100
	for _, p := range s.pairs {
		src, dst := p[0], p[1]
		d := r2.Scale(k, r2.Sub(dst.center(), src.center()))
		if src.movable {
			src.delta = r2.Add(src.delta, d)
		}
		if dst.movable {
			dst.delta = r2.Sub(dst.delta, d)
		}
	}
}

// avoidLabels pushes apart every pair of vertices that are within range on
// both axes, with a force inversely proportional to their distance.
func (s *Spring) avoidLabels() {
	for i, na := range s.order {
		a := s.bodies[na.ID]
		for _, nb := range s.order[i+1:] {
			b := s.bodies[nb.ID]
			if !a.movable && !b.movable {
				continue
			}
			v := r2.Sub(a.center(), b.center())
			if math.Abs(v.X) >= repulsion || math.Abs(v.Y) >= repulsion {
				continue
			}
			var f r2.Vec
			if math.Abs(v.X) < almostZero && math.Abs(v.Y) < almostZero {
				f = r2.Vec{X: s.rng.Float64(), Y: s.rng.Float64()}
			} else {
				f = r2.Scale(1/r2.Norm2(v), v)
			}
			f = r2.Scale(repulsion, f)
			if a.movable {
				a.delta = r2.Add(a.delta, f)
			}
			if b.movable {
				b.delta = r2.Sub(b.delta, f)
			}
		}
	}
}

// moveNodes applies the damped forces and updates the damper.
func (s *Spring) moveNodes() {
	s.lastMaxMotion = s.maxMotion
	s.maxMotion = 0

	low := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	for _, n := range s.order {
		b := s.bodies[n.ID]
		if !b.movable {
			continue
		}
		step := r2.Scale(s.damper, b.delta)
		step.X = clamp(step.X, maxStep)
		step.Y = clamp(step.Y, maxStep)
		b.pos = r2.Add(b.pos, step)
		b.delta = r2.Vec{}
		s.maxMotion = max(s.maxMotion, r2.Norm(step))
		low.X = min(low.X, b.pos.X)
		low.Y = min(low.Y, b.pos.Y)
	}

	// Keep movable vertices in the non-negative quadrant by shifting them
	// together, so their relative layout is preserved.
	shift := r2.Vec{X: max(0, -low.X), Y: max(0, -low.Y)}
	if shift != (r2.Vec{}) {
		for _, b := range s.bodies {
			if b.movable {
				b.pos = r2.Add(b.pos, shift)
			}
		}
	}

	if s.maxMotion > 0 {
		s.motionRatio = s.lastMaxMotion/s.maxMotion - 1
	} else {
		s.motionRatio = 0
	}
	s.damp()
}

// damp lowers the damper once motion stops shrinking. Large motion late in
// the run, or very small motion, decays it fastest.
func (s *Spring) damp() {
	if s.motionRatio > 0.001 {
		return
	}
	switch {
	case (s.maxMotion < fastMotion || (s.maxMotion > mediumMotion && s.damper < damperBound)) && s.damper > fastDamping:
		s.damper -= fastDamping
	case s.maxMotion < mediumMotion && s.damper > mediumDamping:
		s.damper -= mediumDamping
	case s.damper > slowDamping:
		s.damper -= slowDamping
	default:
		s.damper = 0
	}
}

func clamp(v, limit float64) float64 {
	return max(-limit, min(limit, v))
}
