package layout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestSpringTwoNodes(t *testing.T) {
	v := &memView{}
	v.add("a", 0, 100)
	v.add("b", 500, 100)
	v.connect("a", "b", "")

	s := NewSpring(v, Options{})
	s.prepare(false)
	s.reset()

	dist := func() float64 {
		return r2.Norm(r2.Sub(s.bodies["b"].center(), s.bodies["a"].center()))
	}
	last := dist()
	for round := 0; round < 300 && s.damper > 0; round++ {
		s.relax()
		d := dist()
		if math.IsNaN(d) || math.IsInf(d, 0) {
			t.Fatalf("round %d: distance %v", round, d)
		}
		if d > last+1e-6 {
			t.Fatalf("round %d: distance grew from %v to %v", round, last, d)
		}
		last = d
	}
	// Attraction 0.02*d balances repulsion 200/d at d = 100.
	if math.Abs(last-100) > 2 {
		t.Errorf("final distance = %v, want about 100", last)
	}
}

func TestSpringStepClamp(t *testing.T) {
	v := &memView{}
	v.add("a", 0, 0)
	v.add("b", 2000, 0)
	v.connect("a", "b", "")

	s := NewSpring(v, Options{})
	s.prepare(false)
	s.reset()
	before := s.bodies["a"].pos

	s.relaxEdges()
	s.avoidLabels()
	s.moveNodes()

	if got := s.bodies["a"].pos.X - before.X; got != maxStep {
		t.Errorf("step = %v, want %v", got, maxStep)
	}
	if s.maxMotion != maxStep {
		t.Errorf("maxMotion = %v, want %v", s.maxMotion, maxStep)
	}
}

func TestSpringStart(t *testing.T) {
	v := &memView{}
	for i := range 8 {
		v.add(fmt.Sprintf("s%d", i), float64(37*i%150), float64(53*i%120))
	}
	for i := range 8 {
		v.connect(fmt.Sprintf("s%d", i), fmt.Sprintf("s%d", (i+1)%8), "")
		v.connect(fmt.Sprintf("s%d", i), fmt.Sprintf("s%d", (i+3)%8), "")
	}

	var calls int
	opts := Options{
		Timeout:  300 * time.Millisecond,
		Progress: func(Progress) { calls++ },
	}
	stats, err := NewSpring(v, opts).Start(context.Background(), false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !stats.Converged && stats.Duration < opts.Timeout {
		t.Errorf("stopped after %v without converging", stats.Duration)
	}
	if stats.Nodes != 8 {
		t.Errorf("Nodes = %d, want 8", stats.Nodes)
	}
	if calls == 0 || stats.Iterations != calls*innerIterations {
		t.Errorf("progress calls = %d, iterations = %d", calls, stats.Iterations)
	}
	for _, vx := range v.vertices {
		if !finite(vx.Bounds) {
			t.Errorf("%s at %+v", vx.ID, vx.Bounds)
		}
		if vx.Bounds.X < -1e-9 || vx.Bounds.Y < -1e-9 {
			t.Errorf("%s at %+v, want non-negative", vx.ID, vx.Bounds)
		}
		if vx.Pending {
			t.Errorf("%s still pending", vx.ID)
		}
	}
}

func TestSpringImmovable(t *testing.T) {
	v := &memView{}
	v.add("p", 300, 200).Pinned = true
	v.add("a", 0, 0)
	v.add("b", 300, 200)
	v.connect("p", "a", "")
	v.connect("a", "b", "")

	pinned := v.bounds(t, "p")
	if _, err := NewSpring(v, Options{Timeout: 200 * time.Millisecond}).Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := v.bounds(t, "p"); got != pinned {
		t.Errorf("p = %+v, want %+v", got, pinned)
	}
	if got := v.bounds(t, "b"); got == pinned {
		t.Error("b was not pushed off p")
	}
}

func TestSpringFollowsMovedPinned(t *testing.T) {
	v := &memView{}
	v.add("a", 0, 0).Pinned = true
	v.add("b", 300, 0)
	v.connect("a", "b", "")

	s := NewSpring(v, Options{Timeout: 2 * time.Second})
	if _, err := s.Start(context.Background(), true); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	first := v.bounds(t, "b")
	if first.X > 1000 {
		t.Fatalf("b = %+v after first pass, want near a", first)
	}

	v.vertex("a").Bounds.X = 2000
	if _, err := s.Start(context.Background(), true); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if got := v.lastCommit(t).Shifts["a"]; got != (Point{X: 2000}) {
		t.Errorf("shift = %v, want {2000 0}", got)
	}
	if got := v.bounds(t, "a"); got.X != 2000 || got.Y != 0 {
		t.Errorf("a = %+v, want it to stay at x=2000", got)
	}
	if got := v.bounds(t, "b"); got.X < 1500 {
		t.Errorf("b = %+v, want it pulled toward a at x=2000", got)
	}
}

func TestSpringCoincident(t *testing.T) {
	v := &memView{}
	v.add("a", 50, 50)
	v.add("b", 50, 50)

	if _, err := NewSpring(v, Options{Timeout: 200 * time.Millisecond}).Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a, b := v.bounds(t, "a"), v.bounds(t, "b")
	if !finite(a) || !finite(b) {
		t.Fatalf("a = %+v, b = %+v", a, b)
	}
	if a.Location() == b.Location() {
		t.Error("coincident vertices were not separated")
	}
}

func TestSpringEmpty(t *testing.T) {
	v := newView()
	stats, err := NewSpring(v, Options{}).Start(context.Background(), false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !stats.Converged || stats.Nodes != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(v.commits) != 0 {
		t.Errorf("commits = %d, want 0", len(v.commits))
	}
}

func TestSpringCancelled(t *testing.T) {
	v := newView("a", "b")
	v.connect("a", "b", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSpring(v, Options{}).Start(ctx, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start error = %v, want context.Canceled", err)
	}
	if len(v.commits) != 0 {
		t.Errorf("commits = %d, want 0", len(v.commits))
	}
}

func TestSpringIncremental(t *testing.T) {
	v := &memView{}
	v.add("a", 0, 0)
	v.add("b", 200, 0)
	v.connect("a", "b", "")

	full := NewSpring(v, Options{Timeout: 100 * time.Millisecond})
	if _, err := full.Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a, b := v.bounds(t, "a"), v.bounds(t, "b")

	v.add("c", 0, 0)
	v.connect("b", "c", "")
	inc := full.Incremental()
	if inc == Layouter(full) {
		t.Fatal("Incremental returned the receiver")
	}
	if _, err := inc.Start(context.Background(), false); err != nil {
		t.Fatalf("incremental Start: %v", err)
	}
	if got := v.bounds(t, "a"); !near(got, a) {
		t.Errorf("a moved: %+v -> %+v", a, got)
	}
	if got := v.bounds(t, "b"); !near(got, b) {
		t.Errorf("b moved: %+v -> %+v", b, got)
	}
	if v.vertex("c").Pending {
		t.Error("c still pending")
	}
}

func TestDamp(t *testing.T) {
	tests := []struct {
		name   string
		damper float64
		motion float64
		ratio  float64
		want   float64
	}{
		{"still shrinking", 1, 0.1, 0.5, 1},
		{"small motion", 1, 0.1, 0, 0.99},
		{"late large motion", 0.5, 2, 0, 0.49},
		{"early large motion", 1, 2, 0, 0.9999},
		{"medium motion", 0.5, 0.6, 0, 0.497},
		{"nearly stopped", 0.00005, 0.6, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Spring{damper: tt.damper, maxMotion: tt.motion, motionRatio: tt.ratio}
			s.damp()
			if math.Abs(s.damper-tt.want) > 1e-12 {
				t.Errorf("damper = %v, want %v", s.damper, tt.want)
			}
		})
	}
}
