package layout

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Forest geometry.
const (
	// MinNodeDistance is the minimal horizontal gap between any two nodes on
	// the same tree level, and the margin kept to the left of the forest.
	MinNodeDistance = 40.0

	// MinChildDistance is the minimal horizontal gap between direct siblings.
	MinChildDistance = 60.0

	// VerticalSpace separates consecutive tree levels.
	VerticalSpace = 40.0
)

// Defaults for Options.
const (
	// DefaultRigidity is the spring stiffness used when Options.Rigidity is zero.
	DefaultRigidity = 2.0

	// DefaultTimeout bounds a single spring layout pass.
	DefaultTimeout = 2000 * time.Millisecond

	// DefaultSeed seeds the jitter used to separate coinciding nodes.
	DefaultSeed = uint64(42)
)

// Options configures a layouter. The zero value is valid; zero fields take
// their defaults when the layouter is created.
type Options struct {
	// Rigidity controls how strongly edges pull their endpoints together.
	Rigidity float64

	// Timeout is the wall-clock budget of a spring pass.
	Timeout time.Duration

	// Seed makes the spring jitter reproducible.
	Seed uint64

	// SuggestedRoots are preferred forest roots, in priority order
	// (for example a transition system's start state, or the selection).
	SuggestedRoots []string

	// Progress, if set, is called by the spring layouter after each
	// relaxation round. It runs on the layout goroutine.
	Progress func(Progress)

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Rigidity <= 0 {
		o.Rigidity = DefaultRigidity
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Progress is a snapshot of a running spring layout.
type Progress struct {
	Iteration int           // Inner iterations performed so far
	Damper    float64       // Current damper in [0, 1]
	MaxMotion float64       // Largest single-node step of the last iteration
	Elapsed   time.Duration // Time since the pass started
}

// Throttle returns a progress callback that forwards at most one update per
// interval to fn, starting with the first. Updates in between are dropped.
// The returned function is safe for concurrent use.
func Throttle(interval time.Duration, fn func(Progress)) func(Progress) {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(p Progress) {
		mu.Lock()
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()
		fn(p)
	}
}

// Stats summarizes a finished layout pass.
type Stats struct {
	Algorithm  string
	Nodes      int           // Vertices in the pass
	Immovable  int           // Vertices that were not allowed to move
	Roots      []string      // Forest roots, in placement order (forest only)
	Iterations int           // Inner iterations (spring only)
	Damper     float64       // Final damper (spring only)
	Converged  bool          // Damper reached zero before the timeout (spring only)
	Duration   time.Duration // Wall-clock time of the pass
}
