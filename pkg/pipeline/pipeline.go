// Package pipeline runs layout passes for CLI and API callers.
//
// A [Runner] wraps the layout algorithms with caching, logging and
// observability hooks so that every entry point behaves the same:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Layout(ctx, g, pipeline.Options{Algorithm: "forest"})
//	if err != nil {
//	    return err
//	}
//	graph.WriteGraphFile(res.Graph, "out.json")
//
// Layouts are cached under the hash of the input document and the options
// that affect the result. A cache hit is applied to the graph exactly as a
// fresh pass would have been, so callers cannot tell the difference except
// through [Result.CacheHit].
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphlayout/pkg/cache"
	"github.com/matzehuels/graphlayout/pkg/config"
	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// DefaultTTL is how long layouts and artifacts stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Options configures a layout run. The JSON form is the "options" object of
// the HTTP API.
type Options struct {
	// Algorithm is "forest" or "spring". Empty picks by graph kind.
	Algorithm string          `json:"algorithm,omitempty"`
	Rigidity  float64         `json:"rigidity,omitempty"`
	Timeout   config.Duration `json:"timeout,omitzero"`
	Seed      uint64          `json:"seed,omitempty"`

	// Roots are suggested forest roots. Empty uses the graph's start state.
	Roots []string `json:"roots,omitempty"`

	RecordShift bool `json:"record_shift,omitempty"`

	// Incremental only places nodes that were never laid out.
	Incremental bool `json:"incremental,omitempty"`

	// Refresh skips the cache lookup; the result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Progress receives spring relaxation updates.
	Progress func(layout.Progress) `json:"-"`
	Logger   *log.Logger           `json:"-"`
}

// Result is the outcome of [Runner.Layout].
type Result struct {
	RunID    string
	Graph    graph.Graph  // Document after the layout was applied
	Layout   graph.Layout // Applied layout, as cached
	Stats    layout.Stats
	CacheHit bool
}

// ApplyConfig fills unset options from the [layout] section of a
// configuration file.
func (o *Options) ApplyConfig(c config.Layout) {
	if o.Algorithm == "" {
		o.Algorithm = c.Algorithm
	}
	if o.Rigidity == 0 {
		o.Rigidity = c.Rigidity
	}
	if o.Timeout.Duration == 0 {
		o.Timeout = c.Timeout
	}
	if o.Seed == 0 {
		o.Seed = c.Seed
	}
	o.RecordShift = o.RecordShift || c.RecordShift
}

// SetDefaults resolves the algorithm and suggested roots for g and fills
// the numeric defaults of package layout. It is idempotent.
func (o *Options) SetDefaults(g graph.Graph) {
	if o.Algorithm == "" {
		o.Algorithm = graph.DefaultAlgorithm(g.Kind)
	}
	if o.Rigidity == 0 {
		o.Rigidity = layout.DefaultRigidity
	}
	if o.Timeout.Duration == 0 {
		o.Timeout.Duration = layout.DefaultTimeout
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if len(o.Roots) == 0 && o.Algorithm == layout.AlgorithmForest {
		o.Roots = g.SuggestedRoots()
	}
}

// Validate checks option values. Unknown roots are reported by the forest
// layouter itself, since only it knows which vertices exist.
func (o *Options) Validate() error {
	if err := ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if o.Rigidity < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "rigidity must not be negative, got %g", o.Rigidity)
	}
	if o.Timeout.Duration < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "timeout must not be negative, got %s", o.Timeout.Duration)
	}
	for _, r := range o.Roots {
		if err := apperr.ValidateID("root", r); err != nil {
			return err
		}
	}
	return nil
}

// LayoutOptions converts o into options for package layout.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Rigidity:       o.Rigidity,
		Timeout:        o.Timeout.Duration,
		Seed:           o.Seed,
		SuggestedRoots: o.Roots,
		Progress:       o.Progress,
		Logger:         o.Logger,
	}
}

// LayoutKeyOpts returns the cache key options for a layout run.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:   o.Algorithm,
		Rigidity:    o.Rigidity,
		Timeout:     o.Timeout.Duration,
		Seed:        o.Seed,
		Roots:       o.Roots,
		RecordShift: o.RecordShift,
		Incremental: o.Incremental,
	}
}

// ValidateAlgorithm checks that name is a registered layout algorithm.
func ValidateAlgorithm(name string) error {
	if slices.Contains(layout.Names(), name) {
		return nil
	}
	return apperr.New(apperr.ErrCodeInvalidAlgorithm, "invalid algorithm %q (must be one of: %v)", name, layout.Names())
}
