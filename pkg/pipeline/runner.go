package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphlayout/pkg/cache"
	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/observability"
)

// Runner executes layout runs with caching.
//
// One Runner may serve concurrent runs on different graphs. For models
// passed to [Runner.LayoutModel] it keeps the layouter of the last pass,
// so that the next pass on the same model can record shifts of immovable
// vertices and keep forest roots in place. [Runner.Forget] drops it.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration

	mu     sync.Mutex
	passes map[passKey]*pass
}

type passKey struct {
	model       *graph.Model
	algorithm   string
	incremental bool
}

// pass is a layouter retained for one model. Runs on it are serialized.
type pass struct {
	mu       sync.Mutex
	rec      *recorder
	layouter layout.Layouter
	runs     int
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger, TTL: DefaultTTL}
}

// Layout lays out a copy of g and returns the updated document. Nothing is
// retained between calls.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	m, err := graph.NewModel(g)
	if err != nil {
		return nil, err
	}
	return r.layoutModel(ctx, m, opts, false)
}

// LayoutModel runs one pass against a live model. Subscribers of m see the
// result as a single change, whether it was computed or read from the cache.
//
// The layouter is kept for the next call with the same model, algorithm and
// incremental mode. A pass that depends on an earlier one bypasses the
// cache: with RecordShift the cache is never read, and once a previous pass
// exists results are no longer stored either.
func (r *Runner) LayoutModel(ctx context.Context, m *graph.Model, opts Options) (*Result, error) {
	return r.layoutModel(ctx, m, opts, true)
}

func (r *Runner) layoutModel(ctx context.Context, m *graph.Model, opts Options, retain bool) (*Result, error) {
	g := m.Graph()
	opts.SetDefaults(g)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])
	if opts.Logger == nil {
		opts.Logger = logger
	}

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}
	graphHash := cache.Hash(graphData)
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	var p *pass
	if retain {
		p = r.pass(m, opts)
		p.mu.Lock()
		defer p.mu.Unlock()
	}
	history := p != nil && p.runs > 0
	readCache := !opts.Refresh && !history && !(p != nil && opts.RecordShift)

	if readCache {
		if l, ok := r.cachedLayout(ctx, key, logger); ok {
			if err := apply(m, l); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				logger.Info("layout cache hit", "algorithm", l.Algorithm, "nodes", len(l.Positions))
				return &Result{RunID: runID, Graph: m.Graph(), Layout: l, Stats: l.Stats(), CacheHit: true}, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l, stats, err := r.run(ctx, m, opts, p)
	if err != nil {
		return nil, err
	}
	l.GraphHash = graphHash

	logger.Info("computed layout",
		"algorithm", stats.Algorithm,
		"nodes", stats.Nodes,
		"immovable", stats.Immovable,
		"duration", stats.Duration)

	if history {
		return &Result{RunID: runID, Graph: m.Graph(), Layout: l, Stats: stats}, nil
	}
	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			logger.Warn("failed to cache layout", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return &Result{RunID: runID, Graph: m.Graph(), Layout: l, Stats: stats}, nil
}

func (r *Runner) cachedLayout(ctx context.Context, key string, logger *log.Logger) (graph.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("layout cache lookup failed", "error", err)
		return graph.Layout{}, false
	}
	if !hit {
		return graph.Layout{}, false
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		logger.Debug("discarding unreadable cache entry", "error", err)
		_ = r.Cache.Delete(ctx, key)
		return graph.Layout{}, false
	}
	return l, true
}

// apply commits a cached layout. An empty layout is a pass that had nothing
// to move, which commits nothing.
func apply(m *graph.Model, l graph.Layout) error {
	u := l.Update()
	if u.IsEmpty() {
		return nil
	}
	return m.Commit(u)
}

// pass returns the retained layouter slot for m, creating an empty one.
func (r *Runner) pass(m *graph.Model, opts Options) *pass {
	k := passKey{model: m, algorithm: opts.Algorithm, incremental: opts.Incremental}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passes == nil {
		r.passes = make(map[passKey]*pass)
	}
	p, ok := r.passes[k]
	if !ok {
		p = &pass{rec: &recorder{Model: m}}
		r.passes[k] = p
	}
	return p
}

// Forget drops the layouters retained for m. The next pass on m starts
// without history.
func (r *Runner) Forget(m *graph.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.passes {
		if k.model == m {
			delete(r.passes, k)
		}
	}
}

// run performs an uncached pass, on the retained layouter of p when given.
func (r *Runner) run(ctx context.Context, m *graph.Model, opts Options, p *pass) (graph.Layout, layout.Stats, error) {
	hooks := observability.Layout()
	progress := opts.Progress
	lo := opts.LayoutOptions()
	lo.Progress = func(pr layout.Progress) {
		hooks.OnRelax(ctx, pr.Iteration, pr.Damper, pr.MaxMotion)
		if progress != nil {
			progress(pr)
		}
	}

	rec := &recorder{Model: m}
	var l layout.Layouter
	if p != nil && p.layouter != nil {
		rec, l = p.rec, p.layouter
		l.SetOptions(lo)
	} else {
		if p != nil {
			rec = p.rec
		}
		var err error
		l, err = layout.New(opts.Algorithm, rec, lo)
		if err != nil {
			return graph.Layout{}, layout.Stats{}, apperr.Wrap(apperr.ErrCodeInvalidAlgorithm, err, "%s", err)
		}
		if opts.Incremental {
			l = l.Incremental()
		}
	}
	rec.update = layout.Update{}

	hooks.OnLayoutStart(ctx, opts.Algorithm, len(m.Vertices()))
	start := time.Now()
	stats, err := l.Start(ctx, opts.RecordShift)
	hooks.OnLayoutComplete(ctx, opts.Algorithm, stats.Nodes, time.Since(start), err)
	if p != nil {
		p.layouter = l
		if err == nil {
			p.runs++
		}
	}
	if err != nil {
		return graph.Layout{}, stats, classify(err)
	}

	after := m.Graph()
	return graph.NewLayout(rec.update, stats, after.Bounds()), stats, nil
}

// classify attaches an error code to layouter failures. Cancellation is
// returned unchanged so callers can tell an interrupt from a failure.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "layout timed out")
	case errors.Is(err, layout.ErrUnknownRoot):
		return apperr.Wrap(apperr.ErrCodeUnknownRoot, err, "%s", err)
	case apperr.GetCode(err) != "":
		return err
	default:
		return apperr.Wrap(apperr.ErrCodeInternal, err, "layout failed")
	}
}

// Close releases the cache and every retained layouter.
func (r *Runner) Close() error {
	r.mu.Lock()
	r.passes = nil
	r.mu.Unlock()
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// recorder forwards commits to the model and keeps the last update, which
// becomes the cached layout document.
type recorder struct {
	*graph.Model
	update layout.Update
}

func (r *recorder) Commit(u layout.Update) error {
	if err := r.Model.Commit(u); err != nil {
		return err
	}
	r.update = u
	return nil
}
