package layout

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownRoot is returned by [Forest.Start] when a suggested root does
	// not name any vertex of the view. This is a caller error; the pass is
	// not started.
	ErrUnknownRoot = errors.New("unknown suggested root")

	// ErrUnknownAlgorithm is returned by [New] for an unregistered name.
	ErrUnknownAlgorithm = errors.New("unknown layout algorithm")
)

// Algorithm names accepted by [New].
const (
	AlgorithmForest = "forest"
	AlgorithmSpring = "spring"
)

// Layouter computes positions for the vertices of a [View] and commits them.
//
// A layouter is bound to one view and may be started repeatedly; state from
// the previous pass (node positions, forest roots) is kept to provide
// continuity. Start is not safe for concurrent use on the same layouter.
type Layouter interface {
	// Name returns the algorithm name.
	Name() string

	// Start runs a complete pass: snapshot, compute, commit. When
	// recordShift is true, immovable vertices that moved since the previous
	// pass have their displacement recorded in the update.
	Start(ctx context.Context, recordShift bool) (Stats, error)

	// Incremental returns a layouter that only moves vertices that were
	// never laid out. It may return the receiver.
	Incremental() Layouter

	// SetOptions replaces the options used from the next pass on, keeping
	// the state of the previous pass.
	SetOptions(opts Options)
}

var factories = map[string]func(View, Options) Layouter{
	AlgorithmForest: func(v View, o Options) Layouter { return NewForest(v, o) },
	AlgorithmSpring: func(v View, o Options) Layouter { return NewSpring(v, o) },
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates a layouter by algorithm name.
func New(name string, v View, opts Options) (Layouter, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return f(v, opts), nil
}
