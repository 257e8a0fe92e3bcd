package cache

import "time"

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a layout computed for a graph with given options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a laid-out graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists the options that change a layout result.
type LayoutKeyOpts struct {
	Algorithm   string
	Rigidity    float64
	Timeout     time.Duration
	Seed        uint64
	Roots       []string
	RecordShift bool
	Incremental bool
}

// ArtifactKeyOpts lists the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the graph hash together with opts. Root order matters
// (it is a priority list) so roots are hashed as given.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	roots := opts.Roots
	if len(roots) == 0 {
		roots = nil
	}
	return hashKey("layout", graphHash, opts.Algorithm, opts.Rigidity,
		opts.Timeout.Milliseconds(), opts.Seed, roots,
		opts.RecordShift, opts.Incremental)
}

// ArtifactKey hashes the graph hash together with the output format.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts.Format)
}
