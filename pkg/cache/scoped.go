package cache

import "github.com/matzehuels/graphlayout/pkg/config"

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments (or tenants) can share one Redis or Mongo backend.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}

// KeyerFor returns the keyer selected by cfg: scoped by cfg.KeyPrefix when
// set, so that environments sharing a Redis or MongoDB cache stay apart.
func KeyerFor(cfg config.Cache) Keyer {
	if cfg.KeyPrefix == "" {
		return NewDefaultKeyer()
	}
	return NewScopedKeyer(nil, cfg.KeyPrefix)
}
