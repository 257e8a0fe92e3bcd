package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/graphlayout/pkg/cache"
	apperr "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/observability"
	"github.com/matzehuels/graphlayout/pkg/render"
)

// Render draws the current geometry of g, reusing a cached artifact when
// the same document was rendered before in the same format.
func (r *Runner) Render(ctx context.Context, g graph.Graph, format string) ([]byte, bool, error) {
	if format == "" {
		format = render.FormatSVG
	}

	data, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("hash graph: %w", err)
	}
	key := r.Keyer.ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{Format: format})

	if out, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return out, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	out, err := render.Render(ctx, g, format)
	observability.Layout().OnRenderComplete(ctx, format, len(out), time.Since(start), err)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrUnsupportedFormat):
			return nil, false, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "%s", err)
		case errors.Is(err, render.ErrConverterMissing):
			return nil, false, apperr.Wrap(apperr.ErrCodeUnsupported, err, "%s", err)
		default:
			return nil, false, apperr.Wrap(apperr.ErrCodeInternal, err, "render %s", format)
		}
	}
	r.Logger.Debug("rendered graph", "format", format, "bytes", len(out), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, out, r.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(out))
	}
	return out, false, nil
}
