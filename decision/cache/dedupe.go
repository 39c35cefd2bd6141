package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/decisionflow/decision"
)

// Decider is the subset of the engine the deduper wraps.
type Decider interface {
	Decide(ctx context.Context, req *decision.Request) (*decision.Result, error)
}

// Deduper collapses concurrent identical requests into a single in-flight
// decide call; latecomers share the leader's result instead of burning
// their own attempt budget.
type Deduper struct {
	inner Decider
	group singleflight.Group
}

// NewDeduper wraps a decider with in-flight deduplication.
func NewDeduper(inner Decider) *Deduper {
	return &Deduper{inner: inner}
}

// Decide runs or joins the in-flight call for the request's digest. When
// a flight was shared, every caller gets a copy marked FromCache so they
// can tell the result was not an exclusive fresh ensemble.
func (d *Deduper) Decide(ctx context.Context, req *decision.Request) (*decision.Result, error) {
	if err := req.Validate(); err != nil {
		return &decision.Result{Status: decision.StatusFailed}, err
	}

	digest := req.Digest()
	v, err, shared := d.group.Do(digest, func() (any, error) {
		return d.inner.Decide(ctx, req)
	})
	if err != nil {
		if result, ok := v.(*decision.Result); ok && result != nil {
			return result, err
		}
		return &decision.Result{Status: decision.StatusFailed}, err
	}

	result := v.(*decision.Result)
	if shared {
		cp := *result
		cp.FromCache = true
		return &cp, nil
	}
	return result, nil
}
