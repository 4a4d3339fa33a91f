package location

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ihza212325/trashpin/internal/model"
)

// Options bound each tier of the cascade. Zero values fall back to the
// defaults taken from the original acquisition behavior.
type Options struct {
	// CachedMaxAge is the freshness bound for the first cached-fix tier.
	CachedMaxAge time.Duration
	// BalancedTimeout bounds the balanced-accuracy live attempt.
	BalancedTimeout time.Duration
	// LowestTimeout bounds the lowest-accuracy retry.
	LowestTimeout time.Duration
	// StaleMaxAge is the age bound for the last-resort cached fallback.
	StaleMaxAge time.Duration
}

func (o Options) withDefaults() Options {
	if o.CachedMaxAge <= 0 {
		o.CachedMaxAge = 5 * time.Minute
	}
	if o.BalancedTimeout <= 0 {
		o.BalancedTimeout = 5 * time.Second
	}
	if o.LowestTimeout <= 0 {
		o.LowestTimeout = 10 * time.Second
	}
	if o.StaleMaxAge <= 0 {
		o.StaleMaxAge = time.Hour
	}
	return o
}

// tierOutcome is the typed result of one cascade tier.
type tierOutcome int

const (
	// outcomeResolved terminates the cascade with a fix.
	outcomeResolved tierOutcome = iota
	// outcomeFallthrough moves on to the next tier.
	outcomeFallthrough
	// outcomeFailed terminates the cascade with a classified error.
	outcomeFailed
)

// tier is one step of the cascade: it resolves, falls through, or fails.
type tier struct {
	name string
	run  func(ctx context.Context) (model.LocationFix, tierOutcome, error)
}

// Cascade runs the ordered fallback tiers against the device APIs.
// One Acquire call executes tiers strictly sequentially; the cascade itself
// holds no mutable state and is safe for reuse across invocations.
type Cascade struct {
	perms PermissionAPI
	fixes FixAPI
	opts  Options
	log   Logger

	attempts  metric.Int64Counter
	successes metric.Int64Counter
}

// NewCascade creates a cascade over the given device contracts.
// Metrics use the global OTel meter (no-op if not configured).
func NewCascade(perms PermissionAPI, fixes FixAPI, opts Options, log Logger) (*Cascade, error) {
	c := &Cascade{
		perms: perms,
		fixes: fixes,
		opts:  opts.withDefaults(),
		log:   log,
	}

	m := meter()

	var err error
	c.attempts, err = m.Int64Counter(
		"location.tier.attempts",
		metric.WithDescription("Cascade tier attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating attempts counter: %w", err)
	}
	c.successes, err = m.Int64Counter(
		"location.tier.successes",
		metric.WithDescription("Cascade tier successes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating successes counter: %w", err)
	}

	return c, nil
}

// Acquire walks the tiers in order and returns a fix or a classified error:
// ErrServicesDisabled, ErrPermissionDenied, or ErrUnavailable with the
// underlying cause preserved.
func (c *Cascade) Acquire(ctx context.Context) (model.LocationFix, error) {
	var lastErr error

	for _, t := range c.tiers(&lastErr) {
		c.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", t.name)))

		fix, outcome, err := t.run(ctx)
		switch outcome {
		case outcomeResolved:
			c.successes.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", t.name)))
			c.log.Info("location acquired", "tier", t.name, "accuracy", fix.Tier.String(), "stale", fix.Stale)
			return fix, nil
		case outcomeFailed:
			c.log.Error("location acquisition failed", "tier", t.name, "error", err)
			return model.LocationFix{}, err
		case outcomeFallthrough:
			if err != nil {
				lastErr = err
				c.log.Debug("tier fell through", "tier", t.name, "error", err)
			} else {
				c.log.Debug("tier fell through", "tier", t.name)
			}
		}
	}

	err := unavailable(lastErr)
	c.log.Error("all cascade tiers exhausted", "error", err)
	return model.LocationFix{}, err
}

// tiers builds the ordered step list. lastErr lets later tiers observe the
// error recorded by the live attempts without threading it through returns.
func (c *Cascade) tiers(lastErr *error) []tier {
	return []tier{
		{name: "services", run: c.checkServices},
		{name: "permission", run: c.ensurePermission},
		{name: "cached", run: c.tryCachedFix},
		{name: "balanced", run: c.tryBalancedFix},
		{
			name: "lowest",
			run: func(ctx context.Context) (model.LocationFix, tierOutcome, error) {
				return c.tryLowestFix(ctx, *lastErr)
			},
		},
		{name: "stale-cached", run: c.tryStaleCachedFix},
	}
}

// checkServices terminates immediately when device location services are
// off; no later tier can succeed without them.
func (c *Cascade) checkServices(ctx context.Context) (model.LocationFix, tierOutcome, error) {
	enabled, err := c.fixes.ServicesEnabled(ctx)
	if err != nil {
		return model.LocationFix{}, outcomeFailed, unavailable(err)
	}
	if !enabled {
		return model.LocationFix{}, outcomeFailed, ErrServicesDisabled
	}
	return model.LocationFix{}, outcomeFallthrough, nil
}

// ensurePermission requests foreground access when it is not already
// granted. Denial is terminal for this invocation; the user can retry later.
func (c *Cascade) ensurePermission(ctx context.Context) (model.LocationFix, tierOutcome, error) {
	status, err := c.perms.ForegroundStatus(ctx)
	if err != nil {
		return model.LocationFix{}, outcomeFailed, unavailable(err)
	}
	if status == PermissionGranted {
		return model.LocationFix{}, outcomeFallthrough, nil
	}

	status, err = c.perms.RequestForeground(ctx)
	if err != nil {
		return model.LocationFix{}, outcomeFailed, unavailable(err)
	}
	if status != PermissionGranted {
		return model.LocationFix{}, outcomeFailed, ErrPermissionDenied
	}
	return model.LocationFix{}, outcomeFallthrough, nil
}

// tryCachedFix prefers a recent cached fix: no GPS wait, no power cost.
func (c *Cascade) tryCachedFix(ctx context.Context) (model.LocationFix, tierOutcome, error) {
	fix, err := c.fixes.LastKnown(ctx, c.opts.CachedMaxAge)
	if err != nil {
		return model.LocationFix{}, outcomeFallthrough, err
	}
	if fix == nil {
		return model.LocationFix{}, outcomeFallthrough, nil
	}
	resolved := *fix
	resolved.Tier = model.TierCached
	return resolved, outcomeResolved, nil
}

func (c *Cascade) tryBalancedFix(ctx context.Context) (model.LocationFix, tierOutcome, error) {
	fix, err := c.fixes.Current(ctx, model.TierBalanced, c.opts.BalancedTimeout)
	if err != nil {
		return model.LocationFix{}, outcomeFallthrough, err
	}
	fix.Tier = model.TierBalanced
	return fix, outcomeResolved, nil
}

// tryLowestFix retries at lowest accuracy with a longer bound. It only
// runs after the balanced attempt raised; on success that error is
// discarded, on failure it stays the diagnostic cause.
func (c *Cascade) tryLowestFix(ctx context.Context, balancedErr error) (model.LocationFix, tierOutcome, error) {
	fix, err := c.fixes.Current(ctx, model.TierLowest, c.opts.LowestTimeout)
	if err != nil {
		// keep the original balanced error as the diagnostic cause
		return model.LocationFix{}, outcomeFallthrough, balancedErr
	}
	fix.Tier = model.TierLowest
	return fix, outcomeResolved, nil
}

// tryStaleCachedFix is the last resort: any cached fix up to StaleMaxAge
// old, flagged so the caller warns the user.
func (c *Cascade) tryStaleCachedFix(ctx context.Context) (model.LocationFix, tierOutcome, error) {
	fix, err := c.fixes.LastKnown(ctx, c.opts.StaleMaxAge)
	if err != nil || fix == nil {
		return model.LocationFix{}, outcomeFallthrough, err
	}
	resolved := *fix
	resolved.Tier = model.TierCached
	resolved.Stale = true
	return resolved, outcomeResolved, nil
}
