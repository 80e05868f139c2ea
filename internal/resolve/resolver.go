// Package resolve maps normalized mention keys to authoritative entities
// under the tier priority order, with explicit first-class handling of
// no-match and multi-match outcomes.
package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mindscope/internal/entity"
)

// Status is the outcome kind for a single key. Unresolved and Ambiguous
// are expected results, not errors.
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolved
	StatusAmbiguous
)

// String returns the wire/display name of the status.
func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Outcome is the per-key resolution result.
//
// Resolved carries exactly one entity. Ambiguous carries two or more
// candidates, always from the same tier: cross-tier collisions are decided
// by tier priority and never reported as ambiguity. Err is set when a
// directory or access-check call failed for this key; the failure is
// scoped to the key and never aborts siblings in a batch.
type Outcome struct {
	Key        string
	Status     Status
	Entity     *entity.Ref
	Candidates []entity.Ref
	Err        error
}

// Resolver resolves keys against an injected directory and access checker.
// It is stateless and safe for concurrent use across requests.
type Resolver struct {
	dir    entity.Directory
	access entity.AccessChecker
	logger *zap.Logger
}

// NewResolver wires a resolver to its collaborators. A nil logger is
// replaced with a nop logger.
func NewResolver(dir entity.Directory, access entity.AccessChecker, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dir: dir, access: access, logger: logger}
}

// Resolve resolves a single normalized key under the access context.
//
// Tiers are consulted strictly in order, and each tier is only queried if
// every earlier tier yielded nothing. The first tier with at least one
// surviving candidate decides the outcome: one candidate resolves, two or
// more are ambiguous.
func (r *Resolver) Resolve(ctx context.Context, key string, ac entity.AccessContext) Outcome {
	out := Outcome{Key: key, Status: StatusUnresolved}
	if key == "" {
		return out
	}

	for _, tier := range entity.Tiers() {
		if !ac.Allowed.Allows(tier) {
			continue
		}
		if tier == entity.CategorySharedTrack && !ac.AllowShared {
			continue
		}

		candidates, err := r.queryTier(ctx, tier, key, ac)
		if err != nil {
			out.Err = fmt.Errorf("resolving %q at tier %s: %w", key, tier, err)
			r.logger.Warn("tier query failed",
				zap.String("key", key),
				zap.Stringer("tier", tier),
				zap.Error(err))
			return out
		}
		if len(candidates) == 0 {
			continue
		}

		// First tier with survivors decides; lower tiers are never
		// consulted.
		if len(candidates) == 1 || tier == entity.CategoryBuiltin {
			// Builtin keys are meant to be unique. If a directory ever
			// returns several, the lowest ID wins so the outcome does
			// not depend on return order.
			ref := candidates[0]
			for _, c := range candidates[1:] {
				if c.ID < ref.ID {
					ref = c
				}
			}
			out.Status = StatusResolved
			out.Entity = &ref
			return out
		}
		out.Status = StatusAmbiguous
		out.Candidates = candidates
		return out
	}

	return out
}

// ResolveAll resolves a batch of keys. The output preserves input order,
// one outcome per key, and duplicate keys are resolved independently.
// Keys resolve concurrently; tier ordering within each key is unaffected.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string, ac entity.AccessContext) []Outcome {
	outcomes := make([]Outcome, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			outcomes[i] = r.Resolve(gctx, key, ac)
			return nil
		})
	}
	// Workers never return errors; per-key failures live on the outcome.
	_ = g.Wait()

	return outcomes
}

// queryTier runs a single tier lookup, including the contact fallback and
// the shared-track secondary access check.
func (r *Resolver) queryTier(ctx context.Context, tier entity.Category, key string, ac entity.AccessContext) ([]entity.Ref, error) {
	hint := entity.ScopeHint{ProjectID: ac.ProjectID, ActorID: ac.ActorID}

	switch tier {
	case entity.CategoryContact:
		refs, err := r.dir.FindByNormalizedName(ctx, tier, key, hint)
		if err != nil || len(refs) > 0 {
			return refs, err
		}
		// Fall back to the actor's personal directory only when the
		// project contacts produced nothing.
		hint.PersonalDirectory = true
		return r.dir.FindByNormalizedName(ctx, tier, key, hint)

	case entity.CategorySharedTrack:
		refs, err := r.dir.FindByNormalizedName(ctx, tier, key, hint)
		if err != nil {
			return nil, err
		}
		// A candidate the actor cannot access is dropped before
		// counting, so it can neither resolve nor cause ambiguity.
		survivors := refs[:0]
		for _, ref := range refs {
			ok, err := r.access.CanAccess(ctx, ac.ActorID, ref)
			if err != nil {
				return nil, fmt.Errorf("access check for %s %s: %w", ref.Category, ref.ID, err)
			}
			if ok {
				survivors = append(survivors, ref)
			}
		}
		return survivors, nil

	default:
		return r.dir.FindByNormalizedName(ctx, tier, key, hint)
	}
}
