package snapshot

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"mindscope/internal/entity"
	"mindscope/internal/policy"
)

// EntityError is a fetch or build failure scoped to a single entity.
// It never aborts sibling snapshots in a batch.
type EntityError struct {
	Entity entity.Ref
	Err    error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("snapshot for %s: %v", describe(e.Entity), e.Err)
}

func (e EntityError) Unwrap() error { return e.Err }

// BuildResult carries the snapshots plus an explicit account of every
// entity that did not make it: dropped entities are reported, never
// silently vanished.
type BuildResult struct {
	Snapshots []Snapshot

	// DroppedForBudget lists entities dropped whole because the
	// aggregate text ceiling (or the mention cap) would have been
	// exceeded. Drop order is reverse tier priority: lowest tiers go
	// first.
	DroppedForBudget []entity.Ref

	// Failed lists entities whose attribute fetch failed.
	Failed []EntityError
}

// Builder turns resolved entities into budgeted snapshots.
type Builder struct {
	attrs  entity.AttributeFetcher
	logger *zap.Logger
}

// NewBuilder wires a builder to its attribute fetcher. A nil logger is
// replaced with a nop logger.
func NewBuilder(attrs entity.AttributeFetcher, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{attrs: attrs, logger: logger}
}

// Build fetches attributes and assembles snapshots for the resolved set,
// honoring the budget:
//
//   - at most budget.MaxMentions entities are considered (re-enforced
//     here in case a caller bypassed the scanner cap);
//   - every text field is truncated to budget.MaxTextPerEntity;
//   - once the aggregate ceiling would be exceeded, the remaining
//     lowest-tier entities are dropped whole rather than truncated
//     further.
//
// Entities are processed in tier priority order (input order within a
// tier), so what survives under pressure is always the highest tiers.
func (b *Builder) Build(ctx context.Context, refs []entity.Ref, budget policy.Budget) BuildResult {
	var result BuildResult
	if len(refs) == 0 {
		return result
	}

	ordered := make([]entity.Ref, len(refs))
	copy(ordered, refs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category < ordered[j].Category
	})

	if budget.MaxMentions > 0 && len(ordered) > budget.MaxMentions {
		result.DroppedForBudget = append(result.DroppedForBudget, ordered[budget.MaxMentions:]...)
		ordered = ordered[:budget.MaxMentions]
	}

	totalText := 0
	overBudget := false
	for _, ref := range ordered {
		if overBudget {
			result.DroppedForBudget = append(result.DroppedForBudget, ref)
			continue
		}

		snap, err := b.buildOne(ctx, ref, budget.MaxTextPerEntity)
		if err != nil {
			result.Failed = append(result.Failed, EntityError{Entity: ref, Err: err})
			continue
		}

		if budget.MaxTotalText > 0 && totalText+snap.TextLen() > budget.MaxTotalText {
			// Dropping whole beats truncating further: a half
			// snapshot is worse than none, and everything after
			// this point is lower or equal tier.
			overBudget = true
			result.DroppedForBudget = append(result.DroppedForBudget, ref)
			b.logger.Debug("entity dropped for aggregate budget",
				zap.String("entity", describe(ref)),
				zap.Int("used", totalText),
				zap.Int("ceiling", budget.MaxTotalText))
			continue
		}

		totalText += snap.TextLen()
		result.Snapshots = append(result.Snapshots, snap)
	}

	return result
}

// buildOne dispatches on the category tag to the per-category builder.
func (b *Builder) buildOne(ctx context.Context, ref entity.Ref, maxText int) (Snapshot, error) {
	bag, err := b.attrs.FetchAttributes(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching attributes: %w", err)
	}

	name := Truncate(stringAttr(bag, "name", ref.DisplayName), maxText)

	switch ref.Category {
	case entity.CategoryBuiltin:
		return BuiltinSnapshot{Entity: ref, Name: name}, nil

	case entity.CategoryTrack:
		return TrackSnapshot{
			Entity:      ref,
			Name:        name,
			Description: Truncate(stringAttr(bag, "description", ""), maxText),
			Color:       Truncate(stringAttr(bag, "color", ""), maxText),
			TaskCount:   intAttr(bag, "task_count"),
		}, nil

	case entity.CategoryTask:
		return TaskSnapshot{
			Entity:   ref,
			Name:     name,
			Status:   Truncate(stringAttr(bag, "status", ""), maxText),
			Assignee: Truncate(stringAttr(bag, "assignee", ""), maxText),
		}, nil

	case entity.CategoryContact:
		return ContactSnapshot{
			Entity:          ref,
			Name:            name,
			Role:            Truncate(stringAttr(bag, "role", ""), maxText),
			AssignmentCount: intAttr(bag, "assignment_count"),
		}, nil

	case entity.CategorySharedTrack:
		return SharedTrackSnapshot{
			Entity:      ref,
			Name:        name,
			Description: Truncate(stringAttr(bag, "description", ""), maxText),
			SharedFrom:  Truncate(stringAttr(bag, "shared_from", ""), maxText),
		}, nil

	default:
		return nil, fmt.Errorf("unknown entity category %d", ref.Category)
	}
}

// stringAttr reads a whitelisted string attribute, falling back when the
// bag lacks it or holds a non-string.
func stringAttr(bag entity.AttributeBag, key, fallback string) string {
	if v, ok := bag[key].(string); ok {
		return v
	}
	return fallback
}

// intAttr reads a whitelisted integer attribute. Bags decoded from JSON
// carry float64, bags built in Go carry int; both are accepted.
func intAttr(bag entity.AttributeBag, key string) int {
	switch v := bag[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
