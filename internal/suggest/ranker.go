// Package suggest ranks candidate entities for incremental-typing
// feedback. It shares the resolver's lookup and permission dependencies
// but runs outside the main pipeline: purely advisory, no state
// mutation, safe to call on every keystroke.
package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mindscope/internal/entity"
	"mindscope/internal/mention"
)

// DefaultLimit caps a suggestion response when callers pass limit <= 0.
const DefaultLimit = 10

// Additive score weights. Each rule a candidate satisfies contributes its
// weight; an exact key match also satisfies the prefix and contains rules,
// so totals preserve the rule ordering without special-casing.
const (
	scoreKeyExact     = 600
	scoreKeyPrefix    = 500
	scoreKeyContains  = 400
	scoreNameExact    = 300
	scoreNamePrefix   = 200
	scoreNameContains = 100
	scoreBuiltinBonus = 50
)

// Entry is one ranked suggestion.
type Entry struct {
	Key         string
	DisplayName string
	Category    entity.Category
	EntityID    string
	Score       int
}

// Ranker scores permission-visible candidates against a partial key.
type Ranker struct {
	dir     entity.Directory
	access  entity.AccessChecker
	recents entity.RecencyLog
	logger  *zap.Logger
}

// NewRanker wires a ranker to its collaborators. The recency log may be
// nil, in which case the empty-partial default set holds builtins only.
func NewRanker(dir entity.Directory, access entity.AccessChecker, recents entity.RecencyLog, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{dir: dir, access: access, recents: recents, logger: logger}
}

// Suggest returns up to limit candidates ordered by descending score,
// with ties broken by tier order and then stable entity ID. The result
// is a pure function of the store contents and the access context.
func (r *Ranker) Suggest(ctx context.Context, partial string, ac entity.AccessContext, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := mention.NormalizeKey(partial)
	if key == "" {
		return r.defaultSet(ctx, ac, limit)
	}

	candidates, err := r.visibleCandidates(ctx, ac)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, ref := range candidates {
		score := scoreCandidate(ref, key, partial)
		if score == 0 {
			continue
		}
		entries = append(entries, Entry{
			Key:         mention.NormalizeKey(ref.DisplayName),
			DisplayName: ref.DisplayName,
			Category:    ref.Category,
			EntityID:    ref.ID,
			Score:       score,
		})
	}

	sortEntries(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// defaultSet is the deterministic answer to an empty partial: builtins
// first, then the actor's most recently referenced entities.
func (r *Ranker) defaultSet(ctx context.Context, ac entity.AccessContext, limit int) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)

	add := func(ref entity.Ref) {
		id := ref.Category.String() + "/" + ref.ID
		if seen[id] || len(entries) >= limit {
			return
		}
		seen[id] = true
		entries = append(entries, Entry{
			Key:         mention.NormalizeKey(ref.DisplayName),
			DisplayName: ref.DisplayName,
			Category:    ref.Category,
			EntityID:    ref.ID,
		})
	}

	if ac.Allowed.Allows(entity.CategoryBuiltin) {
		builtins, err := r.dir.ListVisible(ctx, entity.CategoryBuiltin, entity.ScopeHint{
			ProjectID: ac.ProjectID,
			ActorID:   ac.ActorID,
		})
		if err != nil {
			return nil, fmt.Errorf("listing builtins: %w", err)
		}
		for _, ref := range builtins {
			add(ref)
		}
	}

	if r.recents == nil {
		return entries, nil
	}
	recent, err := r.recents.RecentRefs(ctx, ac.ActorID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent references: %w", err)
	}
	for _, ref := range recent {
		ok, err := r.visible(ctx, ref, ac)
		if err != nil {
			return nil, err
		}
		if ok {
			add(ref)
		}
	}
	return entries, nil
}

// visibleCandidates enumerates every entity the actor may see across the
// allowed tiers. Filtering happens at the source; a shared track the
// actor cannot access is dropped here, never later.
func (r *Ranker) visibleCandidates(ctx context.Context, ac entity.AccessContext) ([]entity.Ref, error) {
	hint := entity.ScopeHint{ProjectID: ac.ProjectID, ActorID: ac.ActorID}
	var refs []entity.Ref

	for _, tier := range entity.Tiers() {
		if !ac.Allowed.Allows(tier) {
			continue
		}
		if tier == entity.CategorySharedTrack && !ac.AllowShared {
			continue
		}

		found, err := r.dir.ListVisible(ctx, tier, hint)
		if err != nil {
			return nil, fmt.Errorf("listing %s candidates: %w", tier, err)
		}

		if tier == entity.CategoryContact {
			personal, err := r.dir.ListVisible(ctx, tier, entity.ScopeHint{
				ProjectID:         ac.ProjectID,
				ActorID:           ac.ActorID,
				PersonalDirectory: true,
			})
			if err != nil {
				return nil, fmt.Errorf("listing personal contacts: %w", err)
			}
			found = append(found, personal...)
		}

		if tier == entity.CategorySharedTrack {
			kept := found[:0]
			for _, ref := range found {
				ok, err := r.access.CanAccess(ctx, ac.ActorID, ref)
				if err != nil {
					return nil, fmt.Errorf("access check for %s %s: %w", ref.Category, ref.ID, err)
				}
				if ok {
					kept = append(kept, ref)
				}
			}
			found = kept
		}

		refs = append(refs, found...)
	}
	return refs, nil
}

// visible re-checks a recency-log entry against the current context.
func (r *Ranker) visible(ctx context.Context, ref entity.Ref, ac entity.AccessContext) (bool, error) {
	if !ac.Allowed.Allows(ref.Category) {
		return false, nil
	}
	if ref.Category == entity.CategorySharedTrack {
		if !ac.AllowShared {
			return false, nil
		}
		return r.access.CanAccess(ctx, ac.ActorID, ref)
	}
	return true, nil
}

// scoreCandidate applies the additive rule set.
func scoreCandidate(ref entity.Ref, key, rawPartial string) int {
	candKey := mention.NormalizeKey(ref.DisplayName)
	name := strings.ToLower(ref.DisplayName)
	partial := strings.ToLower(strings.TrimPrefix(rawPartial, "@"))

	score := 0
	if candKey == key {
		score += scoreKeyExact
	}
	if strings.HasPrefix(candKey, key) {
		score += scoreKeyPrefix
	}
	if strings.Contains(candKey, key) {
		score += scoreKeyContains
	}
	if partial != "" {
		if name == partial {
			score += scoreNameExact
		}
		if strings.HasPrefix(name, partial) {
			score += scoreNamePrefix
		}
		if strings.Contains(name, partial) {
			score += scoreNameContains
		}
	}
	if score > 0 && ref.Category == entity.CategoryBuiltin {
		score += scoreBuiltinBonus
	}
	return score
}

// sortEntries orders by score descending, then tier, then entity ID.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].EntityID < entries[j].EntityID
	})
}
