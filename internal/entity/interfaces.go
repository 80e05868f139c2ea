package entity

import "context"

// ScopeHint narrows a directory lookup to the slice of the store a tier
// query is allowed to see. Directories must apply it at the source: an
// entity outside the hinted scope, or invisible to the actor, must never
// reach the returned candidate list.
type ScopeHint struct {
	// ProjectID scopes track, task, and project-contact lookups.
	ProjectID string

	// ActorID identifies the requester for visibility filtering.
	ActorID string

	// PersonalDirectory switches a contact lookup from the active
	// project's contacts to the actor's own directory.
	PersonalDirectory bool
}

// Directory is the lookup capability the resolver and ranker consume.
// Implementations are read-only and must be permission-filtered at the
// source per the scope hint.
type Directory interface {
	// FindByNormalizedName returns entities of the given category whose
	// normalized display name equals key, within the hinted scope.
	FindByNormalizedName(ctx context.Context, cat Category, key string, hint ScopeHint) ([]Ref, error)

	// ListVisible returns every entity of the given category visible
	// within the hinted scope, in stable ID order. Used by the
	// suggestion ranker to enumerate candidates.
	ListVisible(ctx context.Context, cat Category, hint ScopeHint) ([]Ref, error)
}

// AccessChecker answers the secondary permission question for entities
// whose visibility is not decided by scope alone (shared tracks).
type AccessChecker interface {
	CanAccess(ctx context.Context, actorID string, ref Ref) (bool, error)
}

// AttributeBag is the raw attribute projection a fetcher returns.
// Snapshot builders read a whitelisted subset of keys and ignore the rest.
type AttributeBag map[string]any

// AttributeFetcher supplies the attributes the snapshot budgeter needs.
// Only entities that survived resolution are ever fetched.
type AttributeFetcher interface {
	FetchAttributes(ctx context.Context, ref Ref) (AttributeBag, error)
}

// RecencyLog records which entities an actor has referenced, and feeds
// the ranker's default suggestion set. Implementations must return
// recents in a deterministic order (most recent first, ID tie-break).
type RecencyLog interface {
	Touch(ctx context.Context, actorID string, ref Ref) error
	RecentRefs(ctx context.Context, actorID string, limit int) ([]Ref, error)
}
