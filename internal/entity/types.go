// Package entity defines the shared vocabulary of the mention engine:
// entity categories and their resolution order, opaque entity references,
// and the request-scoped access context that every lookup is filtered by.
package entity

import "fmt"

// Category identifies the kind of entity a mention can refer to.
// The declaration order is the resolution tier order and is part of the
// engine contract: when one normalized key matches entities in more than
// one category, the lower-numbered category wins outright.
type Category int

const (
	// CategoryBuiltin covers the fixed, non-tenant-scoped concepts every
	// project has (the calendar, the task list). Builtins always win ties.
	CategoryBuiltin Category = iota

	// CategoryTrack is a project's internal grouping of work.
	CategoryTrack

	// CategoryTask is a schedulable unit belonging to a track.
	CategoryTask

	// CategoryContact is a person scoped to the active project, falling
	// back to the actor's personal directory.
	CategoryContact

	// CategorySharedTrack is a track shared into the active project from
	// another project. Resolving one requires an explicit access check
	// per candidate.
	CategorySharedTrack
)

// Tiers returns all categories in resolution priority order.
// Callers must not mutate the returned slice's meaning by reordering it.
func Tiers() []Category {
	return []Category{
		CategoryBuiltin,
		CategoryTrack,
		CategoryTask,
		CategoryContact,
		CategorySharedTrack,
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= CategoryBuiltin && c <= CategorySharedTrack
}

// String returns the wire/display name of the category.
func (c Category) String() string {
	switch c {
	case CategoryBuiltin:
		return "builtin"
	case CategoryTrack:
		return "track"
	case CategoryTask:
		return "task"
	case CategoryContact:
		return "contact"
	case CategorySharedTrack:
		return "shared_track"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory converts a wire/display name back to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Tiers() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown entity category %q", s)
}

// Ref is the opaque handle the resolver returns. Richer attributes are
// fetched separately, and only for entities that survived resolution.
type Ref struct {
	Category    Category
	ID          string
	DisplayName string
}

// CategorySet is an allow-list of entity categories.
type CategorySet map[Category]bool

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cats ...Category) CategorySet {
	set := make(CategorySet, len(cats))
	for _, c := range cats {
		set[c] = true
	}
	return set
}

// AllCategories returns a set allowing every defined category.
func AllCategories() CategorySet {
	return NewCategorySet(Tiers()...)
}

// Allows reports whether the category is in the set. A nil set allows
// nothing, so a zero-valued AccessContext is fail-closed.
func (s CategorySet) Allows(c Category) bool {
	return s != nil && s[c]
}

// AccessContext is the sole channel through which permission scoping
// enters the engine. It is supplied once per request and treated as
// immutable for the duration of the pipeline.
type AccessContext struct {
	// ActorID identifies the requester.
	ActorID string

	// ProjectID is the active project every tier query is scoped to.
	ProjectID string

	// Allowed is the category allow-list for this request purpose.
	Allowed CategorySet

	// AllowShared enables the shared-track tier. Even when set, each
	// shared-track candidate still passes an explicit access check.
	AllowShared bool
}
