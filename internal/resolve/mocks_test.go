package resolve

import (
	"context"
	"fmt"
	"sort"

	"mindscope/internal/entity"
	"mindscope/internal/mention"
)

// fakeEntity is one entry in the in-memory directory used by tests.
type fakeEntity struct {
	ref entity.Ref

	// Scoping. Builtins ignore all of these.
	projectID string
	// ownerID marks a personal-directory contact.
	ownerID string
	// visibleTo lists actors that pass the shared-track access check.
	visibleTo []string
}

// fakeDirectory is an in-memory Directory + AccessChecker with
// filter-at-source semantics, mirroring how the SQLite store scopes its
// queries.
type fakeDirectory struct {
	entities []fakeEntity

	// failTier, when set, makes lookups at that tier fail.
	failTier    entity.Category
	failTierSet bool

	// calls records every tier queried, for sequencing assertions.
	calls []entity.Category
}

func (d *fakeDirectory) add(e fakeEntity) {
	d.entities = append(d.entities, e)
}

func (d *fakeDirectory) inScope(e fakeEntity, cat entity.Category, hint entity.ScopeHint) bool {
	if e.ref.Category != cat {
		return false
	}
	switch cat {
	case entity.CategoryBuiltin:
		return true
	case entity.CategoryContact:
		if hint.PersonalDirectory {
			return e.ownerID != "" && e.ownerID == hint.ActorID
		}
		return e.ownerID == "" && e.projectID == hint.ProjectID
	default:
		return e.projectID == hint.ProjectID
	}
}

func (d *fakeDirectory) FindByNormalizedName(ctx context.Context, cat entity.Category, key string, hint entity.ScopeHint) ([]entity.Ref, error) {
	d.calls = append(d.calls, cat)
	if d.failTierSet && d.failTier == cat {
		return nil, fmt.Errorf("directory unavailable")
	}
	var refs []entity.Ref
	for _, e := range d.entities {
		if d.inScope(e, cat, hint) && mention.NormalizeKey(e.ref.DisplayName) == key {
			refs = append(refs, e.ref)
		}
	}
	return refs, nil
}

func (d *fakeDirectory) ListVisible(ctx context.Context, cat entity.Category, hint entity.ScopeHint) ([]entity.Ref, error) {
	if d.failTierSet && d.failTier == cat {
		return nil, fmt.Errorf("directory unavailable")
	}
	var refs []entity.Ref
	for _, e := range d.entities {
		if d.inScope(e, cat, hint) {
			refs = append(refs, e.ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (d *fakeDirectory) CanAccess(ctx context.Context, actorID string, ref entity.Ref) (bool, error) {
	for _, e := range d.entities {
		if e.ref.Category == ref.Category && e.ref.ID == ref.ID {
			for _, a := range e.visibleTo {
				if a == actorID {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return false, nil
}
