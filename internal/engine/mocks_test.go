package engine

import (
	"context"
	"fmt"
	"sort"

	"mindscope/internal/entity"
	"mindscope/internal/mention"
)

// fakeWorkspace is an in-memory stand-in for the entity stores: it
// implements Directory, AccessChecker, AttributeFetcher, and RecencyLog
// with the same filter-at-source semantics as the SQLite store.
type fakeWorkspace struct {
	entities []workspaceEntity
	recents  map[string][]entity.Ref
}

type workspaceEntity struct {
	ref       entity.Ref
	projectID string
	ownerID   string
	visibleTo []string
	attrs     entity.AttributeBag
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{recents: make(map[string][]entity.Ref)}
}

func (w *fakeWorkspace) add(e workspaceEntity) {
	w.entities = append(w.entities, e)
}

func (w *fakeWorkspace) inScope(e workspaceEntity, cat entity.Category, hint entity.ScopeHint) bool {
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

func (w *fakeWorkspace) FindByNormalizedName(ctx context.Context, cat entity.Category, key string, hint entity.ScopeHint) ([]entity.Ref, error) {
	var refs []entity.Ref
	for _, e := range w.entities {
		if w.inScope(e, cat, hint) && mention.NormalizeKey(e.ref.DisplayName) == key {
			refs = append(refs, e.ref)
		}
	}
	return refs, nil
}

func (w *fakeWorkspace) ListVisible(ctx context.Context, cat entity.Category, hint entity.ScopeHint) ([]entity.Ref, error) {
	var refs []entity.Ref
	for _, e := range w.entities {
		if w.inScope(e, cat, hint) {
			refs = append(refs, e.ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (w *fakeWorkspace) CanAccess(ctx context.Context, actorID string, ref entity.Ref) (bool, error) {
	for _, e := range w.entities {
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

func (w *fakeWorkspace) FetchAttributes(ctx context.Context, ref entity.Ref) (entity.AttributeBag, error) {
	for _, e := range w.entities {
		if e.ref.Category == ref.Category && e.ref.ID == ref.ID {
			if e.attrs == nil {
				return entity.AttributeBag{"name": e.ref.DisplayName}, nil
			}
			return e.attrs, nil
		}
	}
	return nil, fmt.Errorf("no attributes for %s %s", ref.Category, ref.ID)
}

func (w *fakeWorkspace) Touch(ctx context.Context, actorID string, ref entity.Ref) error {
	w.recents[actorID] = append([]entity.Ref{ref}, w.recents[actorID]...)
	return nil
}

func (w *fakeWorkspace) RecentRefs(ctx context.Context, actorID string, limit int) ([]entity.Ref, error) {
	refs := w.recents[actorID]
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
