package store

import (
	"context"
	"database/sql"
	"fmt"

	"mindscope/internal/entity"
)

// FindByNormalizedName implements entity.Directory. The membership check
// lives inside each query: an actor who is not a member of the hinted
// project gets zero rows, not an error, so absence and invisibility are
// indistinguishable to the caller.
func (s *Store) FindByNormalizedName(ctx context.Context, cat entity.Category, key string, hint entity.ScopeHint) ([]entity.Ref, error) {
	query, args, err := s.lookupQuery(cat, hint, "norm_name = ?")
	if err != nil {
		return nil, err
	}
	args = append(args, key)
	return s.queryRefs(ctx, cat, query, args)
}

// ListVisible implements entity.Directory for the suggestion ranker.
// Results come back in stable ID order.
func (s *Store) ListVisible(ctx context.Context, cat entity.Category, hint entity.ScopeHint) ([]entity.Ref, error) {
	query, args, err := s.lookupQuery(cat, hint, "1 = 1")
	if err != nil {
		return nil, err
	}
	return s.queryRefs(ctx, cat, query+" ORDER BY id", args)
}

// lookupQuery builds the scoped base query for a category. The where
// fragment is appended to the scope conditions; it must only reference
// the selected table's columns.
func (s *Store) lookupQuery(cat entity.Category, hint entity.ScopeHint, where string) (string, []any, error) {
	const member = `EXISTS (
		SELECT 1 FROM memberships m WHERE m.actor_id = ? AND m.project_id = ?
	)`

	switch cat {
	case entity.CategoryBuiltin:
		return fmt.Sprintf(`SELECT id, name FROM builtins WHERE %s`, where), nil, nil

	case entity.CategoryTrack:
		q := fmt.Sprintf(`SELECT id, name FROM tracks
			WHERE project_id = ? AND %s AND %s`, member, where)
		return q, []any{hint.ProjectID, hint.ActorID, hint.ProjectID}, nil

	case entity.CategoryTask:
		q := fmt.Sprintf(`SELECT id, name FROM tasks
			WHERE project_id = ? AND %s AND %s`, member, where)
		return q, []any{hint.ProjectID, hint.ActorID, hint.ProjectID}, nil

	case entity.CategoryContact:
		if hint.PersonalDirectory {
			q := fmt.Sprintf(`SELECT id, name FROM contacts
				WHERE owner_actor_id = ? AND %s`, where)
			return q, []any{hint.ActorID}, nil
		}
		q := fmt.Sprintf(`SELECT id, name FROM contacts
			WHERE project_id = ? AND owner_actor_id IS NULL AND %s AND %s`, member, where)
		return q, []any{hint.ProjectID, hint.ActorID, hint.ProjectID}, nil

	case entity.CategorySharedTrack:
		// Tracks shared into the hinted project from elsewhere. The
		// per-candidate grant check is the resolver's job (CanAccess);
		// membership in the receiving project is checked here.
		q := fmt.Sprintf(`SELECT t.id, t.name FROM tracks t
			JOIN track_shares ts ON ts.track_id = t.id
			WHERE ts.to_project_id = ? AND %s AND t.%s`, member, where)
		return q, []any{hint.ProjectID, hint.ActorID, hint.ProjectID}, nil

	default:
		return "", nil, fmt.Errorf("unknown entity category %d", cat)
	}
}

func (s *Store) queryRefs(ctx context.Context, cat entity.Category, query string, args []any) ([]entity.Ref, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s entities: %w", cat, err)
	}
	defer rows.Close()

	var refs []entity.Ref
	for rows.Next() {
		ref := entity.Ref{Category: cat}
		if err := rows.Scan(&ref.ID, &ref.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", cat, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CanAccess implements entity.AccessChecker. Shared tracks require an
// explicit per-actor grant; every other category is decided by project
// membership (or is universally visible, for builtins).
func (s *Store) CanAccess(ctx context.Context, actorID string, ref entity.Ref) (bool, error) {
	switch ref.Category {
	case entity.CategoryBuiltin:
		return true, nil

	case entity.CategorySharedTrack:
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM share_grants WHERE actor_id = ? AND track_id = ?`,
			actorID, ref.ID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("checking share grant: %w", err)
		}
		return n > 0, nil

	default:
		table, ok := map[entity.Category]string{
			entity.CategoryTrack:   "tracks",
			entity.CategoryTask:    "tasks",
			entity.CategoryContact: "contacts",
		}[ref.Category]
		if !ok {
			return false, fmt.Errorf("unknown entity category %d", ref.Category)
		}
		var n int
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT COUNT(*) FROM %s e
			 JOIN memberships m ON m.project_id = e.project_id
			 WHERE e.id = ? AND m.actor_id = ?`, table),
			ref.ID, actorID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("checking membership: %w", err)
		}
		return n > 0, nil
	}
}

// FetchAttributes implements entity.AttributeFetcher, returning only the
// whitelisted attribute set per category, never a full entity dump.
func (s *Store) FetchAttributes(ctx context.Context, ref entity.Ref) (entity.AttributeBag, error) {
	switch ref.Category {
	case entity.CategoryBuiltin:
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM builtins WHERE id = ?`, ref.ID).Scan(&name)
		if err != nil {
			return nil, fetchErr(ref, err)
		}
		return entity.AttributeBag{"name": name}, nil

	case entity.CategoryTrack:
		var name, description, color string
		var taskCount int
		err := s.db.QueryRowContext(ctx,
			`SELECT name, description, color,
				(SELECT COUNT(*) FROM tasks WHERE track_id = tracks.id)
			 FROM tracks WHERE id = ?`, ref.ID).
			Scan(&name, &description, &color, &taskCount)
		if err != nil {
			return nil, fetchErr(ref, err)
		}
		return entity.AttributeBag{
			"name": name, "description": description,
			"color": color, "task_count": taskCount,
		}, nil

	case entity.CategoryTask:
		var name, status, assignee string
		err := s.db.QueryRowContext(ctx,
			`SELECT name, status, assignee FROM tasks WHERE id = ?`, ref.ID).
			Scan(&name, &status, &assignee)
		if err != nil {
			return nil, fetchErr(ref, err)
		}
		return entity.AttributeBag{"name": name, "status": status, "assignee": assignee}, nil

	case entity.CategoryContact:
		var name, role string
		var assignments int
		err := s.db.QueryRowContext(ctx,
			`SELECT name, role,
				(SELECT COUNT(*) FROM tasks WHERE assignee = contacts.name)
			 FROM contacts WHERE id = ?`, ref.ID).
			Scan(&name, &role, &assignments)
		if err != nil {
			return nil, fetchErr(ref, err)
		}
		return entity.AttributeBag{"name": name, "role": role, "assignment_count": assignments}, nil

	case entity.CategorySharedTrack:
		var name, description, sharedFrom string
		err := s.db.QueryRowContext(ctx,
			`SELECT t.name, t.description, p.name
			 FROM tracks t
			 JOIN track_shares ts ON ts.track_id = t.id
			 JOIN projects p ON p.id = ts.from_project_id
			 WHERE t.id = ?`, ref.ID).
			Scan(&name, &description, &sharedFrom)
		if err != nil {
			return nil, fetchErr(ref, err)
		}
		return entity.AttributeBag{
			"name": name, "description": description, "shared_from": sharedFrom,
		}, nil

	default:
		return nil, fmt.Errorf("unknown entity category %d", ref.Category)
	}
}

func fetchErr(ref entity.Ref, err error) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("no %s with id %s", ref.Category, ref.ID)
	}
	return fmt.Errorf("fetching %s %s: %w", ref.Category, ref.ID, err)
}
