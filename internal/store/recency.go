package store

import (
	"context"
	"fmt"
	"time"

	"mindscope/internal/entity"
)

// Touch implements entity.RecencyLog. Append-only; pruning is left to
// the host's maintenance schedule.
func (s *Store) Touch(ctx context.Context, actorID string, ref entity.Ref) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_log (actor_id, category, entity_id, display_name, touched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		actorID, ref.Category.String(), ref.ID, ref.DisplayName, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording reference: %w", err)
	}
	return nil
}

// RecentRefs implements entity.RecencyLog: the actor's most recently
// referenced entities, deduplicated, most recent first with ID
// tie-breaks so the order is deterministic.
func (s *Store) RecentRefs(ctx context.Context, actorID string, limit int) ([]entity.Ref, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, entity_id, display_name, MAX(touched_at) AS last
		 FROM reference_log
		 WHERE actor_id = ?
		 GROUP BY category, entity_id
		 ORDER BY last DESC, entity_id ASC
		 LIMIT ?`,
		actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent references: %w", err)
	}
	defer rows.Close()

	var refs []entity.Ref
	for rows.Next() {
		var catName string
		var ref entity.Ref
		var last int64
		if err := rows.Scan(&catName, &ref.ID, &ref.DisplayName, &last); err != nil {
			return nil, fmt.Errorf("scanning reference row: %w", err)
		}
		cat, err := entity.ParseCategory(catName)
		if err != nil {
			// Rows written by a newer schema are skipped, not fatal.
			continue
		}
		ref.Category = cat
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
