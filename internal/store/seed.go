package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindscope/internal/entity"
	"mindscope/internal/mention"
	"mindscope/internal/snapshot"
)

// The insert helpers below exist for tests and the seed command. They
// are the only writes this package performs besides the recency log; the
// engine itself never mutates entities.

// AddProject inserts a project. An empty id gets a generated one.
func (s *Store) AddProject(ctx context.Context, id, name string) (string, error) {
	id = orNewID(id)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return "", fmt.Errorf("inserting project %q: %w", name, err)
	}
	return id, nil
}

// AddMember makes an actor a member of a project.
func (s *Store) AddMember(ctx context.Context, actorID, projectID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO memberships (actor_id, project_id) VALUES (?, ?)`,
		actorID, projectID)
	if err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}
	return nil
}

// AddBuiltin registers a builtin concept under its stable id.
func (s *Store) AddBuiltin(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO builtins (id, name, norm_name) VALUES (?, ?, ?)`,
		id, name, mention.NormalizeKey(name))
	if err != nil {
		return fmt.Errorf("inserting builtin %q: %w", name, err)
	}
	return nil
}

// AddTrack inserts a track into a project.
func (s *Store) AddTrack(ctx context.Context, id, projectID, name, description, color string) (string, error) {
	id = orNewID(id)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks (id, project_id, name, norm_name, description, color)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, name, mention.NormalizeKey(name), description, color)
	if err != nil {
		return "", fmt.Errorf("inserting track %q: %w", name, err)
	}
	return id, nil
}

// AddTask inserts a task. trackID may be empty for unfiled tasks.
func (s *Store) AddTask(ctx context.Context, id, projectID, trackID, name, status, assignee string) (string, error) {
	id = orNewID(id)
	var track any
	if trackID != "" {
		track = trackID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, track_id, name, norm_name, status, assignee)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, projectID, track, name, mention.NormalizeKey(name), status, assignee)
	if err != nil {
		return "", fmt.Errorf("inserting task %q: %w", name, err)
	}
	return id, nil
}

// AddContact inserts a project contact (ownerActorID empty) or a
// personal-directory contact (projectID empty).
func (s *Store) AddContact(ctx context.Context, id, projectID, ownerActorID, name, role string) (string, error) {
	id = orNewID(id)
	var project, owner any
	if projectID != "" {
		project = projectID
	}
	if ownerActorID != "" {
		owner = ownerActorID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, project_id, owner_actor_id, name, norm_name, role)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, project, owner, name, mention.NormalizeKey(name), role)
	if err != nil {
		return "", fmt.Errorf("inserting contact %q: %w", name, err)
	}
	return id, nil
}

// ShareTrack shares a track from its home project into another project.
func (s *Store) ShareTrack(ctx context.Context, trackID, fromProjectID, toProjectID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO track_shares (track_id, from_project_id, to_project_id)
		 VALUES (?, ?, ?)`,
		trackID, fromProjectID, toProjectID)
	if err != nil {
		return fmt.Errorf("sharing track: %w", err)
	}
	return nil
}

// GrantShare gives an actor access to a shared track.
func (s *Store) GrantShare(ctx context.Context, actorID, trackID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO share_grants (actor_id, track_id) VALUES (?, ?)`,
		actorID, trackID)
	if err != nil {
		return fmt.Errorf("granting share: %w", err)
	}
	return nil
}

// DemoSeed describes the workspace SeedDemo creates.
type DemoSeed struct {
	ActorID   string
	ProjectID string
}

// SeedDemo populates a small two-project workspace for the CLI demo:
// builtins, a few tracks and tasks, contacts, and one shared track the
// demo actor is granted access to.
func (s *Store) SeedDemo(ctx context.Context) (DemoSeed, error) {
	seed := DemoSeed{ActorID: "demo-actor", ProjectID: "proj-home"}

	if err := s.AddBuiltin(ctx, snapshot.BuiltinCalendar, "Calendar"); err != nil {
		return seed, err
	}
	if err := s.AddBuiltin(ctx, snapshot.BuiltinTaskList, "Task List"); err != nil {
		return seed, err
	}

	if _, err := s.AddProject(ctx, seed.ProjectID, "Home Workspace"); err != nil {
		return seed, err
	}
	if _, err := s.AddProject(ctx, "proj-studio", "Studio"); err != nil {
		return seed, err
	}
	if err := s.AddMember(ctx, seed.ActorID, seed.ProjectID); err != nil {
		return seed, err
	}

	trackID, err := s.AddTrack(ctx, "trk-marketing", seed.ProjectID,
		"Marketing Plan", "Q3 campaign planning and assets", "teal")
	if err != nil {
		return seed, err
	}
	if _, err := s.AddTrack(ctx, "trk-launch", seed.ProjectID,
		"Launch", "Release coordination", "amber"); err != nil {
		return seed, err
	}

	if _, err := s.AddTask(ctx, "tsk-draft", seed.ProjectID, trackID,
		"Draft copy", "open", "Alice"); err != nil {
		return seed, err
	}
	if _, err := s.AddTask(ctx, "tsk-review", seed.ProjectID, trackID,
		"Review artwork", "open", "Bob"); err != nil {
		return seed, err
	}

	if _, err := s.AddContact(ctx, "c-alice", seed.ProjectID, "", "Alice", "editor"); err != nil {
		return seed, err
	}
	if _, err := s.AddContact(ctx, "c-dana", "", seed.ActorID, "Dana", "advisor"); err != nil {
		return seed, err
	}

	sharedID, err := s.AddTrack(ctx, "trk-design", "proj-studio",
		"Design", "Shared design board", "plum")
	if err != nil {
		return seed, err
	}
	if err := s.ShareTrack(ctx, sharedID, "proj-studio", seed.ProjectID); err != nil {
		return seed, err
	}
	if err := s.GrantShare(ctx, seed.ActorID, sharedID); err != nil {
		return seed, err
	}

	s.logger.Info("demo workspace seeded",
		zap.String("actor", seed.ActorID),
		zap.String("project", seed.ProjectID))
	return seed, nil
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Ensure the interface contracts hold.
var (
	_ entity.Directory        = (*Store)(nil)
	_ entity.AccessChecker    = (*Store)(nil)
	_ entity.AttributeFetcher = (*Store)(nil)
	_ entity.RecencyLog       = (*Store)(nil)
)
