// Package engine composes the mention pipeline: scan raw text, resolve
// keys against the directory, build budgeted snapshots, and merge them
// into the request's working scope. This is the only surface the host
// request pipeline needs for the main flow; suggestions run separately.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindscope/internal/entity"
	"mindscope/internal/mention"
	"mindscope/internal/policy"
	"mindscope/internal/resolve"
	"mindscope/internal/snapshot"
	"mindscope/internal/suggest"
)

// Config wires the engine to its collaborators. Directory, Access,
// Attributes, and Policies are required; Recents and Logger are optional.
type Config struct {
	Directory  entity.Directory
	Access     entity.AccessChecker
	Attributes entity.AttributeFetcher
	Recents    entity.RecencyLog
	Policies   *policy.Table
	Logger     *zap.Logger
}

// Engine is stateless across requests; all mutable state is
// request-local, so one Engine serves concurrent requests without
// coordination.
type Engine struct {
	resolver *resolve.Resolver
	builder  *snapshot.Builder
	ranker   *suggest.Ranker
	policies *policy.Table
	recents  entity.RecencyLog
	logger   *zap.Logger
}

// New builds an engine from the given collaborators.
func New(cfg Config) (*Engine, error) {
	if cfg.Directory == nil || cfg.Access == nil || cfg.Attributes == nil {
		return nil, fmt.Errorf("engine requires directory, access checker, and attribute fetcher")
	}
	if cfg.Policies == nil {
		return nil, fmt.Errorf("engine requires a policy table")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		resolver: resolve.NewResolver(cfg.Directory, cfg.Access, logger),
		builder:  snapshot.NewBuilder(cfg.Attributes, logger),
		ranker:   suggest.NewRanker(cfg.Directory, cfg.Access, cfg.Recents, logger),
		policies: cfg.Policies,
		recents:  cfg.Recents,
		logger:   logger,
	}, nil
}

// Result is the outcome of one EnrichRequest call.
type Result struct {
	// Scope is the merged working scope (the same pointer passed in).
	Scope *snapshot.Scope

	// Summary accounts for every scanned mention.
	Summary Summary

	// DroppedForBudget lists resolved entities whose snapshots were
	// dropped whole to stay under the aggregate ceiling.
	DroppedForBudget []entity.Ref

	// SnapshotErrors lists entities whose attribute fetch failed.
	// Scoped per entity; the rest of the batch is unaffected.
	SnapshotErrors []snapshot.EntityError
}

// EnrichRequest runs the full pipeline for one request. A missing budget
// policy for the purpose is a configuration bug and fails the whole call;
// everything else degrades per key or per entity and is reported as data.
func (e *Engine) EnrichRequest(ctx context.Context, raw string, scope *snapshot.Scope, ac entity.AccessContext, purpose string) (*Result, error) {
	budget, err := e.policies.Lookup(purpose)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	logger := e.logger.With(
		zap.String("request_id", requestID),
		zap.String("actor", ac.ActorID),
		zap.String("project", ac.ProjectID),
		zap.String("purpose", purpose),
	)

	scan := mention.Scan(raw, budget.MaxMentions)
	if scan.Truncated {
		logger.Info("mention cap reached",
			zap.Int("kept", len(scan.Mentions)),
			zap.Int("dropped", scan.Dropped))
	}

	keys := make([]string, len(scan.Mentions))
	for i, m := range scan.Mentions {
		keys[i] = m.Key
	}
	outcomes := e.resolver.ResolveAll(ctx, keys, ac)

	summary := summarize(outcomes)
	summary.MentionsTruncated = scan.Truncated
	summary.MentionsDropped = scan.Dropped

	var resolved []entity.Ref
	for _, out := range outcomes {
		e.audit(logger, out)
		if out.Status == resolve.StatusResolved {
			resolved = append(resolved, *out.Entity)
		}
	}

	build := e.builder.Build(ctx, resolved, budget)
	snapshot.MergeIntoScope(scope, build.Snapshots)

	// Recency is advisory: a failed write is logged and forgotten.
	if e.recents != nil {
		for _, snap := range build.Snapshots {
			if err := e.recents.Touch(ctx, ac.ActorID, snap.Ref()); err != nil {
				logger.Warn("recency update failed",
					zap.String("entity_id", snap.Ref().ID),
					zap.Error(err))
			}
		}
	}

	return &Result{
		Scope:            scope,
		Summary:          summary,
		DroppedForBudget: build.DroppedForBudget,
		SnapshotErrors:   build.Failed,
	}, nil
}

// Suggest exposes the ranker through the engine for hosts that want a
// single dependency. Safe to call on every keystroke.
func (e *Engine) Suggest(ctx context.Context, partial string, ac entity.AccessContext, limit int) ([]suggest.Entry, error) {
	return e.ranker.Suggest(ctx, partial, ac, limit)
}

// audit emits the fire-and-forget resolution log entry. zap never blocks
// the request on sink failure, which keeps audit off the critical path.
func (e *Engine) audit(logger *zap.Logger, out resolve.Outcome) {
	fields := []zap.Field{
		zap.String("key", out.Key),
		zap.Stringer("status", out.Status),
	}
	if out.Entity != nil {
		fields = append(fields,
			zap.Stringer("category", out.Entity.Category),
			zap.String("entity_id", out.Entity.ID))
	}
	if out.Err != nil {
		fields = append(fields, zap.Error(out.Err))
	}
	logger.Info("mention resolution", fields...)
}
