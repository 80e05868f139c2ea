package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mindscope/internal/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testAccess() entity.AccessContext {
	return entity.AccessContext{
		ActorID:     "actor-1",
		ProjectID:   "proj-1",
		Allowed:     entity.AllCategories(),
		AllowShared: true,
	}
}

func builtin(id, name string) fakeEntity {
	return fakeEntity{ref: entity.Ref{Category: entity.CategoryBuiltin, ID: id, DisplayName: name}}
}

func track(id, name, project string) fakeEntity {
	return fakeEntity{
		ref:       entity.Ref{Category: entity.CategoryTrack, ID: id, DisplayName: name},
		projectID: project,
	}
}

func task(id, name, project string) fakeEntity {
	return fakeEntity{
		ref:       entity.Ref{Category: entity.CategoryTask, ID: id, DisplayName: name},
		projectID: project,
	}
}

func contact(id, name, project string) fakeEntity {
	return fakeEntity{
		ref:       entity.Ref{Category: entity.CategoryContact, ID: id, DisplayName: name},
		projectID: project,
	}
}

func personalContact(id, name, owner string) fakeEntity {
	return fakeEntity{
		ref:     entity.Ref{Category: entity.CategoryContact, ID: id, DisplayName: name},
		ownerID: owner,
	}
}

func sharedTrack(id, name, project string, visibleTo ...string) fakeEntity {
	return fakeEntity{
		ref:       entity.Ref{Category: entity.CategorySharedTrack, ID: id, DisplayName: name},
		projectID: project,
		visibleTo: visibleTo,
	}
}

func TestResolver_TierPriority(t *testing.T) {
	t.Run("builtin wins over same-named track", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(builtin("calendar", "Calendar"))
		dir.add(track("trk-1", "Calendar", "proj-1"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "calendar", testAccess())
		require.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, entity.CategoryBuiltin, out.Entity.Category)
		assert.Equal(t, "calendar", out.Entity.ID)
	})

	t.Run("track wins over same-named task without ambiguity", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(track("trk-1", "Launch", "proj-1"))
		dir.add(task("tsk-1", "Launch", "proj-1"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", testAccess())
		require.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, entity.CategoryTrack, out.Entity.Category)
	})

	t.Run("lower tiers are not queried once a tier matches", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(track("trk-1", "Launch", "proj-1"))

		NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", testAccess())
		for _, cat := range dir.calls {
			assert.NotEqual(t, entity.CategoryTask, cat, "task tier must not be consulted")
		}
	})
}

func TestResolver_SameTierAmbiguity(t *testing.T) {
	dir := &fakeDirectory{}
	dir.add(track("trk-1", "Launch", "proj-1"))
	dir.add(track("trk-2", "launch!", "proj-1"))

	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", testAccess())
	require.Equal(t, StatusAmbiguous, out.Status)
	require.Len(t, out.Candidates, 2)
	for _, c := range out.Candidates {
		assert.Equal(t, entity.CategoryTrack, c.Category)
	}
	assert.Nil(t, out.Entity)
}

func TestResolver_BuiltinKeyCollisionPicksLowestID(t *testing.T) {
	// Duplicate builtin keys should not exist, but if a directory returns
	// several the choice must not depend on return order.
	dir := &fakeDirectory{}
	dir.add(builtin("cal-z", "Calendar"))
	dir.add(builtin("cal-a", "Calendar"))

	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "calendar", testAccess())
	require.Equal(t, StatusResolved, out.Status)
	require.NotNil(t, out.Entity)
	assert.Equal(t, "cal-a", out.Entity.ID)
}

func TestResolver_Unresolved(t *testing.T) {
	dir := &fakeDirectory{}
	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "doesnotexist", testAccess())
	assert.Equal(t, StatusUnresolved, out.Status)
	assert.Nil(t, out.Entity)
	assert.Empty(t, out.Candidates)
	assert.NoError(t, out.Err)
}

func TestResolver_ContactFallback(t *testing.T) {
	t.Run("project contact preferred", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(contact("c-1", "Alice", "proj-1"))
		dir.add(personalContact("c-2", "Alice", "actor-1"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "alice", testAccess())
		require.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, "c-1", out.Entity.ID)
	})

	t.Run("personal directory only on project miss", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(personalContact("c-2", "Alice", "actor-1"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "alice", testAccess())
		require.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, "c-2", out.Entity.ID)
	})

	t.Run("someone else's personal contact is invisible", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(personalContact("c-3", "Alice", "actor-2"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "alice", testAccess())
		assert.Equal(t, StatusUnresolved, out.Status)
	})
}

func TestResolver_SharedTrackTier(t *testing.T) {
	t.Run("accessible shared track resolves", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(sharedTrack("sh-1", "Design", "proj-1", "actor-1"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "design", testAccess())
		require.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, entity.CategorySharedTrack, out.Entity.Category)
	})

	t.Run("inaccessible candidate dropped before counting", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(sharedTrack("sh-1", "Design", "proj-1", "actor-1"))
		dir.add(sharedTrack("sh-2", "Design", "proj-1", "someone-else"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "design", testAccess())
		require.Equal(t, StatusResolved, out.Status, "one survivor must resolve, not report ambiguity")
		assert.Equal(t, "sh-1", out.Entity.ID)
	})

	t.Run("fully inaccessible key is unresolved", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(sharedTrack("sh-2", "Design", "proj-1", "someone-else"))

		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "design", testAccess())
		assert.Equal(t, StatusUnresolved, out.Status)
	})

	t.Run("tier skipped when shared access disabled", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(sharedTrack("sh-1", "Design", "proj-1", "actor-1"))

		ac := testAccess()
		ac.AllowShared = false
		out := NewResolver(dir, dir, nil).Resolve(context.Background(), "design", ac)
		assert.Equal(t, StatusUnresolved, out.Status)
	})
}

func TestResolver_CategoryAllowList(t *testing.T) {
	dir := &fakeDirectory{}
	dir.add(track("trk-1", "Launch", "proj-1"))
	dir.add(task("tsk-1", "Launch", "proj-1"))

	ac := testAccess()
	ac.Allowed = entity.NewCategorySet(entity.CategoryTask)

	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", ac)
	require.Equal(t, StatusResolved, out.Status)
	assert.Equal(t, entity.CategoryTask, out.Entity.Category, "disallowed track tier must be skipped")
}

func TestResolver_EmptyAllowListFailsClosed(t *testing.T) {
	dir := &fakeDirectory{}
	dir.add(track("trk-1", "Launch", "proj-1"))

	ac := testAccess()
	ac.Allowed = nil

	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", ac)
	assert.Equal(t, StatusUnresolved, out.Status)
	assert.Empty(t, dir.calls, "no tier may be queried with an empty allow-list")
}

func TestResolver_ProjectScoping(t *testing.T) {
	dir := &fakeDirectory{}
	dir.add(track("trk-9", "Launch", "proj-OTHER"))

	out := NewResolver(dir, dir, nil).Resolve(context.Background(), "launch", testAccess())
	assert.Equal(t, StatusUnresolved, out.Status, "entities in other projects must never surface")
}

func TestResolver_ResolveAll(t *testing.T) {
	t.Run("preserves input order", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(track("trk-1", "Alpha", "proj-1"))
		dir.add(task("tsk-1", "Beta", "proj-1"))

		outs := NewResolver(dir, dir, nil).ResolveAll(context.Background(),
			[]string{"beta", "missing", "alpha"}, testAccess())
		require.Len(t, outs, 3)
		assert.Equal(t, "beta", outs[0].Key)
		assert.Equal(t, StatusResolved, outs[0].Status)
		assert.Equal(t, "missing", outs[1].Key)
		assert.Equal(t, StatusUnresolved, outs[1].Status)
		assert.Equal(t, "alpha", outs[2].Key)
		assert.Equal(t, StatusResolved, outs[2].Status)
	})

	t.Run("duplicates resolve independently", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(track("trk-1", "Alpha", "proj-1"))

		outs := NewResolver(dir, dir, nil).ResolveAll(context.Background(),
			[]string{"alpha", "alpha"}, testAccess())
		require.Len(t, outs, 2)
		assert.Equal(t, outs[0].Status, outs[1].Status)
		assert.Equal(t, outs[0].Entity.ID, outs[1].Entity.ID)
	})

	t.Run("one failing key does not abort siblings", func(t *testing.T) {
		dir := &fakeDirectory{}
		dir.add(builtin("calendar", "Calendar"))
		dir.add(task("tsk-1", "Beta", "proj-1"))
		dir.failTier = entity.CategoryTrack
		dir.failTierSet = true

		outs := NewResolver(dir, dir, nil).ResolveAll(context.Background(),
			[]string{"beta", "calendar"}, testAccess())
		require.Len(t, outs, 2)

		assert.Error(t, outs[0].Err, "track tier failure must surface on the key that needed it")
		assert.Equal(t, StatusUnresolved, outs[0].Status)

		assert.NoError(t, outs[1].Err, "builtin hit never reaches the failing tier")
		assert.Equal(t, StatusResolved, outs[1].Status)
	})
}
