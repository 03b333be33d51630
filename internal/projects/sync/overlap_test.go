package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
)

// gatedRepo holds each Update until the test releases it, keyed by the
// title being written, so overlapping writes can be settled in any order.
type gatedRepo struct {
	*fakeRepo
	started chan string
	gates   map[string]chan error
}

func newGatedRepo(base *fakeRepo, titles ...string) *gatedRepo {
	g := &gatedRepo{fakeRepo: base, started: make(chan string), gates: make(map[string]chan error)}
	for _, t := range titles {
		g.gates[t] = make(chan error)
	}
	return g
}

func (g *gatedRepo) Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	title := *patch.Title
	g.started <- title
	if err := <-g.gates[title]; err != nil {
		return domain.Project{}, err
	}
	return g.fakeRepo.Update(ctx, id, patch)
}

type pendingUpdate struct {
	done chan error
}

// begin starts an update and returns once its optimistic value is showing.
func begin(t *testing.T, e *Engine, g *gatedRepo, base domain.Project, title string) pendingUpdate {
	t.Helper()
	p := base
	p.Title = title
	u := pendingUpdate{done: make(chan error, 1)}
	go func() {
		_, err := e.UpdateProject(context.Background(), p)
		u.done <- err
	}()
	select {
	case got := <-g.started:
		require.Equal(t, title, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("update %q never reached the repository", title)
	}
	return u
}

func (u pendingUpdate) settle(t *testing.T, g *gatedRepo, title string, err error) {
	t.Helper()
	g.gates[title] <- err
	select {
	case got := <-u.done:
		if err != nil {
			require.ErrorIs(t, got, err)
		} else {
			require.NoError(t, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("update %q did not return", title)
	}
}

func TestUpdateProject_OverlappingWritesSettleOnServerValue(t *testing.T) {
	type step struct {
		title string
		err   error
	}
	cases := []struct {
		name  string
		steps []step
		want  string
	}{
		{"first fails then second fails", []step{{"u1", errBackend}, {"u2", errBackend}}, "orig"},
		{"second fails then first fails", []step{{"u2", errBackend}, {"u1", errBackend}}, "orig"},
		{"first fails then second succeeds", []step{{"u1", errBackend}, {"u2", nil}}, "u2"},
		{"first succeeds then second fails", []step{{"u1", nil}, {"u2", errBackend}}, "u1"},
		{"second fails then first succeeds", []step{{"u2", errBackend}, {"u1", nil}}, "u1"},
		{"both succeed, last response wins", []step{{"u2", nil}, {"u1", nil}}, "u1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := &fakeRepo{}
			orig, err := base.Create(context.Background(), domain.Project{Title: "orig", Category: "ui", Description: "d"})
			require.NoError(t, err)

			g := newGatedRepo(base, "u1", "u2")
			e := NewEngine(g)
			require.NoError(t, e.Load(context.Background()))

			pending := map[string]pendingUpdate{
				"u1": begin(t, e, g, orig, "u1"),
			}
			pending["u2"] = begin(t, e, g, orig, "u2")

			cached, _ := e.Get(orig.ID)
			assert.Equal(t, "u2", cached.Title, "latest optimistic value shows while both are in flight")

			for _, s := range tc.steps {
				pending[s.title].settle(t, g, s.title, s.err)
			}

			stored, err := base.List(context.Background())
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, tc.want, stored[0].Title)

			cached, ok := e.Get(orig.ID)
			require.True(t, ok)
			assert.Equal(t, stored[0].Title, cached.Title, "cache matches the server once every write has settled")
		})
	}
}

func TestApply_RemoteChanges(t *testing.T) {
	e, _ := seeded(t, 1)
	existing := e.Projects()[0]

	remote := domain.Project{ID: "remote-1", Title: "Remote", Category: "print", Description: "d"}
	e.Apply(events.Created(remote))
	got := e.Projects()
	require.Len(t, got, 2)
	assert.Equal(t, "remote-1", got[0].ID, "new remote projects go to the front")

	existing.Title = "Renamed elsewhere"
	e.Apply(events.Updated(existing))
	cached, _ := e.Get(existing.ID)
	assert.Equal(t, "Renamed elsewhere", cached.Title)
	assert.Equal(t, existing.ID, e.Projects()[1].ID, "updates keep their position")

	e.Apply(events.Deleted("remote-1"))
	_, ok := e.Get("remote-1")
	assert.False(t, ok)

	e.Apply(events.Event{Type: events.TypeUpdated})
	assert.Len(t, e.Projects(), 1)
}

func TestApply_RemoteValueSurvivesLocalFailure(t *testing.T) {
	base := &fakeRepo{}
	orig, err := base.Create(context.Background(), domain.Project{Title: "orig", Category: "ui", Description: "d"})
	require.NoError(t, err)

	g := newGatedRepo(base, "local")
	e := NewEngine(g)
	require.NoError(t, e.Load(context.Background()))

	u := begin(t, e, g, orig, "local")

	remote := orig
	remote.Title = "remote"
	e.Apply(events.Updated(remote))

	u.settle(t, g, "local", errBackend)

	cached, _ := e.Get(orig.ID)
	assert.Equal(t, "remote", cached.Title)
}

func TestApply_CreatedDuringAddDoesNotDuplicate(t *testing.T) {
	e, repo := seeded(t, 0)
	repo.beforeReturn = func() {
		repo.beforeReturn = nil
		e.Apply(events.Created(domain.Project{ID: "id-1", Title: "Logo", Category: "branding", Description: "New mark"}))
	}

	created, err := e.AddProject(context.Background(), logo())
	require.NoError(t, err)
	require.Equal(t, "id-1", created.ID)

	got := e.Projects()
	require.Len(t, got, 1)
	assert.Equal(t, "id-1", got[0].ID)
}

func TestReplace_ClearsDegraded(t *testing.T) {
	repo := &fakeRepo{listErr: errBackend}
	e := NewEngine(repo, WithFallback(SampleProjects()))
	require.Error(t, e.Load(context.Background()))
	require.True(t, e.Snapshot().Degraded)

	e.Replace([]domain.Project{{ID: "p1", Title: "Live", Category: "ui", Description: "d"}})

	snap := e.Snapshot()
	assert.False(t, snap.Degraded)
	assert.NoError(t, snap.Err)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "Live", snap.Projects[0].Title)
}
