// Package sync keeps a client-side copy of the project list consistent with
// the server. Creates and updates are applied optimistically and rolled back
// when the server rejects them; deletes wait for confirmation.
package sync

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
)

// Repository is the remote source of truth.
type Repository interface {
	// List returns every project, most recent first.
	List(ctx context.Context) ([]domain.Project, error)
	Create(ctx context.Context, p domain.Project) (domain.Project, error)
	Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// Snapshot is an immutable view of the engine state handed to listeners.
type Snapshot struct {
	Projects []domain.Project
	Loading  bool
	// Degraded is set while the list shows built-in samples instead of
	// server data.
	Degraded bool
	// Err is the most recent load failure, cleared by the next good load.
	Err error
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

type entry struct {
	project domain.Project
	// token identifies the write that produced project, so a failed write
	// only rolls back its own value.
	token uint64
}

// Engine is the in-memory project cache shared by every client surface.
// Mutations are not serialized; a mutex only makes each list change atomic
// to observers. Concurrent writes to the same project keep whichever server
// response arrives last.
type Engine struct {
	repo     Repository
	fallback []domain.Project

	mu    sync.Mutex
	items []entry
	// confirmed holds the last value the server returned for each id. A
	// failed update restores it rather than whatever was showing before.
	confirmed map[string]domain.Project
	loads     int
	degraded  bool
	lastErr   error
	seq       uint64
	listeners map[uint64]Listener
	nextSub   uint64
}

type Option func(*Engine)

// WithFallback shows samples in degraded mode when a load fails.
func WithFallback(samples []domain.Project) Option {
	return func(e *Engine) {
		e.fallback = append([]domain.Project(nil), samples...)
	}
}

func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		confirmed: make(map[string]domain.Project),
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the list with the server's.
func (e *Engine) Load(ctx context.Context) error {
	e.mutate(func() { e.loads++ })

	items, err := e.repo.List(ctx)

	e.mutate(func() {
		e.loads--
		if err != nil {
			e.lastErr = err
			if len(e.fallback) > 0 {
				log.Printf("[warn] operation=sync.load degraded=true samples=%d error=%v", len(e.fallback), err)
				e.degraded = true
				e.items = e.entriesOf(e.fallback)
				e.confirmed = make(map[string]domain.Project)
			}
			return
		}
		e.lastErr = nil
		e.replaceLocked(items)
	})

	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	return nil
}

// AddProject creates p on the server. A pending copy is shown immediately
// and replaced by the server value, or removed if the create fails.
func (e *Engine) AddProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	if !p.IsNew() {
		return domain.Project{}, domain.NewValidationError("must be empty for new projects", "id")
	}

	var token uint64
	e.mutate(func() {
		token = e.nextToken()
		e.items = append(e.items, entry{project: p, token: token})
	})

	created, err := e.repo.Create(ctx, p)
	if err != nil {
		e.mutate(func() {
			if i := e.indexOfToken(token); i >= 0 {
				e.items = append(e.items[:i], e.items[i+1:]...)
			}
		})
		return domain.Project{}, err
	}

	e.mutate(func() {
		e.confirmed[created.ID] = created
		confirmed := entry{project: created, token: e.nextToken()}
		i, j := e.indexOfToken(token), e.indexOfID(created.ID)
		switch {
		case i >= 0 && j >= 0:
			// A reload or a remote event already brought the new record in.
			e.items[j] = confirmed
			e.items = append(e.items[:i], e.items[i+1:]...)
		case i >= 0:
			e.items[i] = confirmed
		case j >= 0:
			e.items[j] = confirmed
		default:
			e.items = append(e.items, confirmed)
		}
	})
	return created, nil
}

// UpdateProject writes every editable field of p to the server. The cached
// entry is replaced in place immediately. If the write fails while its value
// is still showing, the last server-confirmed value comes back; a failure
// that was already superseded by a later write leaves the list alone.
// Projects missing from the cache are written without touching the list.
func (e *Engine) UpdateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	if p.IsNew() {
		return domain.Project{}, domain.NewValidationError("required", "id")
	}

	var (
		token    uint64
		previous entry
		cached   bool
	)
	e.mutate(func() {
		i := e.indexOfID(p.ID)
		if i < 0 {
			return
		}
		cached = true
		previous = e.items[i]
		token = e.nextToken()
		optimistic := p
		optimistic.CreatedAt = previous.project.CreatedAt
		e.items[i] = entry{project: optimistic, token: token}
	})

	updated, err := e.repo.Update(ctx, p.ID, domain.PatchFrom(p))
	if err != nil {
		if cached {
			e.mutate(func() {
				i := e.indexOfToken(token)
				if i < 0 {
					return
				}
				if last, ok := e.confirmed[p.ID]; ok {
					e.items[i] = entry{project: last, token: e.nextToken()}
					return
				}
				e.items[i] = previous
			})
		}
		return domain.Project{}, err
	}

	if cached {
		e.mutate(func() {
			e.confirmed[updated.ID] = updated
			if i := e.indexOfID(updated.ID); i >= 0 {
				e.items[i] = entry{project: updated, token: e.nextToken()}
			}
		})
	}
	return updated, nil
}

// DeleteProject removes the project once the server confirms.
func (e *Engine) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError("required", "id")
	}
	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}
	e.mutate(func() { e.removeLocked(id) })
	return nil
}

// Replace swaps in a list the server just sent, as Load does on success.
func (e *Engine) Replace(projects []domain.Project) {
	e.mutate(func() {
		e.lastErr = nil
		e.replaceLocked(projects)
	})
}

// Apply folds a change made elsewhere into the list. Created and updated
// projects replace any cached copy or go to the front; the value counts as
// confirmed, so a local write still in flight can no longer roll it back.
func (e *Engine) Apply(ev events.Event) {
	switch ev.Type {
	case events.TypeCreated, events.TypeUpdated:
		if ev.Project == nil || ev.Project.ID == "" {
			return
		}
		p := *ev.Project
		e.mutate(func() {
			e.confirmed[p.ID] = p
			confirmed := entry{project: p, token: e.nextToken()}
			if i := e.indexOfID(p.ID); i >= 0 {
				e.items[i] = confirmed
				return
			}
			e.items = append([]entry{confirmed}, e.items...)
		})
	case events.TypeDeleted:
		e.mutate(func() { e.removeLocked(ev.ID) })
	}
}

// Projects returns a copy of the current list.
func (e *Engine) Projects() []domain.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectsLocked()
}

// Get returns the cached project with id.
func (e *Engine) Get(id string) (domain.Project, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOfID(id); i >= 0 {
		return e.items[i].project, true
	}
	return domain.Project{}, false
}

func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads > 0
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn for every future state change and returns a func
// that removes it.
func (e *Engine) Subscribe(fn Listener) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// mutate applies change under the lock and then notifies listeners outside
// it.
func (e *Engine) mutate(change func()) {
	e.mu.Lock()
	change()
	snap := e.snapshotLocked()
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Projects: e.projectsLocked(),
		Loading:  e.loads > 0,
		Degraded: e.degraded,
		Err:      e.lastErr,
	}
}

func (e *Engine) projectsLocked() []domain.Project {
	out := make([]domain.Project, len(e.items))
	for i, it := range e.items {
		out[i] = it.project
	}
	return out
}

func (e *Engine) replaceLocked(projects []domain.Project) {
	e.degraded = false
	e.items = e.entriesOf(projects)
	e.confirmed = make(map[string]domain.Project, len(projects))
	for _, p := range projects {
		e.confirmed[p.ID] = p
	}
}

func (e *Engine) removeLocked(id string) {
	delete(e.confirmed, id)
	if i := e.indexOfID(id); i >= 0 {
		e.items = append(e.items[:i], e.items[i+1:]...)
	}
}

func (e *Engine) entriesOf(projects []domain.Project) []entry {
	out := make([]entry, len(projects))
	for i, p := range projects {
		out[i] = entry{project: p, token: e.nextToken()}
	}
	return out
}

func (e *Engine) nextToken() uint64 {
	e.seq++
	return e.seq
}

func (e *Engine) indexOfToken(token uint64) int {
	for i, it := range e.items {
		if it.token == token {
			return i
		}
	}
	return -1
}

func (e *Engine) indexOfID(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range e.items {
		if it.project.ID == id {
			return i
		}
	}
	return -1
}
