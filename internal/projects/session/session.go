// Package session implements the bounded editing transaction used to create
// or edit a single project before it is committed through the sync engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// DefaultSaveTimeout bounds a single save.
const DefaultSaveTimeout = 30 * time.Second

var (
	ErrSaveInProgress = errors.New("save already in progress")
	ErrSessionClosed  = errors.New("edit session is closed")
	ErrUploadBusy     = errors.New("media upload in progress")
)

type State int

const (
	Idle State = iota
	Editing
	Saving
	Committed
	Failed
	Abandoned
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Closed reports whether the session accepts no further operations.
func (s State) Closed() bool {
	return s == Committed || s == Abandoned
}

// Saver persists the staged project. It is satisfied by sync.Engine.
type Saver interface {
	AddProject(ctx context.Context, p domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, p domain.Project) (domain.Project, error)
}

// Attacher uploads a file and places its reference on a project. It is
// satisfied by media.Coordinator.
type Attacher interface {
	Attach(ctx context.Context, f media.File, p *domain.Project) (media.Ref, error)
}

// TransitionFunc observes state changes. It is called without the session
// lock held.
type TransitionFunc func(from, to State)

type Option func(*Session)

// WithSaveTimeout overrides DefaultSaveTimeout. Zero disables the timeout.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Session) { s.saveTimeout = d }
}

// Session stages field and media edits for one project. Staging is expected
// to be driven sequentially; at most one save and one upload may be in
// flight at a time.
type Session struct {
	saver       Saver
	attacher    Attacher
	saveTimeout time.Duration

	mu        sync.Mutex
	state     State
	staged    domain.Project
	lastErr   error
	uploadErr error
	uploading bool
	hooks     []TransitionFunc
	fired     []transition
}

type transition struct{ from, to State }

// NewCreate starts a session for a project that does not exist yet.
func NewCreate(saver Saver, attacher Attacher, opts ...Option) *Session {
	return newSession(saver, attacher, domain.Project{}, opts)
}

// NewEdit starts a session that edits p.
func NewEdit(saver Saver, attacher Attacher, p domain.Project, opts ...Option) *Session {
	return newSession(saver, attacher, p, opts)
}

func newSession(saver Saver, attacher Attacher, p domain.Project, opts []Option) *Session {
	s := &Session{
		saver:       saver,
		attacher:    attacher,
		saveTimeout: DefaultSaveTimeout,
		state:       Idle,
		staged:      p,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnTransition registers fn for every state change.
func (s *Session) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Staged returns a copy of the staged project.
func (s *Session) Staged() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// IsNew reports whether saving will create a project.
func (s *Session) IsNew() bool {
	return s.Staged().IsNew()
}

// LastError is the error from the most recent save attempt, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// UploadError is the error from the most recent upload attempt. It stays
// until another upload supersedes it.
func (s *Session) UploadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadErr
}

func (s *Session) SetTitle(v string) error {
	return s.stage(func(p *domain.Project) { p.Title = v })
}

func (s *Session) SetCategory(v string) error {
	return s.stage(func(p *domain.Project) { p.Category = v })
}

func (s *Session) SetDescription(v string) error {
	return s.stage(func(p *domain.Project) { p.Description = v })
}

// SetImageURL stages an existing image reference and clears any video.
func (s *Session) SetImageURL(url string) error {
	return s.stage(func(p *domain.Project) { p.SetImage(url) })
}

// SetVideoURL stages an existing video or audio reference and clears any
// image.
func (s *Session) SetVideoURL(url string) error {
	return s.stage(func(p *domain.Project) { p.SetVideo(url) })
}

// ClearMedia removes the staged media reference.
func (s *Session) ClearMedia() error {
	return s.stage(func(p *domain.Project) { p.ClearMedia() })
}

// AttachMedia uploads f and, on success, replaces the staged media with the
// new reference. On failure the staged project is untouched and the error is
// kept as UploadError.
func (s *Session) AttachMedia(ctx context.Context, f media.File) (media.Ref, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return media.Ref{}, err
	}
	if s.uploading {
		s.mu.Unlock()
		return media.Ref{}, ErrUploadBusy
	}
	s.uploading = true
	s.uploadErr = nil
	s.toEditingLocked()
	target := s.staged
	s.mu.Unlock()
	s.notify()

	ref, err := s.attacher.Attach(ctx, f, &target)

	s.mu.Lock()
	s.uploading = false
	switch {
	case s.state.Closed():
		// Abandoned mid-upload; the blob stays orphaned in the store.
		s.mu.Unlock()
		if err == nil {
			err = ErrSessionClosed
		}
		return media.Ref{}, err
	case err != nil:
		s.uploadErr = err
	default:
		ref.Kind.Assign(&s.staged, ref.URL)
	}
	s.mu.Unlock()

	if err != nil {
		return media.Ref{}, err
	}
	return ref, nil
}

// Save validates the staged project and commits it through the Saver,
// creating or updating depending on whether it has an id. A failed save
// returns the session to Editing with all staged input intact.
func (s *Session) Save(ctx context.Context) (domain.Project, error) {
	s.mu.Lock()
	if s.state.Closed() {
		s.mu.Unlock()
		return domain.Project{}, ErrSessionClosed
	}
	if s.state == Saving {
		s.mu.Unlock()
		return domain.Project{}, ErrSaveInProgress
	}
	if s.uploading {
		s.mu.Unlock()
		return domain.Project{}, ErrUploadBusy
	}
	s.toEditingLocked()
	if err := s.staged.Validate(); err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.notify()
		return domain.Project{}, err
	}
	s.setStateLocked(Saving)
	p := s.staged
	s.mu.Unlock()
	s.notify()

	saved, err := s.commit(ctx, p)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		s.setStateLocked(Failed)
		s.setStateLocked(Editing)
	} else {
		s.lastErr = nil
		s.staged = saved
		s.setStateLocked(Committed)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		return domain.Project{}, err
	}
	return saved, nil
}

func (s *Session) commit(ctx context.Context, p domain.Project) (domain.Project, error) {
	if s.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
	}

	var (
		saved domain.Project
		err   error
	)
	if p.IsNew() {
		saved, err = s.saver.AddProject(ctx, p)
	} else {
		saved, err = s.saver.UpdateProject(ctx, p)
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return saved, err
}

// Abandon closes the session without saving. Uploaded media is not removed
// from the store.
func (s *Session) Abandon() error {
	s.mu.Lock()
	switch {
	case s.state.Closed():
		s.mu.Unlock()
		return ErrSessionClosed
	case s.state == Saving:
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	s.setStateLocked(Abandoned)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) stage(change func(p *domain.Project)) error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	change(&s.staged)
	s.toEditingLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) editableLocked() error {
	switch {
	case s.state.Closed():
		return ErrSessionClosed
	case s.state == Saving:
		return ErrSaveInProgress
	}
	return nil
}

func (s *Session) toEditingLocked() {
	if s.state == Idle {
		s.setStateLocked(Editing)
	}
}

func (s *Session) setStateLocked(to State) {
	if s.state == to {
		return
	}
	s.fired = append(s.fired, transition{from: s.state, to: to})
	s.state = to
}

// notify delivers queued transitions to the hooks outside the lock.
func (s *Session) notify() {
	s.mu.Lock()
	fired := s.fired
	s.fired = nil
	hooks := append([]TransitionFunc(nil), s.hooks...)
	s.mu.Unlock()

	for _, t := range fired {
		for _, h := range hooks {
			h(t.from, t.to)
		}
	}
}
