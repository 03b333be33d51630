package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/designstudio/portfolio-backend/internal/auth"
	authmw "github.com/designstudio/portfolio-backend/internal/auth/middleware"
	authsvc "github.com/designstudio/portfolio-backend/internal/auth/service"
	authhttp "github.com/designstudio/portfolio-backend/internal/auth/http"
	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
	projhttp "github.com/designstudio/portfolio-backend/internal/projects/http"
	"github.com/designstudio/portfolio-backend/internal/projects/service"
	projsync "github.com/designstudio/portfolio-backend/internal/projects/sync"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

type memStore struct {
	mu    sync.Mutex
	items []domain.Project
	seq   int
}

func (m *memStore) List(context.Context) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Project(nil), m.items...), nil
}

func (m *memStore) Get(_ context.Context, id string) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, domain.ErrNotFound
}

func (m *memStore) Create(_ context.Context, p domain.Project) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = fmt.Sprintf("p%d", m.seq)
	m.items = append([]domain.Project{p}, m.items...)
	return p, nil
}

func (m *memStore) Update(_ context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.items {
		if p.ID == id {
			m.items[i] = patch.Apply(p)
			return m.items[i], nil
		}
	}
	return domain.Project{}, domain.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type testServer struct {
	*httptest.Server
	store     *memStore
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	bus := events.NewBus(rdb)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := authsvc.NewCredentials(adminEmail, string(hash))
	require.NoError(t, err)
	sessions, err := authsvc.NewSessions("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	authService := authsvc.NewAuthService(creds, sessions, nil)

	dir := t.TempDir()
	local, err := media.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	store := &memStore{}
	r := gin.New()
	r.Use(authmw.Authenticate(authService))
	authhttp.New(authService, false).Register(r.Group("/api/auth"))
	projhttp.New(
		service.NewProjectService(store, bus),
		media.NewCoordinator(local, auth.RequestAuthorizer{}),
		bus,
	).Register(r.Group("/api/v1"), authmw.RequireAdmin())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, uploadDir: dir}
}

func loggedIn(t *testing.T, srv *testServer) *Client {
	t.Helper()
	c, err := New(srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), adminEmail, adminPassword))
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestLoginCheckLogout(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c, err := New(srv.URL)
	require.NoError(t, err)

	ok, err := c.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.CanUpload(ctx))

	assert.ErrorIs(t, c.Login(ctx, adminEmail, "wrong"), domain.ErrUnauthorized)

	require.NoError(t, c.Login(ctx, adminEmail, adminPassword))
	assert.NotEmpty(t, c.SessionToken())
	ok, err = c.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.SessionToken())
}

func TestSessionTokenRestore(t *testing.T) {
	srv := newTestServer(t)
	token := loggedIn(t, srv).SessionToken()

	c, err := New(srv.URL)
	require.NoError(t, err)
	c.SetSessionToken(token)

	ok, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepositoryRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	created, err := c.Create(ctx, domain.Project{Title: "Logo", Category: "branding", Description: "New mark"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	title := "Logo v2"
	updated, err := c.Update(ctx, created.ID, domain.ProjectPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Logo v2", updated.Title)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.ErrorIs(t, c.Delete(ctx, created.ID), domain.ErrNotFound)
	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	anon, err := New(srv.URL)
	require.NoError(t, err)
	_, err = anon.Create(ctx, domain.Project{Title: "x", Category: "y", Description: "z"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	c := loggedIn(t, srv)
	_, err = c.Create(ctx, domain.Project{Title: "x"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"category", "description"}, domain.ValidationFields(err))
}

func TestNetworkError(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestStore_UploadsThroughAPI(t *testing.T) {
	srv := newTestServer(t)
	c := loggedIn(t, srv)
	coord := media.NewCoordinator(c, c)

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 'J', 'F', 'I', 'F'}
	ref, err := coord.Upload(context.Background(), media.File{
		Name: "My Logo.jpg", MIMEType: "image/jpeg", Size: int64(len(data)), Body: bytes.NewReader(data),
	})
	require.NoError(t, err)
	assert.Equal(t, media.KindImage, ref.Kind)
	assert.True(t, strings.HasPrefix(ref.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref.URL, "-my_logo.jpg"))

	stored, err := os.ReadFile(filepath.Join(srv.uploadDir, strings.TrimPrefix(ref.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestStore_Errors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	anon, err := New(srv.URL)
	require.NoError(t, err)
	_, err = anon.Store(ctx, strings.NewReader("x"), 1, "image/png", "a.png")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	c := loggedIn(t, srv)
	_, err = c.Store(ctx, strings.NewReader("%PDF"), 4, "application/pdf", "a.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedMediaType)

	srv.Close()
	_, err = c.Store(ctx, strings.NewReader("x"), 1, "image/png", "a.png")
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestEngineOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	engine := projsync.NewEngine(c)
	require.NoError(t, engine.Load(ctx))

	p, err := engine.AddProject(ctx, domain.Project{Title: "Logo", Category: "branding", Description: "New mark"})
	require.NoError(t, err)

	p.Description = "Refined mark"
	_, err = engine.UpdateProject(ctx, p)
	require.NoError(t, err)

	stored, err := srv.store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refined mark", stored.Description)

	require.NoError(t, engine.DeleteProject(ctx, p.ID))
	assert.Empty(t, engine.Projects())
}

func TestWatch_InitialThenChanges(t *testing.T) {
	srv := newTestServer(t)
	c := loggedIn(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan Message, 8)
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, func(m Message) { msgs <- m }) }()

	next := func() Message {
		select {
		case m := <-msgs:
			return m
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for stream message")
		}
		return Message{}
	}

	initial := next()
	assert.Equal(t, "initial", initial.Event)
	assert.Empty(t, initial.Projects)

	created, err := c.Create(context.Background(), domain.Project{Title: "Logo", Category: "branding", Description: "New mark"})
	require.NoError(t, err)

	m := next()
	assert.Equal(t, "created", m.Event)
	require.NotNil(t, m.Change)
	assert.Equal(t, created.ID, m.Change.ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestStatusError(t *testing.T) {
	assert.ErrorIs(t, statusError(http.StatusBadGateway, []byte(`{"error":"disk"}`)), domain.ErrUploadFailed)
	assert.ErrorIs(t, statusError(http.StatusGatewayTimeout, nil), domain.ErrTimeout)
	assert.ErrorIs(t, statusError(http.StatusUnsupportedMediaType, nil), domain.ErrUnsupportedMediaType)

	err := statusError(http.StatusInternalServerError, []byte("not json"))
	assert.Contains(t, err.Error(), "500")
}
