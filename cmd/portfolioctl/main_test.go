package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)

	require.NoError(t, saveConfig(&Config{BaseURL: "http://example.test", SessionToken: "tok"}))

	info, err := os.Stat(filepath.Join(home, ".portfolioctl", "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.SessionToken)
}

func TestList_FallsBackToSamples(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := run(t, "", "--server", "http://127.0.0.1:1", "list", "--samples")
	require.NoError(t, err)
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "sample-1")
	assert.Contains(t, out, "Brand Identity")
}

func TestList_WithoutSamplesReportsError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := run(t, "", "--server", "http://127.0.0.1:1", "list")
	require.Error(t, err)
}

func TestListAndCategories_FromServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"projects":[
			{"id":"p2","title":"Poster","category":"print","description":"d","image":"/uploads/a.png"},
			{"id":"p1","title":"Reel","category":"motion","description":"d","video":"/uploads/b.mp4"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "", "--server", srv.URL, "list", "--category", "motion")
	require.NoError(t, err)
	assert.Contains(t, out, "Reel")
	assert.Contains(t, out, "video /uploads/b.mp4")
	assert.NotContains(t, out, "Poster")

	out, err = run(t, "", "--server", srv.URL, "categories")
	require.NoError(t, err)
	assert.Equal(t, "all\nprint\nmotion\n", out)
}

func TestAdd_ValidationErrorListsFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := run(t, "", "--server", "http://127.0.0.1:1", "add", "--title", "Only a title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")
	assert.Contains(t, err.Error(), "description")
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestParseSeed(t *testing.T) {
	projects, err := parseSeed([]byte(`
projects:
  - title: Brand Identity
    category: branding
    description: Logo system
    image: /uploads/logo.png
  - title: Launch Reel
    category: motion
    description: Product film
    video: /uploads/reel.mp4
`))
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Brand Identity", projects[0].Title)
	assert.Empty(t, projects[0].ID)
	assert.Equal(t, "/uploads/reel.mp4", projects[1].Video)
}

func TestParseSeed_Rejects(t *testing.T) {
	_, err := parseSeed([]byte("projects:\n  - title: No category\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = parseSeed([]byte("projects:\n  - title: t\n    category: c\n    description: d\n    image: a.png\n    video: b.mp4\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = parseSeed([]byte("projects: [unterminated"))
	require.Error(t, err)
}

func TestImport_CreatesEachProject(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var created []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p domain.Project
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.ID = fmt.Sprintf("p%d", len(created)+1)
		created = append(created, p.Title)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "project": p})
	}))
	defer srv.Close()

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
projects:
  - {title: One, category: print, description: first}
  - {title: Two, category: print, description: second}
`), 0o644))

	out, err := run(t, "", "--server", srv.URL, "import", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 projects")
	assert.Equal(t, []string{"One", "Two"}, created)
}

func TestWatch_TracksRemoteChanges(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: initial\n")
		fmt.Fprint(w, `data: {"projects":[{"id":"p1","title":"Poster","category":"print","description":"d"}]}`+"\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "event: created\n")
		fmt.Fprint(w, `data: {"type":"created","id":"p2","project":{"id":"p2","title":"Reel","category":"motion","description":"d"},"at":"2026-01-02T03:04:05Z"}`+"\n\n")
		fmt.Fprint(w, "event: deleted\n")
		fmt.Fprint(w, `data: {"type":"deleted","id":"p1","at":"2026-01-02T03:04:06Z"}`+"\n\n")
	}))
	defer srv.Close()

	out, err := run(t, "", "--server", srv.URL, "watch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1 projects", lines[0])
	assert.Contains(t, lines[1], "created\tp2\tReel\t(2 projects)")
	assert.Contains(t, lines[2], "deleted\tp1\t\t(1 projects)")
}
