package media

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ref is a stored media reference usable as Project.Image or Project.Video.
type Ref struct {
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
	Key  string `json:"key,omitempty"`
}

// Store persists media blobs and hands back a stable retrieval URL.
type Store interface {
	Store(ctx context.Context, r io.Reader, size int64, mimeType, originalName string) (Ref, error)
}

// Object is one blob held by a store.
type Object struct {
	Key          string
	URL          string
	Size         int64
	LastModified time.Time
}

// Inventory is implemented by stores that can enumerate and remove blobs.
type Inventory interface {
	List(ctx context.Context) ([]Object, error)
	Remove(ctx context.Context, key string) error
}

var whitespace = regexp.MustCompile(`\s`)

// ObjectName returns a globally unique blob name that keeps the original
// file name as a readable suffix.
func ObjectName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	base = whitespace.ReplaceAllString(base, "_")
	return strings.ToLower(uuid.NewString() + "-" + base)
}

// refFor builds the reference for a freshly stored blob. The kind is a best
// effort from the declared type; the coordinator overrides it.
func refFor(baseURL, key, mimeType string) Ref {
	kind, err := ClassifyMIME(mimeType)
	if err != nil {
		kind = KindFromURL(key)
	}
	return Ref{URL: joinURL(baseURL, key), Kind: kind, Key: key}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
