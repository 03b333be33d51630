package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 50 << 20

// sniffLen is how much of the body is inspected when no type was declared.
const sniffLen = 3072

// File is a candidate upload. Size may be -1 when unknown.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Body     io.Reader
}

// Authorizer decides whether the current actor may upload.
type Authorizer interface {
	CanUpload(ctx context.Context) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context) bool

func (f AuthorizerFunc) CanUpload(ctx context.Context) bool { return f(ctx) }

// Coordinator validates, classifies and stores uploads and attaches the
// resulting reference to a project.
type Coordinator struct {
	store    Store
	auth     Authorizer
	maxBytes int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxBytes overrides DefaultMaxBytes. Zero or less disables the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Coordinator) { c.maxBytes = n }
}

func NewCoordinator(store Store, auth Authorizer, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, auth: auth, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload classifies and stores f. Store and transport failures all surface as
// domain.ErrUploadFailed; there is no automatic retry.
func (c *Coordinator) Upload(ctx context.Context, f File) (Ref, error) {
	if c.auth == nil || !c.auth.CanUpload(ctx) {
		return Ref{}, domain.ErrUnauthorized
	}
	if f.Body == nil {
		return Ref{}, fmt.Errorf("%w: no file provided", domain.ErrUploadFailed)
	}

	body, mimeType, err := resolveType(f)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	kind, err := ClassifyMIME(mimeType)
	if err != nil {
		return Ref{}, err
	}

	size := f.Size
	if size < 0 {
		buf, err := c.buffer(body)
		if err != nil {
			return Ref{}, err
		}
		body, size = bytes.NewReader(buf), int64(len(buf))
	}
	if size == 0 {
		return Ref{}, fmt.Errorf("%w: empty file", domain.ErrUploadFailed)
	}
	if c.maxBytes > 0 && size > c.maxBytes {
		return Ref{}, fmt.Errorf("%w: file is %d bytes, limit is %d", domain.ErrUploadFailed, size, c.maxBytes)
	}

	ref, err := c.store.Store(ctx, body, size, mimeType, f.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrUnsupportedMediaType), errors.Is(err, domain.ErrUploadFailed):
			return Ref{}, err
		}
		log.Printf("[warn] operation=media.upload name=%q error=%v", f.Name, err)
		return Ref{}, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	ref.Kind = kind
	return ref, nil
}

// Attach uploads f and places the reference into the slot matching its kind,
// clearing the other slot. p is left untouched on failure.
func (c *Coordinator) Attach(ctx context.Context, f File, p *domain.Project) (Ref, error) {
	ref, err := c.Upload(ctx, f)
	if err != nil {
		return Ref{}, err
	}
	ref.Kind.Assign(p, ref.URL)
	return ref, nil
}

func (c *Coordinator) buffer(r io.Reader) ([]byte, error) {
	if c.maxBytes > 0 {
		r = io.LimitReader(r, c.maxBytes+1)
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %v", domain.ErrUploadFailed, err)
	}
	return buf, nil
}

// resolveType returns the declared MIME type, or sniffs one from the content
// when the declaration is missing or generic. The returned reader yields the
// full body.
func resolveType(f File) (io.Reader, string, error) {
	declared := strings.TrimSpace(f.MIMEType)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return f.Body, declared, nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head).String()
	return io.MultiReader(bytes.NewReader(head), f.Body), detected, nil
}
