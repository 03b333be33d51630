package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the bucket check and object uploads for a single bucket.
// The first failHeads bucket checks are refused.
func fakeS3(t *testing.T, failHeads int32) (*httptest.Server, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	var heads, puts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			if heads.Add(1) <= failHeads {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			_, _ = io.Copy(io.Discard, r.Body)
			puts.Add(1)
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &heads, &puts
}

func newTestMinio(t *testing.T, srv *httptest.Server) *MinioStore {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	s, err := NewMinioStore(MinioConfig{
		Endpoint:        u.Host,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Bucket:          "media",
		PublicURL:       "http://cdn.test/media",
	})
	require.NoError(t, err)
	return s
}

func storePNG(ctx context.Context, s *MinioStore) (Ref, error) {
	body := []byte("\x89PNG\r\n\x1a\nrest")
	return s.Store(ctx, bytes.NewReader(body), int64(len(body)), "image/png", "logo.png")
}

func TestMinioStore_RetriesBucketCheckAfterCancelledRequest(t *testing.T) {
	srv, heads, puts := fakeS3(t, 0)
	s := newTestMinio(t, srv)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := storePNG(cancelled, s)
	require.Error(t, err)

	ref, err := storePNG(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, KindImage, ref.Kind)
	assert.True(t, strings.HasPrefix(ref.URL, "http://cdn.test/media/"))
	assert.Equal(t, int32(1), heads.Load())
	assert.Equal(t, int32(1), puts.Load())

	_, err = storePNG(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int32(1), heads.Load(), "a confirmed bucket is not checked again")
}

func TestMinioStore_RetriesBucketCheckAfterFailure(t *testing.T) {
	srv, heads, puts := fakeS3(t, 1)
	s := newTestMinio(t, srv)

	_, err := storePNG(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, int32(0), puts.Load())

	_, err = storePNG(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int32(2), heads.Load())
	assert.Equal(t, int32(1), puts.Load())
}
