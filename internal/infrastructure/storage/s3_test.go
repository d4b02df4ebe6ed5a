package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*S3Client, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewS3Client(context.Background(), Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Region:          "us-east-1",
		UsePathStyle:    true,
		Bucket:          "search-images",
		PresignTTL:      2 * time.Minute,
	})
	require.NoError(t, err)
	return c, fake
}

func TestS3Client_PutImage(t *testing.T) {
	c, fake := newTestClient(t)

	url, err := c.PutImage(context.Background(), "visual-search/2026/03/01/abc.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Contains(t, string(fake.objects["/search-images/visual-search/2026/03/01/abc.png"]), "png-bytes")
	assert.Equal(t, "image/png", fake.types["/search-images/visual-search/2026/03/01/abc.png"])

	assert.Contains(t, url, "/search-images/visual-search/2026/03/01/abc.png")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.True(t, strings.Contains(url, "X-Amz-Expires=120"))
}

func TestS3Client_EnsureBucketExisting(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.EnsureBucket(context.Background()))
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), Config{Region: "us-east-1"})
	assert.Error(t, err)
}
