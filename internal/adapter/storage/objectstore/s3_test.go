package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"trip-finance-ledger/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style PUT and GET object requests from memory.
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
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[r.URL.Path])
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), config.S3Config{
		Endpoint:     srv.URL,
		Bucket:       "proofs",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
		Prefix:       "proofs/",
	}, zerolog.Nop())
	require.NoError(t, err)
	return store, fake
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.S3Config{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestS3Store_PutGet(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "txn-1/receipt.pdf", "application/pdf", []byte("%PDF-1.7")))

	stored, ok := fake.objects["/proofs/proofs/txn-1/receipt.pdf"]
	require.True(t, ok, "object written under bucket and prefix")
	assert.Equal(t, "%PDF-1.7", string(stored))
	assert.Equal(t, "application/pdf", fake.types["/proofs/proofs/txn-1/receipt.pdf"])

	got, err := store.Get(ctx, "txn-1/receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(got))
}

func TestS3Store_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("http://minio:9000"))
	assert.Equal(t, "https://s3.ap-south-1.amazonaws.com", normalizeEndpoint("s3.ap-south-1.amazonaws.com"))
	assert.True(t, strings.HasPrefix(normalizeEndpoint("x"), "https://"))
}
