package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// newTestClient creates a storage client pointed at a fake JSON API server.
func newTestClient(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(
		context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidatesInputs(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "bucket"})
	require.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = New(client, Config{})
	require.Error(t, err)

	store, err := New(client, Config{Bucket: "bucket"})
	require.NoError(t, err)
	require.Equal(t, "bucket", store.Bucket())
}

func TestPutObjectUploadsJSON(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotName  string
		gotBody  string
		gotPaths []string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		mu.Lock()
		gotPaths = append(gotPaths, r.URL.Path)
		gotName = r.URL.Query().Get("name")
		gotBody = string(body)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"bucket":"raw-bucket","name":%q}`, gotName)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: "raw-bucket"})
	require.NoError(t, err)

	payload := `{"domain":"example.com","pages":[]}`
	uri, err := store.PutObject(
		context.Background(),
		"scrapes/example.com/2024-01-02T03-04-05Z.json",
		"application/json",
		strings.NewReader(payload),
	)
	require.NoError(t, err)
	require.Equal(t, "gs://raw-bucket/scrapes/example.com/2024-01-02T03-04-05Z.json", uri)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, gotPaths, 1)
	require.Contains(t, gotPaths[0], "/b/raw-bucket/o")
	require.Equal(t, "scrapes/example.com/2024-01-02T03-04-05Z.json", gotName)
	require.Contains(t, gotBody, payload)
	require.Contains(t, gotBody, "application/json")
}

func TestPutObjectServerError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store, err := New(newTestClient(t, handler), Config{Bucket: "raw-bucket"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "scrapes/x.json", "application/json", strings.NewReader("{}"))
	require.Error(t, err)
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	store, err := New(newTestClient(t, http.NotFoundHandler()), Config{Bucket: "raw-bucket"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "  ", "application/json", strings.NewReader("{}"))
	require.Error(t, err)
}

func TestPutObjectDefaultsToJSONContentType(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gotName string
		gotBody string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		mu.Lock()
		gotName = r.URL.Query().Get("name")
		gotBody = string(body)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"bucket":"raw-bucket","name":%q}`, gotName)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: "raw-bucket"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "/scrapes/example.com/a.json", "", strings.NewReader("{}"))
	require.NoError(t, err)
	require.Equal(t, "gs://raw-bucket/scrapes/example.com/a.json", uri)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "scrapes/example.com/a.json", gotName)
	require.Contains(t, gotBody, `"contentType":"`+DefaultContentType+`"`)
}

func TestNewRejectsNegativeChunkSize(t *testing.T) {
	t.Parallel()

	_, err := New(newTestClient(t, http.NotFoundHandler()), Config{Bucket: "bucket", ChunkSize: -1})
	require.Error(t, err)
}

func TestObjectURI(t *testing.T) {
	t.Parallel()

	store, err := New(newTestClient(t, http.NotFoundHandler()), Config{Bucket: "raw-bucket"})
	require.NoError(t, err)

	assert.Equal(t, "gs://raw-bucket/scrapes/a.json", store.ObjectURI("scrapes/a.json"))
	assert.Equal(t, "gs://raw-bucket/scrapes/a.json", store.ObjectURI("/scrapes/a.json"))
}
