package vectorstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/studymate/study-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, VectorDim: 3}, utils.NewDevelopmentLogger())
	require.NoError(t, err)
	return client, server
}

func existingCollectionHandler(ensureCalls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/collections/") {
			ensureCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result": {}, "status": "ok", "time": 0}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
}

func TestPool_AcquireReusesHandle(t *testing.T) {
	var ensureCalls atomic.Int32
	client, _ := newTestClient(t, existingCollectionHandler(&ensureCalls))
	pool := NewPool(client)

	first, err := pool.Acquire(context.Background(), "cs101")
	require.NoError(t, err)
	second, err := pool.Acquire(context.Background(), "cs101")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, pool.Size())
	// Only the first acquire checks the collection server-side.
	assert.Equal(t, int32(1), ensureCalls.Load())
}

func TestPool_ReleaseEvictsOnLastHolder(t *testing.T) {
	var ensureCalls atomic.Int32
	client, _ := newTestClient(t, existingCollectionHandler(&ensureCalls))
	pool := NewPool(client)

	_, err := pool.Acquire(context.Background(), "cs101")
	require.NoError(t, err)
	_, err = pool.Acquire(context.Background(), "cs101")
	require.NoError(t, err)

	pool.Release("cs101")
	assert.Equal(t, 1, pool.Size())

	pool.Release("cs101")
	assert.Equal(t, 0, pool.Size())
}

func TestPool_ReleaseUnknownIsNoop(t *testing.T) {
	var ensureCalls atomic.Int32
	client, _ := newTestClient(t, existingCollectionHandler(&ensureCalls))
	pool := NewPool(client)

	pool.Release("never-acquired")
	assert.Equal(t, 0, pool.Size())
}

func TestPool_AcquireCreatesMissingCollection(t *testing.T) {
	var created atomic.Bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && !created.Load():
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			created.Store(true)
			w.Write([]byte(`{"result": true, "status": "ok", "time": 0}`))
		default:
			w.Write([]byte(`{"result": {}, "status": "ok", "time": 0}`))
		}
	})
	client, _ := newTestClient(t, handler)
	pool := NewPool(client)

	_, err := pool.Acquire(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, created.Load())
}
