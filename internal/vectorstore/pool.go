package vectorstore

import (
	"context"
	"sync"
)

// Collection is a handle to one named collection, checked out from a
// Pool. All operations delegate to the shared client.
type Collection struct {
	client *Client
	name   string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

func (c *Collection) Upsert(ctx context.Context, points []Point) error {
	return c.client.Upsert(ctx, c.name, points)
}

func (c *Collection) Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]Match, error) {
	return c.client.Search(ctx, c.name, vector, limit, filter)
}

func (c *Collection) Scroll(ctx context.Context, limit int) ([]Match, error) {
	return c.client.Scroll(ctx, c.name, limit)
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	return c.client.Count(ctx, c.name)
}

func (c *Collection) DeleteByFilter(ctx context.Context, filter map[string]any) error {
	return c.client.DeleteByFilter(ctx, c.name, filter)
}

type poolEntry struct {
	coll *Collection
	refs int
}

// Pool hands out reference-counted collection handles. A handle is
// created (and the collection ensured server-side) on first acquire and
// evicted once the last holder releases it. Callers must pair every
// Acquire with a Release.
type Pool struct {
	client  *Client
	mu      sync.Mutex
	entries map[string]*poolEntry
}

// NewPool creates a Pool over the given client.
func NewPool(client *Client) *Pool {
	return &Pool{
		client:  client,
		entries: make(map[string]*poolEntry),
	}
}

// Acquire returns a handle for the named collection, creating the
// collection if needed.
func (p *Pool) Acquire(ctx context.Context, name string) (*Collection, error) {
	p.mu.Lock()
	if entry, ok := p.entries[name]; ok {
		entry.refs++
		p.mu.Unlock()
		return entry.coll, nil
	}
	p.mu.Unlock()

	// Ensure outside the lock: collection creation is a network call.
	if err := p.client.EnsureCollection(ctx, name); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[name]; ok {
		entry.refs++
		return entry.coll, nil
	}
	entry := &poolEntry{
		coll: &Collection{client: p.client, name: name},
		refs: 1,
	}
	p.entries[name] = entry
	return entry.coll, nil
}

// Release drops one reference; the handle is evicted when the count
// reaches zero. Releasing an unknown name is a no-op.
func (p *Pool) Release(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[name]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(p.entries, name)
	}
}

// Size returns the number of live handles.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
