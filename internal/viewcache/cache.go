// Package viewcache caches fetched view payloads per (view, region) pair
// with fetch-once-until-invalidated semantics: switching tabs back and
// forth never re-issues a request for data already loaded, and concurrent
// demands for the same key share a single in-flight fetch.
package viewcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pepperwatch/internal/domain"
)

// View names a tabbed surface that fetches per-region data.
type View string

const (
	ViewOverview    View = "overview"
	ViewPerformance View = "performance"
	ViewTable       View = "table"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// FetchFunc loads the payload for a (view, region) key.
type FetchFunc func(ctx context.Context) (any, error)

type key struct {
	view   View
	region domain.Region
}

type entry struct {
	status    Status
	payload   any
	err       error
	fetchedAt time.Time
	gen       uint64 // invalidation generation at fetch start
}

// Cache is the per-tab, per-region result cache. All mutation goes through
// Ensure and Invalidate; entries never expire on their own.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*entry
	gens    map[key]uint64
	group   singleflight.Group
	clock   func() time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[key]*entry),
		gens:    make(map[key]uint64),
		clock:   time.Now,
	}
}

// Ensure returns the cached payload for (view, region), fetching it at most
// once. A ready or errored entry is returned as-is without refetching;
// concurrent callers while the fetch is in flight await the same request
// rather than issuing a duplicate. A fetch result that lost to an
// Invalidate racing with it is returned to its caller but never stored.
func (c *Cache) Ensure(ctx context.Context, view View, region domain.Region, fetch FetchFunc) (any, error) {
	k := key{view: view, region: region}

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && (e.status == StatusReady || e.status == StatusError) {
		payload, err := e.payload, e.err
		c.mu.Unlock()
		return payload, err
	}
	gen := c.gens[k]
	c.entries[k] = &entry{status: StatusLoading, gen: gen}
	c.mu.Unlock()

	payload, err, _ := c.group.Do(groupKey(k), c.flight(ctx, k, gen, fetch))

	c.mu.Lock()
	if c.gens[k] == gen {
		// A caller whose flight resolved from the stored entry must not
		// rewrite it; that would bump fetchedAt without a fetch.
		if e, ok := c.entries[k]; !ok || e.status == StatusLoading {
			st := StatusReady
			if err != nil {
				st = StatusError
			}
			c.entries[k] = &entry{
				status:    st,
				payload:   payload,
				err:       err,
				fetchedAt: c.clock(),
				gen:       gen,
			}
		}
	}
	c.mu.Unlock()

	return payload, err
}

// flight wraps fetch for the singleflight group. It re-checks the entry
// before fetching: a caller that observed a loading entry and reached the
// group after that flight already settled must reuse the stored result of
// its generation rather than issue a second request.
func (c *Cache) flight(ctx context.Context, k key, gen uint64, fetch FetchFunc) func() (any, error) {
	return func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries[k]; ok && e.gen == gen && (e.status == StatusReady || e.status == StatusError) {
			payload, err := e.payload, e.err
			c.mu.Unlock()
			return payload, err
		}
		c.mu.Unlock()
		return fetch(ctx)
	}
}

// Invalidate forces the next Ensure for (view, region) to refetch. It is
// called only on explicit user region or date changes, never automatically.
func (c *Cache) Invalidate(view View, region domain.Region) {
	k := key{view: view, region: region}
	c.mu.Lock()
	c.gens[k]++
	delete(c.entries, k)
	c.mu.Unlock()
	c.group.Forget(groupKey(k))
}

// Status reports the lifecycle state of the entry for (view, region).
func (c *Cache) Status(view View, region domain.Region) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key{view: view, region: region}]; ok {
		return e.status
	}
	return StatusEmpty
}

// FetchedAt returns when the ready/errored entry was stored, or a zero
// time if there is none.
func (c *Cache) FetchedAt(view View, region domain.Region) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key{view: view, region: region}]; ok {
		return e.fetchedAt
	}
	return time.Time{}
}

func groupKey(k key) string {
	return string(k.view) + "|" + string(k.region)
}
