// Package cache holds the solver's caches: per-worker search memos and a
// process-wide cache of bit tables loaded from disk.
package cache

import (
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/domino14/pcsolver/bittable"
)

type loadFunc func(path string, capacity int) (*bittable.Table, error)

// Tables shares read-only bit tables between workers. Tables are kept until
// the byte budget is spent; later loads are handed out uncached.
type Tables struct {
	sync.Mutex
	objects map[string]*bittable.Table
	missing map[string]struct{}
	load    loadFunc
	flights singleflight.Group

	budget uint64
	used   uint64

	loads       atomic.Uint64
	hits        atomic.Uint64
	missingHits atomic.Uint64
}

// NewTables budgets fractionOfMemory of system memory for cached tables.
func NewTables(fractionOfMemory float64) *Tables {
	return &Tables{
		objects: make(map[string]*bittable.Table),
		missing: make(map[string]struct{}),
		load:    bittable.Load,
		budget:  uint64(fractionOfMemory * float64(memory.TotalMemory())),
	}
}

// Get returns the table stored at path. ok is false when no such file
// exists; that is a normal state while tables are still being built.
// Concurrent calls for one path share a single load; loads of different
// paths run in parallel.
func (c *Tables) Get(path string, capacity int) (t *bittable.Table, ok bool, err error) {
	if t, ok, hit := c.lookup(path); hit {
		return t, ok, nil
	}
	v, err, _ := c.flights.Do(path, func() (any, error) {
		if t, _, hit := c.lookup(path); hit {
			return t, nil
		}
		return c.loadAndKeep(path, capacity)
	})
	if err != nil {
		return nil, false, err
	}
	t = v.(*bittable.Table)
	return t, t != nil, nil
}

func (c *Tables) lookup(path string) (t *bittable.Table, ok, hit bool) {
	c.Lock()
	defer c.Unlock()
	if t, ok := c.objects[path]; ok {
		c.hits.Add(1)
		return t, true, true
	}
	if _, ok := c.missing[path]; ok {
		c.missingHits.Add(1)
		return nil, false, true
	}
	return nil, false, false
}

// loadAndKeep reads path without holding the lock. A missing file yields a
// nil table.
func (c *Tables) loadAndKeep(path string, capacity int) (*bittable.Table, error) {
	log.Debug().Str("path", path).Msg("loading-table")
	t, err := c.load(path, capacity)
	if errors.Is(err, fs.ErrNotExist) {
		c.Lock()
		c.missing[path] = struct{}{}
		c.Unlock()
		log.Warn().Str("path", path).Msg("missing-table")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.loads.Add(1)
	size := uint64(t.Len()) * 8
	c.Lock()
	if c.used+size <= c.budget {
		c.objects[path] = t
		c.used += size
	}
	c.Unlock()
	return t, nil
}

// Missing is the number of distinct absent tables asked for.
func (c *Tables) Missing() int {
	c.Lock()
	defer c.Unlock()
	return len(c.missing)
}

func (c *Tables) LogStats() {
	c.Lock()
	defer c.Unlock()
	log.Info().
		Int("cached", len(c.objects)).
		Int("missing", len(c.missing)).
		Uint64("loads", c.loads.Load()).
		Uint64("hits", c.hits.Load()).
		Uint64("missing-hits", c.missingHits.Load()).
		Uint64("bytes-used", c.used).
		Uint64("bytes-budget", c.budget).
		Msg("table-cache-stats")
}
