package pubgallery

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/hydrate"
)

// ErrNotFound is returned when a requested manifest or upload does not exist.
var ErrNotFound = sql.ErrNoRows

type manifestKey struct {
	folder string
	mode   string
	limit  int
}

func (k manifestKey) String() string {
	return k.folder + "|" + k.mode + "|" + strconv.Itoa(k.limit)
}

type cachedManifest struct {
	m       Manifest
	fetched time.Time
}

// ManifestCache answers manifest lookups from memory, then SQLite, then a
// fresh discovery run. Concurrent misses for the same key share one run.
//
// Every folder has a generation that Invalidate bumps. A run started under
// an older generation still answers its callers but never reaches memory or
// SQLite, and later lookups start a run of their own.
type ManifestCache struct {
	mu      sync.RWMutex
	entries map[manifestKey]cachedManifest
	gens    map[string]uint64
	ttl     time.Duration
	store   *Store
	disc    *discovery.Discoverer
	group   singleflight.Group
	log     discovery.Logger
	now     func() time.Time

	// commitMu orders result writes against Invalidate.
	commitMu sync.Mutex
}

// NewManifestCache creates a ManifestCache. store may be nil to skip
// persistence.
func NewManifestCache(s *Store, d *discovery.Discoverer, ttl time.Duration, log discovery.Logger) *ManifestCache {
	if log == nil {
		log = discovery.Nop()
	}
	return &ManifestCache{
		entries: make(map[manifestKey]cachedManifest),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		store:   s,
		disc:    d,
		log:     log,
		now:     time.Now,
	}
}

func (c *ManifestCache) fresh(t time.Time) bool {
	return c.now().Sub(t) < c.ttl
}

// Get returns the manifest for folder. hint bounds the scan as in
// Discoverer.Limit.
func (c *ManifestCache) Get(ctx context.Context, folder string, pairs bool, hint int) (Manifest, error) {
	key := manifestKey{folder: folder, mode: modeOf(pairs), limit: c.disc.Limit(hint)}

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gens[folder]
	c.mu.RUnlock()
	if ok && c.fresh(e.fetched) {
		return e.m, nil
	}

	v, err, _ := c.group.Do(flightKey(key, gen), func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, gen)
	})
	if err != nil {
		return Manifest{}, err
	}
	return v.(Manifest), nil
}

func flightKey(key manifestKey, gen uint64) string {
	return key.String() + "|" + strconv.FormatUint(gen, 10)
}

func (c *ManifestCache) load(ctx context.Context, key manifestKey, gen uint64) (Manifest, error) {
	if c.store != nil {
		m, err := c.store.GetManifest(key.folder, key.mode, key.limit)
		switch {
		case err == nil && c.fresh(m.DiscoveredAt):
			c.commit(key, gen, m, false)
			return m, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			// Unreadable rows are rediscovered.
			c.log.Warnf("manifest %s: read: %v", key, err)
		}
	}

	m := c.discover(ctx, key)
	c.commit(key, gen, m, true)
	return m, nil
}

// commit remembers m, and stores it when persist is set, unless folder was
// invalidated after gen was read.
func (c *ManifestCache) commit(key manifestKey, gen uint64, m Manifest, persist bool) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	c.mu.RLock()
	current := c.gens[key.folder]
	c.mu.RUnlock()
	if current != gen {
		c.log.Debugf("manifest %s: invalidated during load, dropping result", key)
		return
	}
	if persist && c.store != nil {
		if err := c.store.SaveManifest(m); err != nil {
			c.log.Warnf("manifest %s: save: %v", key, err)
		}
	}
	c.remember(key, m)
}

func (c *ManifestCache) discover(ctx context.Context, key manifestKey) Manifest {
	d := *c.disc
	probes := 0
	d.Prober = &discovery.CountingProber{
		Prober:  c.disc.Prober,
		Observe: func(string, bool) { probes++ },
	}
	var entries []discovery.Pair
	if key.mode == ModePairs {
		entries = d.DiscoverPairs(ctx, key.folder, key.limit)
	} else {
		entries = discovery.Singles(d.Discover(ctx, key.folder, key.limit))
	}
	if entries == nil {
		entries = []discovery.Pair{}
	}
	c.log.Infof("discovered %s (%s): %d entries in %d probes", key.folder, key.mode, len(entries), probes)
	return Manifest{
		Folder:       key.folder,
		Mode:         key.mode,
		Limit:        key.limit,
		Entries:      entries,
		Probes:       probes,
		DiscoveredAt: c.now(),
	}
}

func (c *ManifestCache) remember(key manifestKey, m Manifest) {
	c.mu.Lock()
	c.entries[key] = cachedManifest{m: m, fetched: m.DiscoveredAt}
	c.mu.Unlock()
}

// Invalidate drops every cached and stored manifest of folder so the next
// read rediscovers it. Runs already in flight for folder are not reused.
func (c *ManifestCache) Invalidate(folder string) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	c.mu.Lock()
	// The flight key carries the generation, so the bump alone detaches
	// lookups from runs already in flight.
	c.gens[folder]++
	for k := range c.entries {
		if k.folder == folder {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.DeleteManifests(folder)
}

// First implements hydrate.Source. A cached manifest answers without
// probing; otherwise only index 1 is resolved.
func (c *ManifestCache) First(ctx context.Context, card hydrate.Card) (discovery.Pair, bool) {
	key := manifestKey{folder: card.Folder, mode: modeOf(card.Pairs), limit: c.disc.Limit(card.Count)}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e.fetched) {
		if len(e.m.Entries) == 0 {
			return discovery.Pair{}, false
		}
		return e.m.Entries[0], true
	}
	return hydrate.DiscovererSource{Discoverer: c.disc}.First(ctx, card)
}

// All implements hydrate.Source.
func (c *ManifestCache) All(ctx context.Context, card hydrate.Card) []discovery.Pair {
	m, err := c.Get(ctx, card.Folder, card.Pairs, card.Count)
	if err != nil {
		c.log.Errorf("manifest %s: %v", card.Folder, err)
		return nil
	}
	return m.Entries
}
