package trains

import (
	"sort"
	"sync"
	"time"
)

// Cache is the single shared store of upcoming trains. The realtime listener
// and the timetable loader both write into it; only List evicts. Every
// read-modify-write happens under one lock acquisition so an eviction scan can
// never interleave with a concurrent writer.
type Cache struct {
	mu     sync.Mutex
	trains map[string]*Train

	pastGrace time.Duration
	horizon   time.Duration

	feedConnected     bool
	lastTimetableLoad time.Time
}

// Snapshot is the entire surface the query layer needs: the windowed train
// list plus connectivity and freshness flags.
type Snapshot struct {
	Trains            []*Train
	GeneratedAt       time.Time
	FeedConnected     bool
	LastTimetableLoad time.Time
}

func NewCache(pastGrace time.Duration, horizon time.Duration) *Cache {
	if pastGrace == 0 {
		pastGrace = DefaultPastGrace
	}
	if horizon == 0 {
		horizon = DefaultHorizon
	}

	return &Cache{
		trains:    map[string]*Train{},
		pastGrace: pastGrace,
		horizon:   horizon,
	}
}

// Upsert inserts or overwrites the entry for train.RID. Re-ingesting the same
// schedule is idempotent.
func (c *Cache) Upsert(train *Train) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trains[train.RID] = train
}

// Amend runs fn against the existing entry for rid under the cache lock.
// Returns false, without creating anything, when rid is unknown.
func (c *Cache) Amend(rid string, fn func(*Train)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	train, ok := c.trains[rid]
	if !ok {
		return false
	}

	fn(train)

	return true
}

// List evicts every entry older than the past-grace window and returns the
// remainder up to the forward horizon, soonest first. Eviction and query share
// one lock hold so callers never see a train a concurrent call just evicted.
// Returned trains are copies; amendments landing after List never reach a
// slice a caller already holds.
func (c *Cache) List(now time.Time) []*Train {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listLocked(now)
}

func (c *Cache) listLocked(now time.Time) []*Train {
	cutoffPast := now.Add(-c.pastGrace)
	cutoffFuture := now.Add(c.horizon)

	for rid, train := range c.trains {
		if train.ScheduledAt.Before(cutoffPast) {
			delete(c.trains, rid)
		}
	}

	upcoming := []*Train{}
	for _, train := range c.trains {
		if !train.ScheduledAt.After(cutoffFuture) {
			upcoming = append(upcoming, train.Clone())
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
	})

	return upcoming
}

func (c *Cache) Snapshot(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Trains:            c.listLocked(now),
		GeneratedAt:       now,
		FeedConnected:     c.feedConnected,
		LastTimetableLoad: c.lastTimetableLoad,
	}
}

func (c *Cache) SetFeedConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.feedConnected = connected
}

func (c *Cache) MarkTimetableLoad(loadedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastTimetableLoad = loadedAt
}

// Counts returns the stopping/passing split of everything currently cached,
// without evicting.
func (c *Cache) Counts() (stopping int, passing int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, train := range c.trains {
		if train.Kind == KindStopping {
			stopping++
		} else {
			passing++
		}
	}

	return stopping, passing
}
