package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an in-process Guard for local runs and tests.
type MemoryGuard struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

var _ Guard = (*MemoryGuard)(nil)

func NewMemoryGuard(retention time.Duration) *MemoryGuard {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryGuard{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source for tests.
func (g *MemoryGuard) SetClock(now func() time.Time) { g.now = now }

func (g *MemoryGuard) key(channel, messageID string) string {
	return channel + "|" + messageID
}

func (g *MemoryGuard) AlreadyProcessed(_ context.Context, channel, messageID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	at, ok := g.seen[g.key(channel, messageID)]
	if !ok {
		return false, nil
	}
	if g.now().Sub(at) >= g.retention {
		delete(g.seen, g.key(channel, messageID))
		return false, nil
	}
	return true, nil
}

func (g *MemoryGuard) MarkProcessed(_ context.Context, channel, messageID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := g.key(channel, messageID)
	if at, ok := g.seen[k]; ok && g.now().Sub(at) < g.retention {
		return false, nil
	}
	g.seen[k] = g.now()
	return true, nil
}

// Sweep drops expired entries.
func (g *MemoryGuard) Sweep(_ context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var deleted int64
	for k, at := range g.seen {
		if g.now().Sub(at) >= g.retention {
			delete(g.seen, k)
			deleted++
		}
	}
	return deleted, nil
}
