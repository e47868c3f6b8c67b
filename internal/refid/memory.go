package refid

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAllocator numbers references in process, for local runs and tests.
type MemoryAllocator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

var _ Allocator = (*MemoryAllocator)(nil)

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{seqs: make(map[string]int64)}
}

func (a *MemoryAllocator) Allocate(_ context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("refid: prefix required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seqs[prefix]++
	return Format(prefix, a.seqs[prefix]), nil
}
