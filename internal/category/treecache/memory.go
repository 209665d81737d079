// Package treecache provides the single-entry category tree snapshot caches.
package treecache

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/category"
)

// Memory keeps the snapshot in process. It is the default for single-instance deployments.
type Memory struct {
	mu        sync.RWMutex
	tree      *category.Tree
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context) (*category.Tree, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tree == nil || !m.now().Before(m.expiresAt) {
		return nil, false
	}
	return m.tree, true
}

func (m *Memory) Set(_ context.Context, tree *category.Tree) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = tree
	m.expiresAt = m.now().Add(m.ttl)
}

func (m *Memory) Invalidate(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = nil
}
