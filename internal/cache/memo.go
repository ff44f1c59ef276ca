// Package cache memoizes collaborator results for repeated actions on the
// same text.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize keeps only the most recent entry.
const DefaultSize = 1

// Memo is a bounded, concurrency-safe cache. When full, the least recently
// used key is evicted.
type Memo struct {
	entries *lru.Cache[string, string]
}

// NewMemo creates a memo holding at most size entries.
func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Memo{entries: entries}, nil
}

// Get returns the cached value for key.
func (m *Memo) Get(key string) (string, bool) {
	return m.entries.Get(key)
}

// Put stores value under key.
func (m *Memo) Put(key, value string) {
	m.entries.Add(key, value)
}

// Invalidate drops key.
func (m *Memo) Invalidate(key string) {
	m.entries.Remove(key)
}

// Purge drops every entry.
func (m *Memo) Purge() {
	m.entries.Purge()
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	return m.entries.Len()
}
