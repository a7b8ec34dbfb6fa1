package service

import (
	"sort"
	"sync"
)

// BookmarkSet is an in-memory set of entity ids. It is not persisted and
// lives as long as the façade that owns it.
type BookmarkSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewBookmarkSet() *BookmarkSet {
	return &BookmarkSet{ids: make(map[string]struct{})}
}

func (b *BookmarkSet) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[id]
	return ok
}

// Toggle adds id if absent and removes it otherwise. It returns whether id
// is bookmarked afterwards.
func (b *BookmarkSet) Toggle(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ids[id]; ok {
		delete(b.ids, id)
		return false
	}
	b.ids[id] = struct{}{}
	return true
}

// IDs returns the bookmarked ids in sorted order.
func (b *BookmarkSet) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.ids))
	for id := range b.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (b *BookmarkSet) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}
