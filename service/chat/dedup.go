package chat

import (
	lru "github.com/hashicorp/golang-lru"
)

const defaultDedupSize = 1024

// ProcessedSet remembers message ids this instance has already fanned out,
// so overlapping subscription callbacks cannot deliver the same id twice.
// Fixed capacity, oldest entries evicted first.
type ProcessedSet struct {
	cache *lru.Cache
}

func NewProcessedSet(capacity int) *ProcessedSet {
	if capacity <= 0 {
		capacity = defaultDedupSize
	}
	c, _ := lru.New(capacity)
	return &ProcessedSet{cache: c}
}

func (p *ProcessedSet) Seen(id string) bool {
	return p.cache.Contains(id)
}

func (p *ProcessedSet) Mark(id string) {
	p.cache.Add(id, struct{}{})
}

func (p *ProcessedSet) Len() int {
	return p.cache.Len()
}
