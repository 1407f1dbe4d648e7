package cacher

import (
	"sort"
	"sync"

	"github.com/jonwraymond/normcache/normalization"
)

// Pending is one staged write.
type Pending struct {
	Key    string
	Type   ResourceType
	Object ResourceObject
	Parts  normalization.Parts
}

// Queue holds at most one pending write per key; later puts replace earlier ones.
// It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending map[string]Pending
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[string]Pending)}
}

// Put stages p under p.Key, replacing any earlier write for the same key.
func (q *Queue) Put(p Pending) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[p.Key] = p
}

// Len returns the number of pending writes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain empties the queue and returns its writes ordered by key.
func (q *Queue) Drain() []Pending {
	q.mu.Lock()
	pending := q.pending
	q.pending = make(map[string]Pending)
	q.mu.Unlock()

	out := make([]Pending, 0, len(pending))
	for _, p := range pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
