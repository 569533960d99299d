package providers

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Semaphore bounds concurrent access to a resource. Each provider kind
// (WebSearch, Scrape, LLM) gets its own independent semaphore per the
// concurrency model's per-provider caps (defaults 4/2/4).
type Semaphore struct {
	w *semaphore.Weighted
}

// NewSemaphore creates a semaphore with the given capacity.
func NewSemaphore(n int) Semaphore {
	if n <= 0 {
		n = 1
	}
	return Semaphore{w: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or ctx is done.
func (s Semaphore) Acquire(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// Release frees a slot.
func (s Semaphore) Release() {
	s.w.Release(1)
}

// DefaultWebSearchConcurrency is the default WebSearch semaphore capacity.
const DefaultWebSearchConcurrency = 4

// DefaultScrapeConcurrency is the default Scrape semaphore capacity.
const DefaultScrapeConcurrency = 2

// DefaultLLMConcurrency is the default LLM semaphore capacity.
const DefaultLLMConcurrency = 4
