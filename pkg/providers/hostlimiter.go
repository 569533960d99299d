package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a minimum gap between the starts of consecutive
// requests to the same host. It does not cap per-host concurrency: a request
// admitted after the gap may overlap one to the same host still in flight.
type HostLimiter struct {
	mu       sync.Mutex
	gap      time.Duration
	limiters map[string]*rate.Limiter
}

// NewHostLimiter builds a limiter enforcing the given minimum gap between
// requests to the same host.
func NewHostLimiter(minGap time.Duration) *HostLimiter {
	if minGap <= 0 {
		minGap = 500 * time.Millisecond
	}
	return &HostLimiter{gap: minGap, limiters: make(map[string]*rate.Limiter)}
}

// Wait blocks until a slot for rawURL's host is available, or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.gap), 1)
		h.limiters[host] = l
	}
	h.mu.Unlock()
	return l.Wait(ctx)
}
