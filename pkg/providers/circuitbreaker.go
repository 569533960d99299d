package providers

import (
	"net/url"
	"sync"
	"time"

	"github.com/outreachforge/prospector/pkg/clock"
)

// HostBreaker is a per-host circuit breaker: after C consecutive failures
// against a host it trips into cooldown and rejects calls until the
// cooldown elapses. After that, calls are allowed through again until the
// next failure re-trips it; concurrent calls are not limited to one probe.
type HostBreaker struct {
	mu       sync.Mutex
	clock    clock.Clock
	failures int
	limit    int
	cooldown time.Duration
	states   map[string]*hostState
}

type hostState struct {
	consecutiveFailures int
	trippedUntil        time.Time
}

// NewHostBreaker builds a breaker tripping after limit consecutive failures
// per host, with the given cooldown before a probe is allowed.
func NewHostBreaker(limit int, cooldown time.Duration, c clock.Clock) *HostBreaker {
	if limit <= 0 {
		limit = 2
	}
	if c == nil {
		c = clock.Real{}
	}
	return &HostBreaker{limit: limit, cooldown: cooldown, clock: c, states: make(map[string]*hostState)}
}

// Allow reports whether a call to rawURL's host may proceed.
func (b *HostBreaker) Allow(rawURL string) bool {
	host := hostOf(rawURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[host]
	if !ok {
		return true
	}
	if st.consecutiveFailures < b.limit {
		return true
	}
	return b.clock.Now().After(st.trippedUntil)
}

// RecordSuccess resets a host's failure count.
func (b *HostBreaker) RecordSuccess(rawURL string) {
	host := hostOf(rawURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[host]; ok {
		st.consecutiveFailures = 0
	}
}

// RecordFailure increments a host's failure count, tripping the breaker once
// the limit is reached.
func (b *HostBreaker) RecordFailure(rawURL string) {
	host := hostOf(rawURL)
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[host]
	if !ok {
		st = &hostState{}
		b.states[host] = st
	}
	st.consecutiveFailures++
	if st.consecutiveFailures >= b.limit {
		st.trippedUntil = b.clock.Now().Add(b.cooldown)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
