package activity

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// retrySchedule is the §4.7 backoff-before-send for each of the (at most) 5
// delivery attempts for one event/webhook pair.
var retrySchedule = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
}

// DefaultDisabledAfterFailures is the §4.7 default for Webhook.DisabledAfterFailures.
const DefaultDisabledAfterFailures = 5

// DeliveryTimeout bounds a single webhook POST attempt.
const DeliveryTimeout = 10 * time.Second

// Sender performs the actual HTTP delivery of a signed webhook payload. A
// thin seam so tests can substitute a fake instead of standing up a real
// listener for every retry-schedule scenario.
type Sender interface {
	Send(ctx context.Context, url string, body []byte, signature string) (status int, err error)
}

// HTTPSender is the production Sender, backed by net/http.
type HTTPSender struct {
	Client *http.Client
}

func (s *HTTPSender) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: DeliveryTimeout}
}

// Send implements Sender over a real HTTP POST with an X-Signature header
// when signature is non-empty.
func (s *HTTPSender) Send(ctx context.Context, url string, body []byte, signature string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	return resp.StatusCode, nil
}

// Sleeper abstracts the backoff wait between delivery attempts so tests can
// skip real wall-clock sleeps while still observing the schedule used.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

// RealSleeper sleeps for the full duration or until ctx is cancelled.
type RealSleeper struct{}

// Sleep blocks for d or until ctx.Done(), whichever comes first.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Dispatcher delivers ActivityEvents to per-user webhook subscriptions,
// grounded on the teacher's ConnectionManager retry vocabulary and
// pkg/mcp/recovery.go's backoff-schedule shape, composed here with a fixed
// schedule instead of exponential backoff since §4.7 specifies literal
// delays rather than a formula.
type Dispatcher struct {
	Store   storage.Store
	Bus     *Bus
	Sender  Sender
	Sleeper Sleeper
	Clock   clock.Clock

	subscribedUsers map[string]bool

	// webhookLocks serializes the consecutive_failures/active read-modify-
	// write per webhook ID: two events for the same webhook can finish
	// their retry schedules concurrently, and without this a lost update
	// could undercount failures and never reach disabled_after_failures.
	webhookLocks sync.Map // webhook ID -> *sync.Mutex
}

func (d *Dispatcher) lockFor(webhookID string) *sync.Mutex {
	v, _ := d.webhookLocks.LoadOrStore(webhookID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (d *Dispatcher) sender() Sender {
	if d.Sender != nil {
		return d.Sender
	}
	return &HTTPSender{}
}

func (d *Dispatcher) sleeper() Sleeper {
	if d.Sleeper != nil {
		return d.Sleeper
	}
	return RealSleeper{}
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return time.Now()
}

// EnsureSubscribed subscribes the dispatcher to userID's activity stream if
// it has not already done so. Idempotent; safe to call every time a webhook
// is created or updated for a user. Webhooks themselves are re-read from
// storage at delivery time, so no per-webhook registration bookkeeping is
// needed here — only one subscription per user.
func (d *Dispatcher) EnsureSubscribed(userID string) {
	if d.subscribedUsers == nil {
		d.subscribedUsers = make(map[string]bool)
	}
	if d.subscribedUsers[userID] {
		return
	}
	d.subscribedUsers[userID] = true
	d.Bus.Subscribe(userID, "webhook-dispatcher", dispatcherSubscriber{d: d, userID: userID})
}

// dispatcherSubscriber adapts Dispatcher to the Bus's Subscriber interface
// for one user.
type dispatcherSubscriber struct {
	d      *Dispatcher
	userID string
}

// Deliver implements Subscriber: loads this user's active webhooks fresh
// (so CRUD changes since the last event take effect immediately) and fans
// the event out to each matching one, each in its own goroutine so a slow
// or failing webhook never delays the others or the dispatch loop itself.
func (s dispatcherSubscriber) Deliver(event models.ActivityEvent) {
	ctx := context.Background()
	webhooks, err := storage.QueryJSON[models.Webhook](ctx, s.d.Store, storage.CollectionWebhooks, s.userID,
		[]storage.Filter{storage.Eq("active", true)}, nil, 0)
	if err != nil {
		slog.Error("failed to load webhooks for dispatch", "user_id", s.userID, "error", err)
		return
	}
	for _, wh := range webhooks {
		if !wh.Subscribes(event.Type) {
			continue
		}
		go s.d.deliverToWebhook(ctx, wh, event)
	}
}

// deliverToWebhook runs the full (at most 5-attempt) retry schedule for one
// event against one webhook. Retries of this single event are serialized
// (this goroutine blocks through its own sleeps); deliveries to other
// webhooks, or of other events to the same webhook, proceed independently.
func (d *Dispatcher) deliverToWebhook(ctx context.Context, wh models.Webhook, event models.ActivityEvent) {
	body, err := json.Marshal(map[string]any{"event": string(event.Type), "payload": event})
	if err != nil {
		slog.Error("failed to marshal webhook payload", "webhook_id", wh.ID, "error", err)
		return
	}
	signature := sign(wh.Secret, body)

	var lastErr error
	var lastStatus int
	for attempt, delay := range retrySchedule {
		d.sleeper().Sleep(ctx, delay)
		if ctx.Err() != nil {
			return
		}
		attemptCtx, cancel := context.WithTimeout(ctx, DeliveryTimeout)
		status, sendErr := d.sender().Send(attemptCtx, wh.URL, body, signature)
		cancel()
		lastErr, lastStatus = sendErr, status
		if sendErr == nil && status >= 200 && status < 300 {
			d.recordSuccess(ctx, wh)
			return
		}
		slog.Warn("webhook delivery attempt failed", "webhook_id", wh.ID, "attempt", attempt+1, "status", status, "error", sendErr)
	}
	d.recordFailure(ctx, wh, lastStatus, lastErr)
}

// recordSuccess resets consecutive_failures to 0, re-reading the current
// stored webhook under its per-ID lock so a concurrent failure from another
// in-flight event can't be clobbered by this stale snapshot.
func (d *Dispatcher) recordSuccess(ctx context.Context, wh models.Webhook) {
	lock := d.lockFor(wh.ID)
	lock.Lock()
	defer lock.Unlock()

	current := d.reloadOr(ctx, wh)
	current.ConsecutiveFailures = 0
	current.UpdatedAt = d.now()
	if err := storage.PutJSON(ctx, d.Store, storage.CollectionWebhooks, current.UserID, current.ID, &current); err != nil {
		slog.Error("failed to record webhook success", "webhook_id", wh.ID, "error", err)
	}
}

// recordFailure increments consecutive_failures and disables the webhook
// once it reaches disabled_after_failures. Locked and re-read per webhook
// ID for the same reason as recordSuccess: concurrent events retrying
// against the same webhook must not lose each other's increments.
func (d *Dispatcher) recordFailure(ctx context.Context, wh models.Webhook, status int, sendErr error) {
	lock := d.lockFor(wh.ID)
	lock.Lock()
	defer lock.Unlock()

	wh = d.reloadOr(ctx, wh)
	wh.ConsecutiveFailures++
	threshold := wh.DisabledAfterFailures
	if threshold <= 0 {
		threshold = DefaultDisabledAfterFailures
	}
	if wh.ConsecutiveFailures >= threshold {
		wh.Active = false
	}
	wh.UpdatedAt = d.now()
	if err := storage.PutJSON(ctx, d.Store, storage.CollectionWebhooks, wh.UserID, wh.ID, &wh); err != nil {
		slog.Error("failed to record webhook failure", "webhook_id", wh.ID, "error", err)
	}
	if !wh.Active {
		overflow := models.ActivityEvent{
			UserID:    wh.UserID,
			Type:      models.ActivityError,
			Title:     "webhook disabled",
			Message:   fmt.Sprintf("webhook %s disabled after %d consecutive failures (last status %d: %v)", wh.ID, wh.ConsecutiveFailures, status, sendErr),
			Timestamp: d.now(),
		}
		if err := d.Bus.Publish(ctx, overflow); err != nil {
			slog.Error("failed to publish webhook-disabled activity", "webhook_id", wh.ID, "error", err)
		}
	}
}

// reloadOr re-fetches the current stored webhook, falling back to fallback
// if the read fails (e.g. it was deleted between dispatch and this update —
// rare, and the in-memory fallback still lets bookkeeping proceed instead
// of silently dropping the failure/success count).
func (d *Dispatcher) reloadOr(ctx context.Context, fallback models.Webhook) models.Webhook {
	var current models.Webhook
	if err := storage.GetJSON(ctx, d.Store, storage.CollectionWebhooks, fallback.UserID, fallback.ID, &current); err != nil {
		return fallback
	}
	return current
}

// sign returns the hex-encoded HMAC-SHA256 of body keyed by secret, or ""
// when no secret is configured (per §4.7, the header is only set when
// secret is set).
func sign(secret string, body []byte) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
