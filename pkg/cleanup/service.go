// Package cleanup implements the retention sweep: periodically purging
// documents older than their collection's configured TTL, adapted from the
// teacher's session/event retention loop to this domain's generic
// collection/id document store.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/storage"
)

// sweptCollections are the collections subject to the retention sweep.
// Webhooks and scheduled-topic plans are live configuration, not
// historical events, and are intentionally excluded — they are deleted only
// through their own CRUD endpoints.
var sweptCollections = []string{
	storage.CollectionResearchInsights,
	storage.CollectionProspects,
	storage.CollectionOutreachSequences,
	storage.CollectionContentDrafts,
	storage.CollectionContentMetrics,
	storage.CollectionProspectMetrics,
	storage.CollectionLearningPatterns,
	storage.CollectionActivities,
}

// Service periodically deletes documents whose storage-envelope CreatedAt
// is older than the retention window configured for their collection.
// Safe to run from multiple processes: deleting an absent document is a
// no-op (storage.Store.Delete's contract), so overlapping sweeps never
// race destructively.
type Service struct {
	config *config.RetentionConfig
	store  storage.Store
	clock  clockNow

	cancel context.CancelFunc
	done   chan struct{}
}

// clockNow is the minimal seam cleanup needs — just "what time is it" — so
// tests can freeze it without pulling in the full pkg/clock.Clock interface.
type clockNow func() time.Time

// NewService creates a new cleanup service. now defaults to time.Now when
// nil.
func NewService(cfg *config.RetentionConfig, store storage.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{config: cfg, store: store, clock: now}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"default_ttl", s.config.DefaultTTL,
		"collection_overrides", len(s.config.CollectionTTLs),
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll sweeps every configured collection once.
func (s *Service) runAll(ctx context.Context) {
	for _, collection := range sweptCollections {
		s.sweepCollection(ctx, collection)
	}
}

func (s *Service) sweepCollection(ctx context.Context, collection string) {
	cutoff := s.clock().Add(-s.config.TTLFor(collection))

	docs, err := s.store.QueryAllUsers(ctx, collection, nil, nil, 0)
	if err != nil {
		slog.Error("retention: listing documents failed", "collection", collection, "error", err)
		return
	}

	var deleted int
	for _, doc := range docs {
		if doc.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, collection, doc.UserID, doc.ID); err != nil {
			slog.Error("retention: delete failed", "collection", collection, "user_id", doc.UserID, "id", doc.ID, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		slog.Info("retention: swept collection", "collection", collection, "deleted", deleted)
	}
}
