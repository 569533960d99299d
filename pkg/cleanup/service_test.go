package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/storage"
)

func TestService_SweepsOldDocumentsPastDefaultTTL(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.CollectionResearchInsights, "u1", "old", []byte(`{"topic":"x"}`)))

	now := time.Now()
	cfg := &config.RetentionConfig{DefaultTTL: time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, store, func() time.Time { return now.Add(2 * time.Hour) })
	svc.runAll(ctx)

	_, err := store.Get(ctx, storage.CollectionResearchInsights, "u1", "old")
	require.Error(t, err)
}

func TestService_PreservesDocumentsWithinTTL(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.CollectionResearchInsights, "u1", "recent", []byte(`{"topic":"x"}`)))

	cfg := &config.RetentionConfig{DefaultTTL: 24 * time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, store, time.Now)
	svc.runAll(ctx)

	_, err := store.Get(ctx, storage.CollectionResearchInsights, "u1", "recent")
	require.NoError(t, err)
}

func TestService_AppliesPerCollectionOverride(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.CollectionActivities, "u1", "a1", []byte(`{"type":"research"}`)))
	require.NoError(t, store.Put(ctx, storage.CollectionProspects, "u1", "p1", []byte(`{"name":"x"}`)))

	now := time.Now()
	cfg := &config.RetentionConfig{
		DefaultTTL:      365 * 24 * time.Hour,
		CollectionTTLs:  map[string]time.Duration{storage.CollectionActivities: time.Hour},
		CleanupInterval: time.Hour,
	}
	svc := NewService(cfg, store, func() time.Time { return now.Add(2 * time.Hour) })
	svc.runAll(ctx)

	_, err := store.Get(ctx, storage.CollectionActivities, "u1", "a1")
	assert.Error(t, err, "activity should be swept under its short override TTL")

	_, err = store.Get(ctx, storage.CollectionProspects, "u1", "p1")
	assert.NoError(t, err, "prospect should survive under the long default TTL")
}
