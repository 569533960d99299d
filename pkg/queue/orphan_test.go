package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/storage"
)

func TestDetectAndRecoverOrphans_MarksStaleTasksTimedOut(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := t.Context()

	stale := time.Now().Add(-10 * time.Minute)
	task := &Task{ID: "t1", UserID: "u1", Status: TaskStatusInProgress, PodID: "dead-pod", LastInteractionAt: &stale}
	require.NoError(t, putTask(ctx, store, task))

	pool := &WorkerPool{store: store, config: &config.QueueConfig{OrphanThreshold: 5 * time.Minute}}
	require.NoError(t, pool.detectAndRecoverOrphans(ctx))

	got, err := Get(ctx, store, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusTimedOut, got.Status)
	assert.Contains(t, got.ErrorMessage, "orphaned")
}

func TestDetectAndRecoverOrphans_LeavesFreshHeartbeatAlone(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := t.Context()

	fresh := time.Now()
	task := &Task{ID: "t1", UserID: "u1", Status: TaskStatusInProgress, PodID: "pod-1", LastInteractionAt: &fresh}
	require.NoError(t, putTask(ctx, store, task))

	pool := &WorkerPool{store: store, config: &config.QueueConfig{OrphanThreshold: 5 * time.Minute}}
	require.NoError(t, pool.detectAndRecoverOrphans(ctx))

	got, err := Get(ctx, store, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInProgress, got.Status)
}

func TestCleanupStartupOrphans_RecoversOnlyThisPod(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, putTask(ctx, store, &Task{ID: "t1", UserID: "u1", Status: TaskStatusInProgress, PodID: "pod-1"}))
	require.NoError(t, putTask(ctx, store, &Task{ID: "t2", UserID: "u1", Status: TaskStatusInProgress, PodID: "pod-2"}))

	require.NoError(t, CleanupStartupOrphans(ctx, store, "pod-1"))

	t1, err := Get(ctx, store, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusTimedOut, t1.Status)

	t2, err := Get(ctx, store, "u1", "t2")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInProgress, t2.Status, "a different pod's in-progress task must be left alone")
}
