package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/outreachforge/prospector/pkg/storage"
)

// orphanState tracks orphan detection metrics (thread-safe).
type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// runOrphanDetection periodically scans for orphaned tasks. All pods run
// this independently — operations are idempotent.
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.config.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("orphan detection failed", "error", err)
			}
		}
	}
}

// detectAndRecoverOrphans finds in_progress tasks with stale heartbeats and
// marks them timed_out (terminal state).
func (p *WorkerPool) detectAndRecoverOrphans(ctx context.Context) error {
	inProgress, err := p.store.QueryAllUsers(ctx, storage.CollectionTasks,
		[]storage.Filter{storage.Eq("status", string(TaskStatusInProgress))}, nil, 0)
	if err != nil {
		return fmt.Errorf("querying in-progress tasks: %w", err)
	}

	threshold := time.Now().Add(-p.config.OrphanThreshold)
	var orphans []*Task
	for _, doc := range inProgress {
		task, err := decodeTask(doc)
		if err != nil {
			slog.Error("orphan scan: failed to decode task", "id", doc.ID, "error", err)
			continue
		}
		if task.LastInteractionAt != nil && task.LastInteractionAt.Before(threshold) {
			orphans = append(orphans, task)
		}
	}

	if len(orphans) == 0 {
		p.orphans.mu.Lock()
		p.orphans.lastOrphanScan = time.Now()
		p.orphans.mu.Unlock()
		return nil
	}

	slog.Warn("detected orphaned tasks", "count", len(orphans))

	recovered, failed := 0, 0
	for _, task := range orphans {
		if err := p.recoverOrphanedTask(ctx, task); err != nil {
			slog.Error("failed to recover orphaned task", "task_id", task.ID, "error", err)
			failed++
			continue
		}
		recovered++
	}

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	p.orphans.orphansRecovered += recovered
	p.orphans.mu.Unlock()

	if failed > 0 {
		slog.Warn("orphan recovery completed with failures",
			"total_orphans", len(orphans), "recovered", recovered, "failed", failed)
	}

	return nil
}

func (p *WorkerPool) recoverOrphanedTask(ctx context.Context, task *Task) error {
	log := slog.With("task_id", task.ID, "old_pod_id", task.PodID)

	lastHeartbeat := "unknown"
	if task.LastInteractionAt != nil {
		lastHeartbeat = task.LastInteractionAt.Format(time.RFC3339)
	}

	errMsg := fmt.Sprintf("orphaned: no heartbeat from pod %s since %s", task.PodID, lastHeartbeat)
	if err := markTaskTimedOut(ctx, p.store, task, errMsg); err != nil {
		return err
	}

	log.Warn("orphaned task marked as timed_out", "last_heartbeat", lastHeartbeat)
	return nil
}

// CleanupStartupOrphans performs a one-time cleanup of tasks owned by this
// pod that were in-progress when the pod previously crashed. Called once
// during startup, before the worker pool begins processing.
func CleanupStartupOrphans(ctx context.Context, store storage.Store, podID string) error {
	inProgress, err := store.QueryAllUsers(ctx, storage.CollectionTasks,
		[]storage.Filter{
			storage.Eq("status", string(TaskStatusInProgress)),
			storage.Eq("pod_id", podID),
		}, nil, 0)
	if err != nil {
		return fmt.Errorf("querying startup orphans: %w", err)
	}
	if len(inProgress) == 0 {
		return nil
	}

	slog.Warn("found startup orphans from previous run", "pod_id", podID, "count", len(inProgress))

	for _, doc := range inProgress {
		task, err := decodeTask(doc)
		if err != nil {
			slog.Error("failed to decode startup orphan", "id", doc.ID, "error", err)
			continue
		}
		errMsg := fmt.Sprintf("orphaned: pod %s restarted while task was in progress", podID)
		if err := markTaskTimedOut(ctx, store, task, errMsg); err != nil {
			slog.Error("failed to mark startup orphan", "task_id", task.ID, "error", err)
			continue
		}
		slog.Info("startup orphan recovered", "task_id", task.ID)
	}

	return nil
}

func markTaskTimedOut(ctx context.Context, store storage.Store, task *Task, errMsg string) error {
	now := time.Now()
	task.Status = TaskStatusTimedOut
	task.CompletedAt = &now
	task.ErrorMessage = errMsg
	return putTask(ctx, store, task)
}
