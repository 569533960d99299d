package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/storage"
)

// WorkerPool manages a pool of queue workers claiming tasks from a shared
// storage.Store, generalized from the teacher's ent-backed alert session
// pool onto the generic task document.
type WorkerPool struct {
	podID     string
	store     storage.Store
	config    *config.QueueConfig
	executors map[Kind]Executor
	workers   []*Worker
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// Task cancel registry: task_id → cancel function
	activeTasks map[string]context.CancelFunc
	mu          sync.RWMutex
	started     bool

	// Orphan detection state
	orphans orphanState
}

// NewWorkerPool creates a new worker pool. executors maps each task Kind to
// the engine that processes it (research pipeline, discovery engine).
func NewWorkerPool(podID string, store storage.Store, cfg *config.QueueConfig, executors map[Kind]Executor) *WorkerPool {
	return &WorkerPool{
		podID:       podID,
		store:       store,
		config:      cfg,
		executors:   executors,
		workers:     make([]*Worker, 0, cfg.WorkerCount),
		stopCh:      make(chan struct{}),
		activeTasks: make(map[string]context.CancelFunc),
	}
}

// Start spawns worker goroutines and the orphan detection background task.
// It is safe to call multiple times; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.started {
		slog.Warn("Worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return nil
	}
	p.started = true

	slog.Info("Starting worker pool", "pod_id", p.podID, "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.podID, i)
		worker := NewWorker(workerID, p.podID, p.store, p.config, p.executors, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()

	slog.Info("Worker pool started")
	return nil
}

// Stop signals all workers to stop and waits for them to finish. Workers
// finish their current task before exiting (graceful shutdown).
func (p *WorkerPool) Stop() {
	slog.Info("Stopping worker pool gracefully")

	active := p.getActiveTaskIDs()
	if len(active) > 0 {
		slog.Info("Waiting for active tasks to complete", "count", len(active), "task_ids", active)
	}

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()

	slog.Info("Worker pool stopped gracefully")
}

// RegisterTask stores a cancel function for manual cancellation.
func (p *WorkerPool) RegisterTask(taskID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeTasks[taskID] = cancel
}

// UnregisterTask removes the cancel function when processing ends.
func (p *WorkerPool) UnregisterTask(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeTasks, taskID)
}

// CancelTask triggers context cancellation for a task on this pod. Returns
// true if the task was found and cancelled on this pod.
func (p *WorkerPool) CancelTask(taskID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeTasks[taskID]; ok {
		cancel()
		return true
	}
	return false
}

// Health returns the current health status of the pool.
func (p *WorkerPool) Health() *PoolHealth {
	ctx := context.Background()

	queueDepth, errQ := p.store.QueryAllUsers(ctx, storage.CollectionTasks,
		[]storage.Filter{storage.Eq("status", string(TaskStatusPending))}, nil, 0)
	if errQ != nil {
		slog.Error("Failed to query queue depth for health check", "pod_id", p.podID, "error", errQ)
	}

	activeTasks, errA := p.store.QueryAllUsers(ctx, storage.CollectionTasks,
		[]storage.Filter{
			storage.Eq("status", string(TaskStatusInProgress)),
			storage.Eq("pod_id", p.podID),
		}, nil, 0)
	if errA != nil {
		slog.Error("Failed to query active tasks for health check", "pod_id", p.podID, "error", errA)
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	storeHealthy := errQ == nil && errA == nil
	isHealthy := len(p.workers) > 0 && len(activeTasks) <= p.config.MaxConcurrentTasks && storeHealthy

	p.orphans.mu.Lock()
	lastOrphanScan := p.orphans.lastOrphanScan
	orphansRecovered := p.orphans.orphansRecovered
	p.orphans.mu.Unlock()

	var storeError string
	if !storeHealthy {
		switch {
		case errQ != nil:
			storeError = fmt.Sprintf("queue depth query failed: %v", errQ)
		case errA != nil:
			storeError = fmt.Sprintf("active tasks query failed: %v", errA)
		}
	}

	return &PoolHealth{
		IsHealthy:        isHealthy,
		StoreReachable:   storeHealthy,
		StoreError:       storeError,
		PodID:            p.podID,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		ActiveTasks:      len(activeTasks),
		MaxConcurrent:    p.config.MaxConcurrentTasks,
		QueueDepth:       len(queueDepth),
		WorkerStats:      workerStats,
		LastOrphanScan:   lastOrphanScan,
		OrphansRecovered: orphansRecovered,
	}
}

func (p *WorkerPool) getActiveTaskIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tasks := make([]string, 0, len(p.activeTasks))
	for id := range p.activeTasks {
		tasks = append(tasks, id)
	}
	return tasks
}
