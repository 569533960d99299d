package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/storage"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker is a single queue worker that polls for and processes tasks.
type Worker struct {
	id        string
	podID     string
	store     storage.Store
	config    *config.QueueConfig
	executors map[Kind]Executor
	pool      TaskRegistry
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// Health tracking
	mu             sync.RWMutex
	status         WorkerStatus
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

// TaskRegistry is the subset of WorkerPool used by Worker for cancel-function
// registration.
type TaskRegistry interface {
	RegisterTask(taskID string, cancel context.CancelFunc)
	UnregisterTask(taskID string)
}

// NewWorker creates a new queue worker.
func NewWorker(id, podID string, store storage.Store, cfg *config.QueueConfig, executors map[Kind]Executor, pool TaskRegistry) *Worker {
	return &Worker{
		id:           id,
		podID:        podID,
		store:        store,
		config:       cfg,
		executors:    executors,
		pool:         pool,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         string(w.status),
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing task", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks capacity, claims a task, and processes it.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	activeTasks, err := w.store.QueryAllUsers(ctx, storage.CollectionTasks,
		[]storage.Filter{storage.Eq("status", string(TaskStatusInProgress))}, nil, 0)
	if err != nil {
		return fmt.Errorf("checking active tasks: %w", err)
	}
	if len(activeTasks) >= w.config.MaxConcurrentTasks {
		return ErrAtCapacity
	}

	task, err := w.claimNextTask(ctx)
	if err != nil {
		return err
	}

	log := slog.With("task_id", task.ID, "kind", task.Kind, "worker_id", w.id)
	log.Info("task claimed")

	executor, ok := w.executors[task.Kind]
	if !ok {
		return w.failUnknownKind(ctx, task)
	}

	w.setStatus(WorkerStatusWorking, task.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	taskCtx, cancelTask := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancelTask()

	w.pool.RegisterTask(task.ID, cancelTask)
	defer w.pool.UnregisterTask(task.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(taskCtx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, task)

	result := executor.Execute(taskCtx, task)

	if result == nil {
		result = w.syntheticResult(taskCtx)
	}
	if result.Status == "" {
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) || errors.Is(taskCtx.Err(), context.Canceled) {
			result = w.syntheticResult(taskCtx)
		} else {
			result = &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("executor returned an empty status")}
		}
	}

	cancelHeartbeat()

	if err := w.updateTerminalStatus(context.Background(), task, result); err != nil {
		log.Error("failed to update task terminal status", "error", err)
		return err
	}

	w.mu.Lock()
	w.tasksProcessed++
	w.mu.Unlock()

	log.Info("task processing complete", "status", result.Status)
	return nil
}

func (w *Worker) syntheticResult(ctx context.Context) *ExecutionResult {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &ExecutionResult{Status: TaskStatusTimedOut, Error: fmt.Errorf("task timed out after %v", w.config.TaskTimeout)}
	case errors.Is(ctx.Err(), context.Canceled):
		return &ExecutionResult{Status: TaskStatusCancelled, Error: context.Canceled}
	default:
		return &ExecutionResult{Status: TaskStatusFailed, Error: fmt.Errorf("executor returned a nil result")}
	}
}

func (w *Worker) failUnknownKind(ctx context.Context, task *Task) error {
	task.Status = TaskStatusFailed
	task.ErrorMessage = fmt.Sprintf("no executor registered for task kind %q", task.Kind)
	now := time.Now()
	task.CompletedAt = &now
	return putTask(ctx, w.store, task)
}

// claimNextTask atomically claims the oldest pending task via
// storage.Store.ClaimNext.
func (w *Worker) claimNextTask(ctx context.Context) (*Task, error) {
	doc, ok, err := w.store.ClaimNext(ctx, storage.CollectionTasks, "status",
		string(TaskStatusPending), string(TaskStatusInProgress), w.podID)
	if err != nil {
		return nil, fmt.Errorf("claiming next task: %w", err)
	}
	if !ok {
		return nil, ErrNoTasksAvailable
	}

	task, err := decodeTask(doc)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.PodID = w.podID
	task.StartedAt = &now
	task.LastInteractionAt = &now
	if err := putTask(ctx, w.store, task); err != nil {
		return nil, fmt.Errorf("stamping claimed task: %w", err)
	}
	return task, nil
}

// runHeartbeat periodically refreshes last_interaction_at for orphan detection.
func (w *Worker) runHeartbeat(ctx context.Context, task *Task) {
	ticker := time.NewTicker(w.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			task.LastInteractionAt = &now
			if err := putTask(ctx, w.store, task); err != nil {
				slog.Warn("heartbeat update failed", "task_id", task.ID, "error", err)
			}
		}
	}
}

func (w *Worker) updateTerminalStatus(ctx context.Context, task *Task, result *ExecutionResult) error {
	task.Status = result.Status
	task.Result = result.Result
	if result.Error != nil {
		task.ErrorMessage = result.Error.Error()
	}
	now := time.Now()
	task.CompletedAt = &now
	return putTask(ctx, w.store, task)
}

// pollInterval returns the poll duration with jitter.
func (w *Worker) pollInterval() time.Duration {
	base := w.config.PollInterval
	jitter := w.config.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setStatus(status WorkerStatus, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}
