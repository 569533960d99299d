// Package queue provides the background task queue that drives long-running
// research and discovery work: enqueue, worker-pool claiming, heartbeats,
// and orphan recovery, generalized from the teacher's session queue onto a
// generic storage.Store-backed task document instead of a typed ent model.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrNoTasksAvailable indicates no pending tasks are in the queue.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrAtCapacity indicates the global concurrent task limit has been reached.
	ErrAtCapacity = errors.New("at capacity")
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusTimedOut   TaskStatus = "timed_out"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Kind identifies which engine a task's payload belongs to.
type Kind string

const (
	KindResearch  Kind = "research"
	KindDiscovery Kind = "discovery"
)

// Task is one unit of background work persisted in storage.CollectionTasks.
// Unlike the teacher's AlertSession (a wide typed ent row), everything
// engine-specific lives in Payload/Result — opaque JSON the worker never
// interprets, only the Executor it dispatches to does.
type Task struct {
	ID                 string          `json:"id"`
	UserID              string          `json:"user_id"`
	Kind                Kind            `json:"kind"`
	Status              TaskStatus      `json:"status"`
	Payload             json.RawMessage `json:"payload"`
	Result              json.RawMessage `json:"result,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	PodID               string          `json:"pod_id,omitempty"`
	StartedAt           *time.Time      `json:"started_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	LastInteractionAt   *time.Time      `json:"last_interaction_at,omitempty"`
}

// Executor is the interface for task processing. One implementation per
// Kind (research pipeline, discovery engine); the worker dispatches by
// task.Kind and only handles claiming, heartbeat, terminal status update.
type Executor interface {
	Execute(ctx context.Context, task *Task) *ExecutionResult
}

// ExecutionResult is the terminal state an Executor reports back.
type ExecutionResult struct {
	Status TaskStatus
	Result json.RawMessage
	Error  error
}

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	StoreReachable   bool           `json:"store_reachable"`
	StoreError       string         `json:"store_error,omitempty"`
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	ActiveTasks      int            `json:"active_tasks"`
	MaxConcurrent    int            `json:"max_concurrent"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"` // "idle" or "working"
	CurrentTaskID  string    `json:"current_task_id,omitempty"`
	TasksProcessed int       `json:"tasks_processed"`
	LastActivity   time.Time `json:"last_activity"`
}
