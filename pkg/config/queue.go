package config

import "time"

// QueueConfig controls how research/discovery tasks are polled, claimed, and
// processed by the worker pool, adapted from the teacher's session queue
// config to this domain's task shape (one task = one topic/prospect unit of
// work rather than one alert session).
type QueueConfig struct {
	// WorkerCount is the number of worker goroutines per process.
	WorkerCount int `yaml:"worker_count" validate:"min=1,max=50"`

	// MaxConcurrentTasks is the global limit on concurrently-processing
	// tasks across all replicas, enforced by a storage-backed count check.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks" validate:"min=1"`

	// PollInterval is the base interval for checking pending tasks.
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`

	// PollIntervalJitter is random jitter added to PollInterval so workers
	// across replicas don't all poll in lockstep.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter" validate:"gte=0"`

	// TaskTimeout is the maximum time a single task may run before it is
	// considered stuck and force-failed.
	TaskTimeout time.Duration `yaml:"task_timeout" validate:"gt=0"`

	// GracefulShutdownTimeout is the max time to wait for in-flight tasks
	// to finish during shutdown. Should match TaskTimeout.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout" validate:"gt=0"`

	// OrphanDetectionInterval is how often to scan for orphaned tasks —
	// tasks claimed by a worker that has since stopped heartbeating.
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval" validate:"gt=0"`

	// OrphanThreshold is how long a task can go without a heartbeat before
	// it is considered orphaned and marked timed_out.
	OrphanThreshold time.Duration `yaml:"orphan_threshold" validate:"gt=0"`

	// HeartbeatInterval is how often a worker writes a liveness heartbeat
	// for the task it currently holds. The teacher's validator.go and
	// worker.go both reference this field on QueueConfig, but the
	// teacher's own queue.go never declared it — restored here so the
	// heartbeat-vs-orphan-threshold invariant actually has something to
	// check.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gt=0"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             5,
		MaxConcurrentTasks:      10,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		TaskTimeout:             10 * time.Minute,
		GracefulShutdownTimeout: 10 * time.Minute,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         5 * time.Minute,
		HeartbeatInterval:       30 * time.Second,
	}
}
