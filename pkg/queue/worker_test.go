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

func testQueueConfig() *config.QueueConfig {
	return &config.QueueConfig{
		WorkerCount:             5,
		MaxConcurrentTasks:      5,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		TaskTimeout:             15 * time.Minute,
		GracefulShutdownTimeout: 15 * time.Minute,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         5 * time.Minute,
		HeartbeatInterval:       30 * time.Second,
	}
}

func TestWorkerPollInterval(t *testing.T) {
	cfg := testQueueConfig()
	w := NewWorker("test-worker", "test-pod", storage.NewMemoryStore(), cfg, nil, nil)

	for i := 0; i < 100; i++ {
		d := w.pollInterval()
		assert.GreaterOrEqual(t, d, 500*time.Millisecond, "poll interval below minimum")
		assert.LessOrEqual(t, d, 1500*time.Millisecond, "poll interval above maximum")
	}
}

func TestWorkerPollIntervalNoJitter(t *testing.T) {
	cfg := testQueueConfig()
	cfg.PollIntervalJitter = 0
	w := NewWorker("test-worker", "test-pod", storage.NewMemoryStore(), cfg, nil, nil)

	for i := 0; i < 10; i++ {
		d := w.pollInterval()
		assert.Equal(t, 1*time.Second, d, "poll interval should equal base when jitter is 0")
	}
}

func TestWorkerHealth(t *testing.T) {
	cfg := testQueueConfig()
	w := NewWorker("worker-1", "pod-1", storage.NewMemoryStore(), cfg, nil, nil)

	h := w.Health()
	assert.Equal(t, "worker-1", h.ID)
	assert.Equal(t, string(WorkerStatusIdle), h.Status)
	assert.Equal(t, "", h.CurrentTaskID)
	assert.Equal(t, 0, h.TasksProcessed)

	w.setStatus(WorkerStatusWorking, "task-abc")
	h = w.Health()
	assert.Equal(t, string(WorkerStatusWorking), h.Status)
	assert.Equal(t, "task-abc", h.CurrentTaskID)

	w.setStatus(WorkerStatusIdle, "")
	h = w.Health()
	assert.Equal(t, string(WorkerStatusIdle), h.Status)
	assert.Equal(t, "", h.CurrentTaskID)
}

// fakeRegistry is a no-op TaskRegistry for tests that don't exercise
// cancellation.
type fakeRegistry struct{}

func (fakeRegistry) RegisterTask(string, context.CancelFunc) {}
func (fakeRegistry) UnregisterTask(string)                   {}

// stubExecutor returns a fixed ExecutionResult for every task.
type stubExecutor struct {
	result *ExecutionResult
	calls  int
}

func (s *stubExecutor) Execute(_ context.Context, _ *Task) *ExecutionResult {
	s.calls++
	return s.result
}

func TestWorker_PollAndProcess_ClaimsAndCompletesTask(t *testing.T) {
	store := storage.NewMemoryStore()
	task, err := Enqueue(t.Context(), store, "u1", KindResearch, map[string]string{"topic": "pricing pages"})
	require.NoError(t, err)

	executor := &stubExecutor{result: &ExecutionResult{Status: TaskStatusCompleted}}
	cfg := testQueueConfig()
	w := NewWorker("worker-1", "pod-1", store, cfg, map[Kind]Executor{KindResearch: executor}, fakeRegistry{})

	require.NoError(t, w.pollAndProcess(t.Context()))
	assert.Equal(t, 1, executor.calls)

	got, err := Get(t.Context(), store, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestWorker_PollAndProcess_NoTasksAvailable(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testQueueConfig()
	w := NewWorker("worker-1", "pod-1", store, cfg, nil, fakeRegistry{})

	err := w.pollAndProcess(t.Context())
	assert.ErrorIs(t, err, ErrNoTasksAvailable)
}

func TestWorker_PollAndProcess_UnknownKindFailsTask(t *testing.T) {
	store := storage.NewMemoryStore()
	task, err := Enqueue(t.Context(), store, "u1", KindDiscovery, map[string]string{})
	require.NoError(t, err)

	cfg := testQueueConfig()
	w := NewWorker("worker-1", "pod-1", store, cfg, map[Kind]Executor{}, fakeRegistry{})

	require.NoError(t, w.pollAndProcess(t.Context()))

	got, err := Get(t.Context(), store, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "no executor registered")
}

func TestWorker_PollAndProcess_AtCapacity(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(t.Context(), storage.CollectionTasks, "u1", "busy",
		[]byte(`{"id":"busy","user_id":"u1","status":"in_progress"}`)))

	cfg := testQueueConfig()
	cfg.MaxConcurrentTasks = 1
	w := NewWorker("worker-1", "pod-1", store, cfg, nil, fakeRegistry{})

	err := w.pollAndProcess(t.Context())
	assert.ErrorIs(t, err, ErrAtCapacity)
}
