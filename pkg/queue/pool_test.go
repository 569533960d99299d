package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRegisterAndCancelTask(t *testing.T) {
	pool := &WorkerPool{activeTasks: make(map[string]context.CancelFunc)}

	ctx, cancel := context.WithCancel(context.Background())
	pool.RegisterTask("task-1", cancel)

	assert.True(t, pool.CancelTask("task-1"))
	assert.Error(t, ctx.Err())

	assert.False(t, pool.CancelTask("unknown"))
}

func TestPoolUnregisterTask(t *testing.T) {
	pool := &WorkerPool{activeTasks: make(map[string]context.CancelFunc)}

	_, cancel := context.WithCancel(context.Background())
	pool.RegisterTask("task-1", cancel)
	assert.True(t, pool.CancelTask("task-1"))

	pool.UnregisterTask("task-1")
	assert.False(t, pool.CancelTask("task-1"))
}

func TestPoolGetActiveTaskIDs(t *testing.T) {
	pool := &WorkerPool{activeTasks: make(map[string]context.CancelFunc)}

	ids := pool.getActiveTaskIDs()
	assert.Empty(t, ids)

	_, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	_, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	pool.RegisterTask("task-a", cancel1)
	pool.RegisterTask("task-b", cancel2)

	ids = pool.getActiveTaskIDs()
	require.Len(t, ids, 2)
	assert.Contains(t, ids, "task-a")
	assert.Contains(t, ids, "task-b")
}

func TestPoolStopTwiceDoesNotPanic(t *testing.T) {
	pool := &WorkerPool{
		stopCh:      make(chan struct{}),
		activeTasks: make(map[string]context.CancelFunc),
	}

	assert.NotPanics(t, func() {
		pool.stopOnce.Do(func() { close(pool.stopCh) })
		pool.stopOnce.Do(func() { close(pool.stopCh) })
	})
}
