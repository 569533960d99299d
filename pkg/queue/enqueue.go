package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/storage"
)

// Enqueue persists a new pending task and returns it. API handlers call this
// to hand work to the pool without blocking on it; the caller polls
// storage.CollectionTasks/{id} (or subscribes via the activity bus) for
// completion.
func Enqueue(ctx context.Context, store storage.Store, userID string, kind Kind, payload any) (*Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling task payload: %w", err)
	}

	task := &Task{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Status:  TaskStatusPending,
		Payload: raw,
	}

	if err := putTask(ctx, store, task); err != nil {
		return nil, fmt.Errorf("enqueuing task: %w", err)
	}
	return task, nil
}

// Get fetches one task by id.
func Get(ctx context.Context, store storage.Store, userID, id string) (*Task, error) {
	doc, err := store.Get(ctx, storage.CollectionTasks, userID, id)
	if err != nil {
		return nil, err
	}
	return decodeTask(doc)
}

func putTask(ctx context.Context, store storage.Store, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return store.Put(ctx, storage.CollectionTasks, task.UserID, task.ID, data)
}

func decodeTask(doc storage.Document) (*Task, error) {
	var task Task
	if err := json.Unmarshal(doc.Data, &task); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", doc.ID, err)
	}
	return &task, nil
}
