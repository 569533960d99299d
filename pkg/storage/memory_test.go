package storage_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/storage"
)

type widget struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u1", "w1", widget{Name: "alpha"}))

	var got widget
	require.NoError(t, storage.GetJSON(ctx, s, "widgets", "u1", "w1", &got))
	assert.Equal(t, "alpha", got.Name)

	require.NoError(t, s.Delete(ctx, "widgets", "u1", "w1"))
	_, err := s.Get(ctx, "widgets", "u1", "w1")
	assert.Error(t, err)
}

func TestMemoryStore_QueryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u1", "w1", widget{Name: "a", Timestamp: "1"}))
	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u1", "w2", widget{Name: "b", Timestamp: "3"}))
	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u1", "w3", widget{Name: "c", Timestamp: "2"}))
	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u2", "w4", widget{Name: "other-user", Timestamp: "9"}))

	results, err := storage.QueryJSON[widget](ctx, s, "widgets", "u1", nil, &storage.Order{Field: "timestamp", Dir: storage.Desc}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Name)
	assert.Equal(t, "c", results[1].Name)
}

func TestMemoryStore_ClaimNext_ClaimsOldestPendingAndStampsFields(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	require.NoError(t, storage.PutJSON(ctx, s, "tasks", "u1", "t1", map[string]string{"status": "pending"}))
	require.NoError(t, storage.PutJSON(ctx, s, "tasks", "u1", "t2", map[string]string{"status": "pending"}))

	doc, ok, err := s.ClaimNext(ctx, "tasks", "status", "pending", "in_progress", "pod-1")
	require.NoError(t, err)
	require.True(t, ok)

	var claimed map[string]string
	require.NoError(t, json.Unmarshal(doc.Data, &claimed))
	assert.Equal(t, "in_progress", claimed["status"])
	assert.Equal(t, "pod-1", claimed["claimed_by"])
	assert.NotEmpty(t, claimed["claimed_at"])
}

func TestMemoryStore_ClaimNext_NoMatchReturnsFalse(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, storage.PutJSON(ctx, s, "tasks", "u1", "t1", map[string]string{"status": "completed"}))

	_, ok, err := s.ClaimNext(ctx, "tasks", "status", "pending", "in_progress", "pod-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ClaimNext_DoesNotDoubleClaim(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, storage.PutJSON(ctx, s, "tasks", "u1", "t1", map[string]string{"status": "pending"}))

	_, ok, err := s.ClaimNext(ctx, "tasks", "status", "pending", "in_progress", "pod-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.ClaimNext(ctx, "tasks", "status", "pending", "in_progress", "pod-2")
	require.NoError(t, err)
	assert.False(t, ok, "task already claimed should not be claimable again")
}

func TestMemoryStore_QueryAllUsers(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u1", "w1", widget{Name: "a"}))
	require.NoError(t, storage.PutJSON(ctx, s, "widgets", "u2", "w2", widget{Name: "b"}))

	results, err := storage.QueryJSONAllUsers[widget](ctx, s, "widgets", nil, nil, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
