package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by unit tests that don't need a
// real Postgres instance (integration tests use testcontainers instead; see
// postgres_test.go).
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document // key: collection/userID/id
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func memKey(collection, userID, id string) string {
	return collection + "/" + userID + "/" + id
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, collection, userID, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	key := memKey(collection, userID, id)
	createdAt := now
	if existing, ok := m.docs[key]; ok {
		createdAt = existing.CreatedAt
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.docs[key] = Document{
		Collection: collection, UserID: userID, ID: id,
		Data: cp, CreatedAt: createdAt, UpdatedAt: now,
	}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, collection, userID, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[memKey(collection, userID, id)]
	if !ok {
		return Document{}, &ErrNotFound{Collection: collection, UserID: userID, ID: id}
	}
	return doc, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, collection, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, memKey(collection, userID, id))
	return nil
}

// Query implements Store.
func (m *MemoryStore) Query(ctx context.Context, collection, userID string, filters []Filter, order *Order, limit int) ([]Document, error) {
	return m.queryFiltered(collection, &userID, filters, order, limit)
}

// QueryAllUsers implements Store.
func (m *MemoryStore) QueryAllUsers(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error) {
	return m.queryFiltered(collection, nil, filters, order, limit)
}

func (m *MemoryStore) queryFiltered(collection string, userID *string, filters []Filter, order *Order, limit int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, doc := range m.docs {
		if doc.Collection != collection {
			continue
		}
		if userID != nil && doc.UserID != *userID {
			continue
		}
		if !matchesAll(doc, filters) {
			continue
		}
		out = append(out, doc)
	}

	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			vi := fieldValue(out[i], order.Field)
			vj := fieldValue(out[j], order.Field)
			if order.Dir == Desc {
				return vi > vj
			}
			return vi < vj
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ClaimNext implements Store by scanning under the write lock, so no two
// callers ever observe and claim the same oldest-matching document.
func (m *MemoryStore) ClaimNext(_ context.Context, collection, statusField, fromStatus, toStatus, claimedBy string) (Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bestKey string
	var best Document
	found := false
	for key, doc := range m.docs {
		if doc.Collection != collection {
			continue
		}
		if fieldValue(doc, statusField) != fromStatus {
			continue
		}
		if !found || doc.CreatedAt.Before(best.CreatedAt) {
			bestKey, best, found = key, doc, true
		}
	}
	if !found {
		return Document{}, false, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(best.Data, &payload); err != nil {
		return Document{}, false, err
	}
	payload[statusField] = toStatus
	payload["claimed_by"] = claimedBy
	payload["claimed_at"] = time.Now().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		return Document{}, false, err
	}

	best.Data = data
	best.UpdatedAt = time.Now()
	m.docs[bestKey] = best
	return best, true, nil
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v := fieldValue(doc, f.Field)
		want := stringify(f.Value)
		switch f.Op {
		case OpEq:
			if v != want {
				return false
			}
		case OpLT:
			if !(v < want) {
				return false
			}
		case OpGT:
			if !(v > want) {
				return false
			}
		}
	}
	return true
}

func fieldValue(doc Document, field string) string {
	var m map[string]any
	if err := json.Unmarshal(doc.Data, &m); err != nil {
		return ""
	}
	return stringify(m[field])
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
