package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// PutJSON marshals v and upserts it as collection/userID/id.
func PutJSON(ctx context.Context, s Store, collection, userID, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s/%s: %w", collection, userID, id, err)
	}
	return s.Put(ctx, collection, userID, id, data)
}

// GetJSON fetches collection/userID/id and unmarshals it into out.
func GetJSON(ctx context.Context, s Store, collection, userID, id string, out any) error {
	doc, err := s.Get(ctx, collection, userID, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc.Data, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s/%s: %w", collection, userID, id, err)
	}
	return nil
}

// QueryJSON fetches a filtered/ordered/limited page and unmarshals each
// document's JSON into a T, returning them in query order.
func QueryJSON[T any](ctx context.Context, s Store, collection, userID string, filters []Filter, order *Order, limit int) ([]T, error) {
	docs, err := s.Query(ctx, collection, userID, filters, order, limit)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

// QueryJSONAllUsers is the cross-tenant counterpart of QueryJSON.
func QueryJSONAllUsers[T any](ctx context.Context, s Store, collection string, filters []Filter, order *Order, limit int) ([]T, error) {
	docs, err := s.QueryAllUsers(ctx, collection, filters, order, limit)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

func decodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc.Data, &item); err != nil {
			return nil, fmt.Errorf("unmarshal %s/%s/%s: %w", doc.Collection, doc.UserID, doc.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}
