package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

// upsertByUser writes the single per-user document of collection. An
// existing document found by userId is updated in place. Otherwise one is
// created under the uid as its id, so concurrent first writes collide on
// the id instead of producing duplicates; the loser updates the winner.
func upsertByUser(ctx context.Context, store docstore.Store, collection, uid string, fields map[string]interface{}, now time.Time) (string, error) {
	docs, err := store.Query(ctx, docstore.From(collection).Where("userId", docstore.OpEqual, uid).Take(1))
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", collection, err)
	}

	update := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update["updatedAt"] = now

	if len(docs) > 0 {
		if err := store.Update(ctx, collection, docs[0].ID, update); err != nil {
			return "", fmt.Errorf("failed to update %s: %w", collection, err)
		}
		return docs[0].ID, nil
	}

	create := make(map[string]interface{}, len(update)+2)
	for k, v := range update {
		create[k] = v
	}
	create["userId"] = uid
	create["createdAt"] = now

	err = store.CreateWithID(ctx, collection, uid, create)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		err = store.Update(ctx, collection, uid, update)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", collection, err)
	}
	return uid, nil
}
