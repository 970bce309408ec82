package aggregate

import (
	"context"

	"github.com/limbsorthopaedic/clinic-backend/internal/clinic"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

type RosterOrder int

const (
	Unordered RosterOrder = iota
	ByName
	ByNewest
)

// Roster reads every identity holding role. An empty roster is not an
// error. Limit zero means no limit.
func (a *Aggregator) Roster(ctx context.Context, role clinic.Role, order RosterOrder, limit int) ([]clinic.User, error) {
	ctx, span := a.startSpan(ctx, "Aggregator.Roster")
	defer span.End()

	q := docstore.From(clinic.CollectionUsers).Where("role", docstore.OpEqual, string(role))
	switch order {
	case ByName:
		q = q.OrderBy("displayName", docstore.Asc)
	case ByNewest:
		q = q.OrderBy("createdAt", docstore.Desc)
	}
	if limit > 0 {
		q = q.Take(limit)
	}

	docs, err := a.store.Query(ctx, q)
	if err != nil {
		return nil, queryError(string(role)+" roster", err)
	}

	users := make([]clinic.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, clinic.UserFromDocument(doc))
	}
	return users, nil
}
