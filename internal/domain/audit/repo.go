package audit

import (
	"context"
)

// Repository is the persistence contract for the audit trail.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByResource(ctx context.Context, resource, resourceID string, limit, offset int) ([]*Entry, int, error)
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*Entry, int, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*Entry, int, error)
}
