package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewave/hms/internal/platform/middleware"
)

// Service writes and queries the persistent audit trail. Writes are best
// effort from the caller's point of view: a failed insert is logged and
// never propagated, so audit problems cannot fail business operations.
type Service struct {
	entries Repository
	log     zerolog.Logger
}

func NewService(entries Repository, log zerolog.Logger) *Service {
	return &Service{entries: entries, log: log}
}

// Record persists a business event.
func (s *Service) Record(ctx context.Context, e *Entry) {
	if err := s.entries.Create(ctx, e); err != nil {
		s.log.Error().Err(err).
			Str("resource", e.Resource).
			Str("action", e.Action).
			Msg("failed to write audit entry")
	}
}

// RecordAccess satisfies middleware.AuditRecorder so every API request
// lands in the same trail as business events.
func (s *Service) RecordAccess(entry middleware.AuditEntry) error {
	e := &Entry{
		Action:   entry.Action,
		Resource: entry.Resource,
	}
	if id, err := uuid.Parse(entry.UserID); err == nil {
		e.ActorID = &id
	}
	if entry.Path != "" {
		detail := entry.Method + " " + entry.Path
		e.Detail = &detail
	}
	if entry.IPAddress != "" {
		e.IPAddress = &entry.IPAddress
	}
	if entry.RequestID != "" {
		e.RequestID = &entry.RequestID
	}
	return s.entries.Create(context.Background(), e)
}

func (s *Service) ListByResource(ctx context.Context, resource, resourceID string, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListByResource(ctx, resource, resourceID, limit, offset)
}

func (s *Service) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListByActor(ctx, actorID, limit, offset)
}

func (s *Service) ListRecent(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListRecent(ctx, limit, offset)
}
