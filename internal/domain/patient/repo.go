package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	NextMRNSequence(ctx context.Context) (int64, error)
}
