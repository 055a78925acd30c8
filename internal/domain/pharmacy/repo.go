package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MedicineRepository is the persistence contract for inventory items.
type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so check-then-decrement sequences are serialized.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Search(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error)
	ListLowStock(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time, limit, offset int) ([]*Medicine, int, error)
}

// VendorRepository is the persistence contract for suppliers.
type VendorRepository interface {
	Create(ctx context.Context, v *Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	Update(ctx context.Context, v *Vendor) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]*Vendor, int, error)
}

// MovementRepository records stock level changes.
type MovementRepository interface {
	Create(ctx context.Context, m *StockMovement) error
	ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error)
}
