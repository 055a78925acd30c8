package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillRepository is the persistence contract for bills and their line items.
type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetByIDForUpdate locks the bill row for the duration of the
	// surrounding transaction so payment application is serialized.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetItems(ctx context.Context, billID uuid.UUID) ([]*LineItem, error)
	UpdateTotals(ctx context.Context, b *Bill) error
	UpdatePaymentState(ctx context.Context, id uuid.UUID, paidAmount decimal.Decimal, status string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Bill, int, error)
	NextBillSequence(ctx context.Context) (int64, error)
}

// PaymentRepository is the persistence contract for payment records.
// Records are append-only; the only mutation is the pending-to-completed
// confirmation transition.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, transactionID string) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error)
}
