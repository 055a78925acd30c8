package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for prescriptions and their
// medication lines.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetLines(ctx context.Context, prescriptionID uuid.UUID) ([]*MedicationLine, error)
	// GetLinesForUpdate locks the prescription's lines for the duration of
	// the surrounding transaction.
	GetLinesForUpdate(ctx context.Context, prescriptionID uuid.UUID) ([]*MedicationLine, error)
	UpdateLineDispensed(ctx context.Context, lineID uuid.UUID, dispensed int, status string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error)
}
