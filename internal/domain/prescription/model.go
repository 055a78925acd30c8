package prescription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispensing statuses, per line and aggregated per prescription. The
// aggregate is the minimum progress across lines: pending if any line is
// untouched, partial if any line is partially filled, complete only when
// every line is complete.
const (
	DispensePending  = "pending"
	DispensePartial  = "partial"
	DispenseComplete = "complete"
)

// Prescription is a doctor's medication order for a patient.
type Prescription struct {
	ID               uuid.UUID         `json:"id"`
	PatientID        uuid.UUID         `json:"patient_id"`
	DoctorID         uuid.UUID         `json:"doctor_id"`
	AppointmentID    *uuid.UUID        `json:"appointment_id,omitempty"`
	Diagnosis        *string           `json:"diagnosis,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	DispensingStatus string            `json:"dispensing_status"`
	Lines            []*MedicationLine `json:"lines,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// MedicationLine is one medicine order within a prescription.
// Invariant: 0 <= DispensedQuantity <= Quantity.
type MedicationLine struct {
	ID                uuid.UUID       `json:"id"`
	PrescriptionID    uuid.UUID       `json:"prescription_id"`
	MedicineID        uuid.UUID       `json:"medicine_id"`
	MedicineName      string          `json:"medicine_name"`
	Dosage            *string         `json:"dosage,omitempty"`
	Frequency         *string         `json:"frequency,omitempty"`
	DurationDays      int             `json:"duration_days"`
	Quantity          int             `json:"quantity"`
	DispensedQuantity int             `json:"dispensed_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LineStatus derives a line's dispensing status from its quantities.
func LineStatus(dispensed, prescribed int) string {
	switch {
	case dispensed <= 0:
		return DispensePending
	case dispensed < prescribed:
		return DispensePartial
	default:
		return DispenseComplete
	}
}

// AggregateStatus folds line statuses into the prescription-level status.
func AggregateStatus(lines []*MedicationLine) string {
	if len(lines) == 0 {
		return DispensePending
	}
	anyProgress := false
	allComplete := true
	for _, l := range lines {
		if l.DispensedQuantity > 0 {
			anyProgress = true
		}
		if l.Status != DispenseComplete {
			allComplete = false
		}
	}
	if allComplete {
		return DispenseComplete
	}
	if anyProgress {
		return DispensePartial
	}
	return DispensePending
}

// DispenseItem is one entry of a dispensing request.
type DispenseItem struct {
	LineID   uuid.UUID `json:"line_id"`
	Quantity int       `json:"quantity"`
}

// DispenseRequest asks the pharmacy to hand out quantities against
// prescription lines. The whole batch succeeds or nothing changes.
type DispenseRequest struct {
	Items []DispenseItem `json:"items"`
}
