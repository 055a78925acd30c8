package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carewave/hms/internal/domain/pharmacy"
	"github.com/carewave/hms/internal/platform/db"
	"github.com/carewave/hms/internal/platform/notification"
)

var (
	ErrNotFound          = errors.New("prescription not found")
	ErrOverDispense      = errors.New("requested quantity exceeds remaining prescribed quantity")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrUnknownLine       = errors.New("medication line does not belong to this prescription")
)

type Service struct {
	prescriptions Repository
	medicines     pharmacy.MedicineRepository
	movements     pharmacy.MovementRepository
	pool          *pgxpool.Pool
	notifier      *notification.Manager
	log           zerolog.Logger
}

func NewService(prescriptions Repository, medicines pharmacy.MedicineRepository,
	movements pharmacy.MovementRepository, pool *pgxpool.Pool,
	notifier *notification.Manager, log zerolog.Logger) *Service {
	return &Service{
		prescriptions: prescriptions,
		medicines:     medicines,
		movements:     movements,
		pool:          pool,
		notifier:      notifier,
		log:           log,
	}
}

// Create validates and persists a prescription with its medication lines.
// Medicine names and unit prices are snapshotted from the inventory at
// prescription time so later price changes do not rewrite history.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if len(p.Lines) == 0 {
		return fmt.Errorf("at least one medication line is required")
	}
	for _, l := range p.Lines {
		if l.MedicineID == uuid.Nil {
			return fmt.Errorf("medicine_id is required on every line")
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive on every line")
		}
	}

	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		for _, l := range p.Lines {
			m, err := s.medicines.GetByID(ctx, l.MedicineID)
			if err != nil {
				return fmt.Errorf("medicine %s not found", l.MedicineID)
			}
			if !m.Active {
				return fmt.Errorf("medicine %s is inactive", m.Name)
			}
			l.MedicineName = m.Name
			l.UnitPrice = m.UnitPrice
			l.DispensedQuantity = 0
			l.Status = DispensePending
		}
		p.DispensingStatus = DispensePending
		return s.prescriptions.Create(ctx, p)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	if status != DispensePending && status != DispensePartial && status != DispenseComplete {
		return nil, 0, fmt.Errorf("invalid dispensing status: %s", status)
	}
	return s.prescriptions.ListByStatus(ctx, status, limit, offset)
}

// Dispense hands out medication against prescription lines. The whole
// request runs in one transaction with row locks on both the lines and the
// medicines: every item is validated against remaining prescribed quantity
// and current stock before any mutation, so either the full batch lands or
// the prescription and inventory are untouched.
func (s *Service) Dispense(ctx context.Context, prescriptionID uuid.UUID, req *DispenseRequest) (*Prescription, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one dispense item is required")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("dispense quantity must be positive")
		}
	}

	var result *Prescription
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, prescriptionID)
		if err != nil {
			return ErrNotFound
		}

		lines, err := s.prescriptions.GetLinesForUpdate(ctx, prescriptionID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*MedicationLine, len(lines))
		for _, l := range lines {
			byID[l.ID] = l
		}

		// Validate the full batch before touching anything. Requested
		// quantities are accumulated per line and per medicine so a batch
		// cannot pass the checks by splitting one oversized request across
		// several items, or by drawing on the same medicine from two lines.
		type plan struct {
			line     *MedicationLine
			medicine *pharmacy.Medicine
			qty      int
		}
		plans := make([]plan, 0, len(req.Items))
		requestedByLine := make(map[uuid.UUID]int, len(req.Items))
		neededByMedicine := make(map[uuid.UUID]int)
		medicinesByID := make(map[uuid.UUID]*pharmacy.Medicine)
		for _, item := range req.Items {
			line, ok := byID[item.LineID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownLine, item.LineID)
			}
			requestedByLine[item.LineID] += item.Quantity
			remaining := line.Quantity - line.DispensedQuantity
			if requestedByLine[item.LineID] > remaining {
				return fmt.Errorf("%w: %s has %d remaining, requested %d",
					ErrOverDispense, line.MedicineName, remaining, requestedByLine[item.LineID])
			}
			m, ok := medicinesByID[line.MedicineID]
			if !ok {
				var err error
				m, err = s.medicines.GetByIDForUpdate(ctx, line.MedicineID)
				if err != nil {
					return fmt.Errorf("medicine %s not found", line.MedicineID)
				}
				medicinesByID[line.MedicineID] = m
			}
			neededByMedicine[line.MedicineID] += item.Quantity
			if neededByMedicine[line.MedicineID] > m.CurrentStock {
				return fmt.Errorf("%w: %s has %d in stock, requested %d",
					ErrInsufficientStock, m.Name, m.CurrentStock, neededByMedicine[line.MedicineID])
			}
			plans = append(plans, plan{line: line, medicine: m, qty: item.Quantity})
		}

		// Apply. Every mutation is inside the same transaction.
		ref := prescriptionID.String()
		for _, pl := range plans {
			if err := s.medicines.AdjustStock(ctx, pl.medicine.ID, -pl.qty); err != nil {
				return err
			}
			if err := s.movements.Create(ctx, &pharmacy.StockMovement{
				MedicineID: pl.medicine.ID,
				Type:       pharmacy.MovementDispense,
				Quantity:   -pl.qty,
				Reference:  &ref,
			}); err != nil {
				return err
			}
			pl.line.DispensedQuantity += pl.qty
			pl.line.Status = LineStatus(pl.line.DispensedQuantity, pl.line.Quantity)
			if err := s.prescriptions.UpdateLineDispensed(ctx, pl.line.ID, pl.line.DispensedQuantity, pl.line.Status); err != nil {
				return err
			}
		}

		p.DispensingStatus = AggregateStatus(lines)
		if err := s.prescriptions.UpdateStatus(ctx, prescriptionID, p.DispensingStatus); err != nil {
			return err
		}
		p.Lines = lines
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.DispensingStatus == DispenseComplete {
		s.notifyReady(ctx, result)
	}
	return result, nil
}

// notifyReady is best effort. Failures are logged, never returned.
func (s *Service) notifyReady(ctx context.Context, p *Prescription) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.SendFromTemplate(ctx, "prescription-ready", map[string]string{
		"patient_name": p.PatientID.String(),
	}, p.PatientID.String())
	if err != nil {
		s.log.Warn().Err(err).Str("prescription_id", p.ID.String()).Msg("prescription ready notification failed")
	}
}
