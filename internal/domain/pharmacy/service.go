package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carewave/hms/internal/platform/db"
	"github.com/carewave/hms/internal/platform/notification"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMedicineInactive  = errors.New("medicine is inactive")
)

var validMovementTypes = map[string]bool{
	MovementPurchase: true, MovementDispense: true, MovementAdjustment: true,
	MovementReturn: true, MovementExpired: true,
}

type Service struct {
	medicines MedicineRepository
	vendors   VendorRepository
	movements MovementRepository
	pool      *pgxpool.Pool
	notifier  *notification.Manager
	alertTo   string
	log       zerolog.Logger
}

func NewService(medicines MedicineRepository, vendors VendorRepository, movements MovementRepository,
	pool *pgxpool.Pool, notifier *notification.Manager, alertRecipient string, log zerolog.Logger) *Service {
	return &Service{
		medicines: medicines,
		vendors:   vendors,
		movements: movements,
		pool:      pool,
		notifier:  notifier,
		alertTo:   alertRecipient,
		log:       log,
	}
}

// -- Medicines --

func (s *Service) AddMedicine(ctx context.Context, m *Medicine) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must not be negative")
	}
	if m.CurrentStock < 0 {
		return fmt.Errorf("current_stock must not be negative")
	}
	if m.MinStock < 0 || m.MaxStock < 0 {
		return fmt.Errorf("stock thresholds must not be negative")
	}
	if m.MaxStock > 0 && m.MinStock > m.MaxStock {
		return fmt.Errorf("min_stock cannot exceed max_stock")
	}
	m.Active = true
	if err := s.medicines.Create(ctx, m); err != nil {
		return err
	}
	if m.CurrentStock > 0 {
		_ = s.movements.Create(ctx, &StockMovement{
			MedicineID: m.ID,
			Type:       MovementPurchase,
			Quantity:   m.CurrentStock,
		})
	}
	return nil
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must not be negative")
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeactivateMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.SetActive(ctx, id, false)
}

func (s *Service) SearchMedicines(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, query, limit, offset)
}

func (s *Service) ListLowStock(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.ListLowStock(ctx, limit, offset)
}

// ListNearExpiry returns medicines expiring within the given number of days.
func (s *Service) ListNearExpiry(ctx context.Context, days int, limit, offset int) ([]*Medicine, int, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, days)
	return s.medicines.ListExpiringBefore(ctx, cutoff, limit, offset)
}

// RecordMovement applies a stock change inside a transaction with a row
// lock on the medicine, records the movement, and fires a low-stock alert
// when the change crosses the minimum threshold.
func (s *Service) RecordMovement(ctx context.Context, mv *StockMovement) error {
	if !validMovementTypes[mv.Type] {
		return fmt.Errorf("invalid movement type: %s", mv.Type)
	}
	if mv.Quantity == 0 {
		return fmt.Errorf("quantity must not be zero")
	}

	var after *Medicine
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		m, err := s.medicines.GetByIDForUpdate(ctx, mv.MedicineID)
		if err != nil {
			return fmt.Errorf("medicine not found")
		}
		if !m.Active {
			return ErrMedicineInactive
		}
		if m.CurrentStock+mv.Quantity < 0 {
			return fmt.Errorf("%w: have %d, requested %d", ErrInsufficientStock, m.CurrentStock, -mv.Quantity)
		}
		if err := s.medicines.AdjustStock(ctx, mv.MedicineID, mv.Quantity); err != nil {
			return err
		}
		if err := s.movements.Create(ctx, mv); err != nil {
			return err
		}
		m.CurrentStock += mv.Quantity
		after = m
		return nil
	})
	if err != nil {
		return err
	}

	if after.LowStock() {
		s.alertLowStock(ctx, after)
	}
	return nil
}

// alertLowStock is best effort. Failures are logged, never returned.
func (s *Service) alertLowStock(ctx context.Context, m *Medicine) {
	if s.notifier == nil || s.alertTo == "" {
		return
	}
	vendorName := "the configured vendor"
	if m.VendorID != nil {
		if v, err := s.vendors.GetByID(ctx, *m.VendorID); err == nil {
			vendorName = v.Name
		}
	}
	_, err := s.notifier.SendFromTemplate(ctx, "low-stock-alert", map[string]string{
		"medicine": m.Name,
		"stock":    strconv.Itoa(m.CurrentStock),
		"min":      strconv.Itoa(m.MinStock),
		"vendor":   vendorName,
	}, s.alertTo)
	if err != nil {
		s.log.Warn().Err(err).Str("medicine_id", m.ID.String()).Msg("low stock alert failed")
	}
}

func (s *Service) ListMovements(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	return s.movements.ListByMedicine(ctx, medicineID, limit, offset)
}

// -- Vendors --

func (s *Service) AddVendor(ctx context.Context, v *Vendor) error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("name is required")
	}
	v.Active = true
	return s.vendors.Create(ctx, v)
}

func (s *Service) GetVendor(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	return s.vendors.GetByID(ctx, id)
}

func (s *Service) UpdateVendor(ctx context.Context, v *Vendor) error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return s.vendors.Update(ctx, v)
}

func (s *Service) DeactivateVendor(ctx context.Context, id uuid.UUID) error {
	return s.vendors.SetActive(ctx, id, false)
}

func (s *Service) ListVendors(ctx context.Context, limit, offset int) ([]*Vendor, int, error) {
	return s.vendors.List(ctx, limit, offset)
}
