package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// Register creates a patient record. When MRN is empty one is generated
// from the installation-wide sequence as MRN-NNNNNN.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.Gender == "" {
		p.Gender = "unknown"
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}

	if p.MRN == "" {
		seq, err := s.patients.NextMRNSequence(ctx)
		if err != nil {
			return fmt.Errorf("allocate mrn: %w", err)
		}
		p.MRN = fmt.Sprintf("MRN-%06d", seq)
	} else if existing, err := s.patients.GetByMRN(ctx, p.MRN); err == nil && existing != nil {
		return fmt.Errorf("mrn %s is already registered", p.MRN)
	}

	p.Active = true
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

// Update modifies demographic fields. MRN is immutable after registration.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("patient not found")
	}
	if p.MRN != "" && p.MRN != existing.MRN {
		return fmt.Errorf("mrn cannot be changed")
	}
	if p.Gender != "" && !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	return s.patients.Update(ctx, p)
}

// Deactivate marks a record inactive. Records are never deleted because
// bills, prescriptions, and audit entries reference them.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.patients.SetActive(ctx, id, false)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.patients.SetActive(ctx, id, true)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.patients.List(ctx, limit, offset)
	}
	return s.patients.Search(ctx, query, limit, offset)
}
