package patient

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	seq      int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	for _, p := range m.patients {
		if p.MRN == mrn {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("patient not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	stored, ok := m.patients[p.ID]
	if !ok {
		return fmt.Errorf("patient not found")
	}
	p.MRN = stored.MRN
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	p, ok := m.patients[id]
	if !ok {
		return fmt.Errorf("patient not found")
	}
	p.Active = active
	return nil
}

func (m *mockRepo) Search(_ context.Context, query string, _, _ int) ([]*Patient, int, error) {
	q := strings.ToLower(query)
	var out []*Patient
	for _, p := range m.patients {
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.MRN), q) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) List(_ context.Context, _, _ int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) NextMRNSequence(_ context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

func TestRegisterGeneratesMRN(t *testing.T) {
	svc := NewService(newMockRepo())

	first := &Patient{FirstName: "Asha", LastName: "Rao"}
	if err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if first.MRN != "MRN-000001" {
		t.Errorf("MRN = %s, want MRN-000001", first.MRN)
	}
	if !first.Active {
		t.Error("new patient should be active")
	}
	if first.Gender != "unknown" {
		t.Errorf("gender = %s, want unknown default", first.Gender)
	}

	second := &Patient{FirstName: "Ravi"}
	if err := svc.Register(context.Background(), second); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if second.MRN != "MRN-000002" {
		t.Errorf("MRN = %s, want MRN-000002", second.MRN)
	}
}

func TestRegisterExplicitMRNMustBeUnique(t *testing.T) {
	svc := NewService(newMockRepo())

	first := &Patient{FirstName: "Asha", MRN: "MRN-LEGACY-1"}
	if err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := &Patient{FirstName: "Ravi", MRN: "MRN-LEGACY-1"}
	if err := svc.Register(context.Background(), dup); err == nil {
		t.Error("expected duplicate MRN to be rejected")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Register(context.Background(), &Patient{FirstName: "   "}); err == nil {
		t.Error("expected empty first name to be rejected")
	}
	if err := svc.Register(context.Background(), &Patient{FirstName: "X", Gender: "robot"}); err == nil {
		t.Error("expected invalid gender to be rejected")
	}
}

func TestUpdateMRNImmutable(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{FirstName: "Asha"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	changed := *p
	changed.MRN = "MRN-999999"
	if err := svc.Update(context.Background(), &changed); err == nil {
		t.Error("expected MRN change to be rejected")
	}

	// Updates that leave the MRN alone go through.
	renamed := *p
	renamed.FirstName = "Asha Updated"
	if err := svc.Update(context.Background(), &renamed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := repo.patients[p.ID].FirstName; got != "Asha Updated" {
		t.Errorf("first name = %s, want Asha Updated", got)
	}
}

func TestDeactivateReactivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{FirstName: "Asha"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if repo.patients[p.ID].Active {
		t.Error("patient still active after deactivation")
	}

	if err := svc.Reactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if !repo.patients[p.ID].Active {
		t.Error("patient still inactive after reactivation")
	}
}

func TestSearchEmptyQueryListsAll(t *testing.T) {
	svc := NewService(newMockRepo())
	for _, name := range []string{"Asha", "Ravi", "Meera"} {
		if err := svc.Register(context.Background(), &Patient{FirstName: name}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	_, total, err := svc.Search(context.Background(), "   ", 20, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	_, total, err = svc.Search(context.Background(), "rav", 20, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}
