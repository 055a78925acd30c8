package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appointments[id]
	if !ok {
		return fmt.Errorf("appointment not found")
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ time.Time, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ActiveForDoctorBetween(_ context.Context, doctorID uuid.UUID, _, _ time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && (a.Status == AppointmentScheduled || a.Status == AppointmentCheckedIn) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockShiftRepo struct {
	shifts map[uuid.UUID]*Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[uuid.UUID]*Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, s *Shift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id uuid.UUID) (*Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, fmt.Errorf("shift not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockShiftRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	s, ok := m.shifts[id]
	if !ok {
		return fmt.Errorf("shift not found")
	}
	s.Status = status
	return nil
}

func (m *mockShiftRepo) ListByStaff(_ context.Context, staffID uuid.UUID, _, _ int) ([]*Shift, int, error) {
	var out []*Shift
	for _, s := range m.shifts {
		if s.StaffID == staffID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockShiftRepo) ListByDate(_ context.Context, date time.Time, _, _ int) ([]*Shift, int, error) {
	var out []*Shift
	for _, s := range m.shifts {
		if s.ShiftDate.Equal(date) {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockShiftRepo) ActiveForStaffOnDate(_ context.Context, staffID uuid.UUID, date time.Time) ([]*Shift, error) {
	var out []*Shift
	for _, s := range m.shifts {
		if s.StaffID == staffID && s.ShiftDate.Equal(date) &&
			(s.Status == ShiftScheduled || s.Status == ShiftInProgress) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockLeaveRepo struct {
	leaves map[uuid.UUID]*LeaveRequest
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[uuid.UUID]*LeaveRequest)}
}

func (m *mockLeaveRepo) Create(_ context.Context, l *LeaveRequest) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.leaves[l.ID] = l
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id uuid.UUID) (*LeaveRequest, error) {
	l, ok := m.leaves[id]
	if !ok {
		return nil, fmt.Errorf("leave request not found")
	}
	cp := *l
	return &cp, nil
}

func (m *mockLeaveRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, reviewedBy uuid.UUID) error {
	l, ok := m.leaves[id]
	if !ok {
		return fmt.Errorf("leave request not found")
	}
	l.Status = status
	l.ReviewedBy = &reviewedBy
	now := time.Now()
	l.ReviewedAt = &now
	return nil
}

func (m *mockLeaveRepo) ListByStaff(_ context.Context, staffID uuid.UUID, _, _ int) ([]*LeaveRequest, int, error) {
	var out []*LeaveRequest
	for _, l := range m.leaves {
		if l.StaffID == staffID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *mockLeaveRepo) ListByStatus(_ context.Context, status string, _, _ int) ([]*LeaveRequest, int, error) {
	var out []*LeaveRequest
	for _, l := range m.leaves {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *mockLeaveRepo) ActiveForStaff(_ context.Context, staffID uuid.UUID) ([]*LeaveRequest, error) {
	var out []*LeaveRequest
	for _, l := range m.leaves {
		if l.StaffID != staffID {
			continue
		}
		switch l.Status {
		case LeavePending, LeaveApproved, LeaveInProgress:
			out = append(out, l)
		}
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(newMockAppointmentRepo(), newMockShiftRepo(), newMockLeaveRepo())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// -- Appointments --

func TestBookAppointment(t *testing.T) {
	svc := newTestService()
	start := date(2026, time.September, 1).Add(9 * time.Hour)

	a := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	if err := svc.BookAppointment(context.Background(), a); err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if a.Status != AppointmentScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
}

func TestBookAppointmentDoctorConflict(t *testing.T) {
	svc := newTestService()
	doctor := uuid.New()
	start := date(2026, time.September, 1).Add(9 * time.Hour)

	first := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctor,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	if err := svc.BookAppointment(context.Background(), first); err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	overlapping := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctor,
		StartTime: start.Add(15 * time.Minute),
		EndTime:   start.Add(45 * time.Minute),
	}
	if err := svc.BookAppointment(context.Background(), overlapping); !errors.Is(err, ErrAppointmentConflict) {
		t.Fatalf("err = %v, want ErrAppointmentConflict", err)
	}

	// Back-to-back is fine.
	adjacent := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctor,
		StartTime: start.Add(30 * time.Minute),
		EndTime:   start.Add(60 * time.Minute),
	}
	if err := svc.BookAppointment(context.Background(), adjacent); err != nil {
		t.Fatalf("adjacent appointment rejected: %v", err)
	}
}

func TestUpdateAppointmentStatusTerminal(t *testing.T) {
	svc := newTestService()
	start := date(2026, time.September, 1).Add(9 * time.Hour)
	a := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	if err := svc.BookAppointment(context.Background(), a); err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	if err := svc.UpdateAppointmentStatus(context.Background(), a.ID, AppointmentCompleted); err != nil {
		t.Fatalf("UpdateAppointmentStatus: %v", err)
	}
	if err := svc.UpdateAppointmentStatus(context.Background(), a.ID, AppointmentCancelled); err == nil {
		t.Error("expected transition from completed to be rejected")
	}
}

// -- Shifts --

func TestCreateShiftConflict(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()
	day := date(2026, time.September, 1)

	first := &Shift{StaffID: staff, ShiftDate: day, StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), first); err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	overlapping := &Shift{StaffID: staff, ShiftDate: day, StartTime: "15:00", EndTime: "23:00"}
	if err := svc.CreateShift(context.Background(), overlapping); !errors.Is(err, ErrShiftConflict) {
		t.Fatalf("err = %v, want ErrShiftConflict", err)
	}
}

func TestCreateShiftBackToBackAllowed(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()
	day := date(2026, time.September, 1)

	first := &Shift{StaffID: staff, ShiftDate: day, StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), first); err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	adjacent := &Shift{StaffID: staff, ShiftDate: day, StartTime: "17:00", EndTime: "23:00"}
	if err := svc.CreateShift(context.Background(), adjacent); err != nil {
		t.Fatalf("back-to-back shift rejected: %v", err)
	}
}

func TestCreateShiftDifferentDayOrStaffAllowed(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()
	day := date(2026, time.September, 1)

	first := &Shift{StaffID: staff, ShiftDate: day, StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), first); err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	nextDay := &Shift{StaffID: staff, ShiftDate: day.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), nextDay); err != nil {
		t.Errorf("same time on another day rejected: %v", err)
	}

	otherStaff := &Shift{StaffID: uuid.New(), ShiftDate: day, StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), otherStaff); err != nil {
		t.Errorf("same time for another staff member rejected: %v", err)
	}
}

func TestCreateShiftValidatesClockTimes(t *testing.T) {
	svc := newTestService()
	day := date(2026, time.September, 1)

	bad := []*Shift{
		{StaffID: uuid.New(), ShiftDate: day, StartTime: "9:00", EndTime: "17:00"},
		{StaffID: uuid.New(), ShiftDate: day, StartTime: "09:00", EndTime: "24:00"},
		{StaffID: uuid.New(), ShiftDate: day, StartTime: "17:00", EndTime: "09:00"},
	}
	for _, sh := range bad {
		if err := svc.CreateShift(context.Background(), sh); err == nil {
			t.Errorf("shift %s-%s accepted, want rejection", sh.StartTime, sh.EndTime)
		}
	}
}

func TestShiftStatusTransitions(t *testing.T) {
	svc := newTestService()
	sh := &Shift{StaffID: uuid.New(), ShiftDate: date(2026, time.September, 1), StartTime: "09:00", EndTime: "17:00"}
	if err := svc.CreateShift(context.Background(), sh); err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	if err := svc.UpdateShiftStatus(context.Background(), sh.ID, ShiftCompleted); err == nil {
		t.Error("scheduled to completed should be rejected")
	}
	if err := svc.UpdateShiftStatus(context.Background(), sh.ID, ShiftInProgress); err != nil {
		t.Fatalf("scheduled to in-progress: %v", err)
	}
	if err := svc.UpdateShiftStatus(context.Background(), sh.ID, ShiftCompleted); err != nil {
		t.Fatalf("in-progress to completed: %v", err)
	}
}

// -- Leave requests --

func TestRequestLeaveOverlapRejected(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()

	first := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 10),
		EndDate:   date(2026, time.September, 14),
	}
	if err := svc.RequestLeave(context.Background(), first); err != nil {
		t.Fatalf("RequestLeave: %v", err)
	}
	if first.Status != LeavePending {
		t.Errorf("status = %s, want pending", first.Status)
	}
	if first.LeaveType != "casual" {
		t.Errorf("leave type = %s, want casual default", first.LeaveType)
	}

	// Sharing a single day with the existing range is an overlap because
	// the ranges are inclusive.
	overlapping := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 14),
		EndDate:   date(2026, time.September, 16),
	}
	if err := svc.RequestLeave(context.Background(), overlapping); !errors.Is(err, ErrLeaveOverlap) {
		t.Fatalf("err = %v, want ErrLeaveOverlap", err)
	}

	after := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 15),
		EndDate:   date(2026, time.September, 16),
	}
	if err := svc.RequestLeave(context.Background(), after); err != nil {
		t.Fatalf("non-overlapping leave rejected: %v", err)
	}
}

func TestRequestLeaveAfterRejectionAllowed(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()

	first := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 10),
		EndDate:   date(2026, time.September, 14),
	}
	if err := svc.RequestLeave(context.Background(), first); err != nil {
		t.Fatalf("RequestLeave: %v", err)
	}
	if err := svc.ReviewLeave(context.Background(), first.ID, false, uuid.New()); err != nil {
		t.Fatalf("ReviewLeave: %v", err)
	}

	// The rejected request no longer blocks the range.
	retry := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 10),
		EndDate:   date(2026, time.September, 14),
	}
	if err := svc.RequestLeave(context.Background(), retry); err != nil {
		t.Fatalf("retry after rejection failed: %v", err)
	}
}

func TestReviewLeaveOnlyPending(t *testing.T) {
	svc := newTestService()
	l := &LeaveRequest{
		StaffID:   uuid.New(),
		StartDate: date(2026, time.September, 10),
		EndDate:   date(2026, time.September, 11),
	}
	if err := svc.RequestLeave(context.Background(), l); err != nil {
		t.Fatalf("RequestLeave: %v", err)
	}

	reviewer := uuid.New()
	if err := svc.ReviewLeave(context.Background(), l.ID, true, reviewer); err != nil {
		t.Fatalf("ReviewLeave: %v", err)
	}
	if err := svc.ReviewLeave(context.Background(), l.ID, false, reviewer); err == nil {
		t.Error("expected re-review of approved request to be rejected")
	}
}

func TestCancelLeaveOwnershipEnforced(t *testing.T) {
	svc := newTestService()
	staff := uuid.New()
	l := &LeaveRequest{
		StaffID:   staff,
		StartDate: date(2026, time.September, 10),
		EndDate:   date(2026, time.September, 11),
	}
	if err := svc.RequestLeave(context.Background(), l); err != nil {
		t.Fatalf("RequestLeave: %v", err)
	}

	if err := svc.CancelLeave(context.Background(), l.ID, uuid.New()); err == nil {
		t.Error("expected cancel by another staff member to be rejected")
	}
	if err := svc.CancelLeave(context.Background(), l.ID, staff); err != nil {
		t.Fatalf("CancelLeave: %v", err)
	}
}

// -- Predicates --

func TestClockRangesOverlap(t *testing.T) {
	tests := []struct {
		ns, ne, es, ee string
		want           bool
	}{
		{"09:00", "17:00", "15:00", "23:00", true},
		{"09:00", "17:00", "17:00", "23:00", false},
		{"09:00", "12:00", "12:00", "15:00", false},
		{"10:00", "11:00", "09:00", "17:00", true},
		{"08:00", "09:00", "09:00", "17:00", false},
	}
	for _, tt := range tests {
		if got := ClockRangesOverlap(tt.ns, tt.ne, tt.es, tt.ee); got != tt.want {
			t.Errorf("ClockRangesOverlap(%s-%s, %s-%s) = %v, want %v", tt.ns, tt.ne, tt.es, tt.ee, got, tt.want)
		}
	}
}

func TestDateRangesOverlap(t *testing.T) {
	d := func(day int) time.Time { return date(2026, time.September, day) }

	tests := []struct {
		ns, ne, es, ee time.Time
		want           bool
	}{
		{d(10), d(14), d(14), d(16), true},
		{d(10), d(14), d(15), d(16), false},
		{d(1), d(30), d(10), d(12), true},
		{d(10), d(10), d(10), d(10), true},
	}
	for _, tt := range tests {
		if got := DateRangesOverlap(tt.ns, tt.ne, tt.es, tt.ee); got != tt.want {
			t.Errorf("DateRangesOverlap = %v, want %v", got, tt.want)
		}
	}
}
