package scheduling

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	ErrShiftConflict       = errors.New("staff member already has a shift overlapping this time range")
	ErrLeaveOverlap        = errors.New("staff member already has a leave request overlapping this date range")
	ErrAppointmentConflict = errors.New("doctor already has an appointment overlapping this time range")
)

var clockTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var validAppointmentStatuses = map[string]bool{
	AppointmentScheduled: true, AppointmentCheckedIn: true, AppointmentCompleted: true,
	AppointmentCancelled: true, AppointmentNoShow: true,
}

var validLeaveTypes = map[string]bool{
	"casual": true, "sick": true, "earned": true, "maternity": true, "unpaid": true,
}

type Service struct {
	appointments AppointmentRepository
	shifts       ShiftRepository
	leaves       LeaveRepository
}

func NewService(appts AppointmentRepository, shifts ShiftRepository, leaves LeaveRepository) *Service {
	return &Service{appointments: appts, shifts: shifts, leaves: leaves}
}

// -- Appointments --

// BookAppointment validates the slot and rejects it when the doctor has an
// active appointment intersecting the requested range.
func (s *Service) BookAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}

	existing, err := s.appointments.ActiveForDoctorBetween(ctx, a.DoctorID, a.StartTime, a.EndTime)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if Overlaps(a.StartTime, a.EndTime, e.StartTime, e.EndTime) {
			return ErrAppointmentConflict
		}
	}

	a.Status = AppointmentScheduled
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointmentStatus enforces the allowed transitions. Completed and
// cancelled appointments are terminal.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validAppointmentStatuses[status] {
		return fmt.Errorf("invalid appointment status: %s", status)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("appointment not found")
	}
	if a.Status == AppointmentCompleted || a.Status == AppointmentCancelled {
		return fmt.Errorf("appointment is already %s", a.Status)
	}
	return s.appointments.UpdateStatus(ctx, id, status)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}
	return s.appointments.ListByDoctor(ctx, doctorID, from, to, limit, offset)
}

// -- Shifts --

// CreateShift rejects a shift whose clock range intersects an existing
// scheduled or in-progress shift for the same staff member on the same
// date. The test is newStart < existingEnd AND newEnd > existingStart, so
// back-to-back shifts (17:00 end, 17:00 start) do not conflict.
func (s *Service) CreateShift(ctx context.Context, sh *Shift) error {
	if sh.StaffID == uuid.Nil {
		return fmt.Errorf("staff_id is required")
	}
	if sh.ShiftDate.IsZero() {
		return fmt.Errorf("shift_date is required")
	}
	if !clockTimeRe.MatchString(sh.StartTime) || !clockTimeRe.MatchString(sh.EndTime) {
		return fmt.Errorf("start_time and end_time must be HH:MM clock times")
	}
	if sh.EndTime <= sh.StartTime {
		return fmt.Errorf("end_time must be after start_time")
	}

	existing, err := s.shifts.ActiveForStaffOnDate(ctx, sh.StaffID, sh.ShiftDate)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if ClockRangesOverlap(sh.StartTime, sh.EndTime, e.StartTime, e.EndTime) {
			return ErrShiftConflict
		}
	}

	sh.Status = ShiftScheduled
	return s.shifts.Create(ctx, sh)
}

func (s *Service) GetShift(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return s.shifts.GetByID(ctx, id)
}

var validShiftTransitions = map[string]map[string]bool{
	ShiftScheduled:  {ShiftInProgress: true, ShiftCancelled: true},
	ShiftInProgress: {ShiftCompleted: true},
}

func (s *Service) UpdateShiftStatus(ctx context.Context, id uuid.UUID, status string) error {
	sh, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("shift not found")
	}
	if !validShiftTransitions[sh.Status][status] {
		return fmt.Errorf("cannot transition shift from %s to %s", sh.Status, status)
	}
	return s.shifts.UpdateStatus(ctx, id, status)
}

func (s *Service) ListShiftsByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Shift, int, error) {
	return s.shifts.ListByStaff(ctx, staffID, limit, offset)
}

func (s *Service) ListShiftsByDate(ctx context.Context, date time.Time, limit, offset int) ([]*Shift, int, error) {
	return s.shifts.ListByDate(ctx, date, limit, offset)
}

// -- Leave requests --

// RequestLeave rejects a request whose inclusive date range intersects an
// existing pending, approved, or in-progress request for the same staff
// member.
func (s *Service) RequestLeave(ctx context.Context, l *LeaveRequest) error {
	if l.StaffID == uuid.Nil {
		return fmt.Errorf("staff_id is required")
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if l.EndDate.Before(l.StartDate) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	if l.LeaveType == "" {
		l.LeaveType = "casual"
	}
	if !validLeaveTypes[l.LeaveType] {
		return fmt.Errorf("invalid leave type: %s", l.LeaveType)
	}

	existing, err := s.leaves.ActiveForStaff(ctx, l.StaffID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if DateRangesOverlap(l.StartDate, l.EndDate, e.StartDate, e.EndDate) {
			return ErrLeaveOverlap
		}
	}

	l.Status = LeavePending
	return s.leaves.Create(ctx, l)
}

func (s *Service) GetLeave(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	return s.leaves.GetByID(ctx, id)
}

// ReviewLeave approves or rejects a pending request.
func (s *Service) ReviewLeave(ctx context.Context, id uuid.UUID, approve bool, reviewerID uuid.UUID) error {
	l, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("leave request not found")
	}
	if l.Status != LeavePending {
		return fmt.Errorf("leave request is not pending (current: %s)", l.Status)
	}
	status := LeaveRejected
	if approve {
		status = LeaveApproved
	}
	return s.leaves.UpdateStatus(ctx, id, status, reviewerID)
}

// CancelLeave lets staff withdraw their own pending or approved request.
func (s *Service) CancelLeave(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error {
	l, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("leave request not found")
	}
	if l.StaffID != staffID {
		return fmt.Errorf("leave request belongs to another staff member")
	}
	if l.Status != LeavePending && l.Status != LeaveApproved {
		return fmt.Errorf("leave request cannot be cancelled (current: %s)", l.Status)
	}
	return s.leaves.UpdateStatus(ctx, id, LeaveCancelled, staffID)
}

func (s *Service) ListLeavesByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*LeaveRequest, int, error) {
	return s.leaves.ListByStaff(ctx, staffID, limit, offset)
}

func (s *Service) ListLeavesByStatus(ctx context.Context, status string, limit, offset int) ([]*LeaveRequest, int, error) {
	return s.leaves.ListByStatus(ctx, status, limit, offset)
}
