package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository is the persistence contract for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error)
	// ActiveForDoctorBetween returns scheduled or checked-in appointments
	// for the doctor whose time range intersects [start, end).
	ActiveForDoctorBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error)
}

// ShiftRepository is the persistence contract for staff shifts.
type ShiftRepository interface {
	Create(ctx context.Context, s *Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Shift, int, error)
	ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*Shift, int, error)
	// ActiveForStaffOnDate returns scheduled or in-progress shifts for the
	// staff member on the given date.
	ActiveForStaffOnDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]*Shift, error)
}

// LeaveRepository is the persistence contract for leave requests.
type LeaveRepository interface {
	Create(ctx context.Context, l *LeaveRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reviewedBy uuid.UUID) error
	ListByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*LeaveRequest, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*LeaveRequest, int, error)
	// ActiveForStaff returns pending, approved, or in-progress leave
	// requests for the staff member.
	ActiveForStaff(ctx context.Context, staffID uuid.UUID) ([]*LeaveRequest, error)
}
