package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCheckedIn = "checked-in"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no-show"
)

// Shift statuses.
const (
	ShiftScheduled  = "scheduled"
	ShiftInProgress = "in-progress"
	ShiftCompleted  = "completed"
	ShiftCancelled  = "cancelled"
)

// Leave request statuses.
const (
	LeavePending    = "pending"
	LeaveApproved   = "approved"
	LeaveInProgress = "in-progress"
	LeaveRejected   = "rejected"
	LeaveCancelled  = "cancelled"
	LeaveCompleted  = "completed"
)

// Appointment is a booked consultation slot between a patient and a doctor.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    *string   `json:"reason,omitempty"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shift is a scheduled work period for a staff member on a single date.
// StartTime and EndTime are clock times in HH:MM form.
type Shift struct {
	ID        uuid.UUID `json:"id"`
	StaffID   uuid.UUID `json:"staff_id"`
	ShiftDate time.Time `json:"shift_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Ward      *string   `json:"ward,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaveRequest is a staff request for time off over a date range, inclusive
// of both endpoints.
type LeaveRequest struct {
	ID         uuid.UUID  `json:"id"`
	StaffID    uuid.UUID  `json:"staff_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	LeaveType  string     `json:"leave_type"`
	Reason     *string    `json:"reason,omitempty"`
	Status     string     `json:"status"`
	ReviewedBy *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Overlaps reports whether two half-open intervals intersect.
// Used for both shift clock-time ranges and appointment time ranges.
func Overlaps(newStart, newEnd, existingStart, existingEnd time.Time) bool {
	return newStart.Before(existingEnd) && newEnd.After(existingStart)
}

// ClockRangesOverlap compares two HH:MM clock ranges on the same date.
// Lexicographic comparison is correct for zero-padded 24-hour times.
func ClockRangesOverlap(newStart, newEnd, existingStart, existingEnd string) bool {
	return newStart < existingEnd && newEnd > existingStart
}

// DateRangesOverlap compares two inclusive date ranges.
func DateRangesOverlap(newStart, newEnd, existingStart, existingEnd time.Time) bool {
	return !newStart.After(existingEnd) && !newEnd.Before(existingStart)
}
