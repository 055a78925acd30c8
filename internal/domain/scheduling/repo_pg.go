package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewave/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, start_time, end_time, reason, status, notes, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &a.EndTime,
		&a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, reason, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.StartTime, a.EndTime, a.Reason, a.Status, a.Notes)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET start_time=$2, end_time=$3, reason=$4, status=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.StartTime, a.EndTime, a.Reason, a.Status, a.Notes)
	return err
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE appointments SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE patient_id = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3`,
		doctorID, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time LIMIT $4 OFFSET $5`,
		doctorID, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *appointmentRepoPG) ActiveForDoctorBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE doctor_id = $1 AND status IN ('scheduled', 'checked-in')
		   AND start_time < $3 AND end_time > $2`,
		doctorID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := r.collect(rows, 0)
	return items, err
}

func (r *appointmentRepoPG) collect(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

// =========== Shift Repository ===========

type shiftRepoPG struct{ pool *pgxpool.Pool }

func NewShiftRepoPG(pool *pgxpool.Pool) ShiftRepository { return &shiftRepoPG{pool: pool} }

func (r *shiftRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const shiftCols = `id, staff_id, shift_date, start_time, end_time, ward, status, created_at, updated_at`

func (r *shiftRepoPG) scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	err := row.Scan(&s.ID, &s.StaffID, &s.ShiftDate, &s.StartTime, &s.EndTime,
		&s.Ward, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *shiftRepoPG) Create(ctx context.Context, s *Shift) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_shifts (id, staff_id, shift_date, start_time, end_time, ward, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.StaffID, s.ShiftDate, s.StartTime, s.EndTime, s.Ward, s.Status)
	return err
}

func (r *shiftRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return r.scanShift(r.conn(ctx).QueryRow(ctx, `SELECT `+shiftCols+` FROM staff_shifts WHERE id = $1`, id))
}

func (r *shiftRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE staff_shifts SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *shiftRepoPG) ListByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Shift, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff_shifts WHERE staff_id = $1`, staffID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM staff_shifts WHERE staff_id = $1 ORDER BY shift_date DESC, start_time LIMIT $2 OFFSET $3`,
		staffID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *shiftRepoPG) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*Shift, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff_shifts WHERE shift_date = $1`, date).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM staff_shifts WHERE shift_date = $1 ORDER BY start_time LIMIT $2 OFFSET $3`,
		date, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *shiftRepoPG) ActiveForStaffOnDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+shiftCols+` FROM staff_shifts
		 WHERE staff_id = $1 AND shift_date = $2 AND status IN ('scheduled', 'in-progress')`,
		staffID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := r.collect(rows, 0)
	return items, err
}

func (r *shiftRepoPG) collect(rows pgx.Rows, total int) ([]*Shift, int, error) {
	var items []*Shift
	for rows.Next() {
		s, err := r.scanShift(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

// =========== Leave Repository ===========

type leaveRepoPG struct{ pool *pgxpool.Pool }

func NewLeaveRepoPG(pool *pgxpool.Pool) LeaveRepository { return &leaveRepoPG{pool: pool} }

func (r *leaveRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const leaveCols = `id, staff_id, start_date, end_date, leave_type, reason, status, reviewed_by, reviewed_at, created_at, updated_at`

func (r *leaveRepoPG) scanLeave(row pgx.Row) (*LeaveRequest, error) {
	var l LeaveRequest
	err := row.Scan(&l.ID, &l.StaffID, &l.StartDate, &l.EndDate, &l.LeaveType,
		&l.Reason, &l.Status, &l.ReviewedBy, &l.ReviewedAt, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *leaveRepoPG) Create(ctx context.Context, l *LeaveRequest) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO leave_requests (id, staff_id, start_date, end_date, leave_type, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.StaffID, l.StartDate, l.EndDate, l.LeaveType, l.Reason, l.Status)
	return err
}

func (r *leaveRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	return r.scanLeave(r.conn(ctx).QueryRow(ctx, `SELECT `+leaveCols+` FROM leave_requests WHERE id = $1`, id))
}

func (r *leaveRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reviewedBy uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE leave_requests SET status=$2, reviewed_by=$3, reviewed_at=NOW(), updated_at=NOW() WHERE id = $1`,
		id, status, reviewedBy)
	return err
}

func (r *leaveRepoPG) ListByStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*LeaveRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests WHERE staff_id = $1`, staffID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+leaveCols+` FROM leave_requests WHERE staff_id = $1 ORDER BY start_date DESC LIMIT $2 OFFSET $3`,
		staffID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *leaveRepoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*LeaveRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+leaveCols+` FROM leave_requests WHERE status = $1 ORDER BY start_date LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *leaveRepoPG) ActiveForStaff(ctx context.Context, staffID uuid.UUID) ([]*LeaveRequest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+leaveCols+` FROM leave_requests
		 WHERE staff_id = $1 AND status IN ('pending', 'approved', 'in-progress')`,
		staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := r.collect(rows, 0)
	return items, err
}

func (r *leaveRepoPG) collect(rows pgx.Rows, total int) ([]*LeaveRequest, int, error) {
	var items []*LeaveRequest
	for rows.Next() {
		l, err := r.scanLeave(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}
