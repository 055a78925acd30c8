package prescription

import (
	"context"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const prescriptionCols = `id, patient_id, doctor_id, appointment_id, diagnosis, notes, dispensing_status, created_at, updated_at`

const lineCols = `id, prescription_id, medicine_id, medicine_name, dosage, frequency, duration_days,
	quantity, dispensed_quantity, unit_price, status, created_at, updated_at`

func (r *repoPG) scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.AppointmentID, &p.Diagnosis,
		&p.Notes, &p.DispensingStatus, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) scanLine(row pgx.Row) (*MedicationLine, error) {
	var l MedicationLine
	err := row.Scan(&l.ID, &l.PrescriptionID, &l.MedicineID, &l.MedicineName, &l.Dosage, &l.Frequency,
		&l.DurationDays, &l.Quantity, &l.DispensedQuantity, &l.UnitPrice, &l.Status,
		&l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

// Create inserts the prescription and all of its lines. Callers wrap this
// in a transaction via db.WithTx.
func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, appointment_id, diagnosis, notes, dispensing_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.PatientID, p.DoctorID, p.AppointmentID, p.Diagnosis, p.Notes, p.DispensingStatus)
	if err != nil {
		return err
	}
	for _, l := range p.Lines {
		l.ID = uuid.New()
		l.PrescriptionID = p.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_lines (id, prescription_id, medicine_id, medicine_name, dosage,
				frequency, duration_days, quantity, dispensed_quantity, unit_price, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			l.ID, l.PrescriptionID, l.MedicineID, l.MedicineName, l.Dosage,
			l.Frequency, l.DurationDays, l.Quantity, l.DispensedQuantity, l.UnitPrice, l.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := r.scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	p.Lines, err = r.GetLines(ctx, id)
	return p, err
}

func (r *repoPG) GetLines(ctx context.Context, prescriptionID uuid.UUID) ([]*MedicationLine, error) {
	return r.queryLines(ctx,
		`SELECT `+lineCols+` FROM prescription_lines WHERE prescription_id = $1 ORDER BY created_at`, prescriptionID)
}

func (r *repoPG) GetLinesForUpdate(ctx context.Context, prescriptionID uuid.UUID) ([]*MedicationLine, error) {
	return r.queryLines(ctx,
		`SELECT `+lineCols+` FROM prescription_lines WHERE prescription_id = $1 ORDER BY created_at FOR UPDATE`, prescriptionID)
}

func (r *repoPG) queryLines(ctx context.Context, sql string, prescriptionID uuid.UUID) ([]*MedicationLine, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*MedicationLine
	for rows.Next() {
		l, err := r.scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (r *repoPG) UpdateLineDispensed(ctx context.Context, lineID uuid.UUID, dispensed int, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_lines SET dispensed_quantity=$2, status=$3, updated_at=NOW() WHERE id = $1`,
		lineID, dispensed, status)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescriptions SET dispensing_status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE dispensing_status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE dispensing_status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) collect(rows pgx.Rows, total int) ([]*Prescription, int, error) {
	var items []*Prescription
	for rows.Next() {
		p, err := r.scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
