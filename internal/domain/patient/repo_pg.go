package patient

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

const patientCols = `id, mrn, first_name, last_name, gender, birth_date, phone, email,
	address_line, city, state, postal_code, blood_group, allergies,
	emergency_contact_name, emergency_contact_phone, insurance_provider, insurance_policy_no,
	active, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.Gender, &p.BirthDate, &p.Phone, &p.Email,
		&p.AddressLine, &p.City, &p.State, &p.PostalCode, &p.BloodGroup, &p.Allergies,
		&p.EmergencyName, &p.EmergencyPhone, &p.InsuranceProvider, &p.InsurancePolicyNo,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, mrn, first_name, last_name, gender, birth_date, phone, email,
			address_line, city, state, postal_code, blood_group, allergies,
			emergency_contact_name, emergency_contact_phone, insurance_provider, insurance_policy_no, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.Gender, p.BirthDate, p.Phone, p.Email,
		p.AddressLine, p.City, p.State, p.PostalCode, p.BloodGroup, p.Allergies,
		p.EmergencyName, p.EmergencyPhone, p.InsuranceProvider, p.InsurancePolicyNo, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE mrn = $1`, mrn))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, gender=$4, birth_date=$5, phone=$6, email=$7,
			address_line=$8, city=$9, state=$10, postal_code=$11, blood_group=$12, allergies=$13,
			emergency_contact_name=$14, emergency_contact_phone=$15,
			insurance_provider=$16, insurance_policy_no=$17, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Gender, p.BirthDate, p.Phone, p.Email,
		p.AddressLine, p.City, p.State, p.PostalCode, p.BloodGroup, p.Allergies,
		p.EmergencyName, p.EmergencyPhone, p.InsuranceProvider, p.InsurancePolicyNo)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE patients SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

// Search matches name fragments, phone, and MRN with a single ILIKE filter.
func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"
	const where = ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR mrn ILIKE $1 OR phone ILIKE $1`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients`+where+` ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *repoPG) collect(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) NextMRNSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('patient_mrn_seq')`).Scan(&n)
	return n, err
}
