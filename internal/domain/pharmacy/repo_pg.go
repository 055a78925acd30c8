package pharmacy

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

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

func (r *medicineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, generic_name, category, manufacturer, batch_number, unit_price,
	current_stock, min_stock, max_stock, expiry_date, vendor_id, active, created_at, updated_at`

func (r *medicineRepoPG) scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.Category, &m.Manufacturer, &m.BatchNumber,
		&m.UnitPrice, &m.CurrentStock, &m.MinStock, &m.MaxStock, &m.ExpiryDate, &m.VendorID,
		&m.Active, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicines (id, name, generic_name, category, manufacturer, batch_number, unit_price,
			current_stock, min_stock, max_stock, expiry_date, vendor_id, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		m.ID, m.Name, m.GenericName, m.Category, m.Manufacturer, m.BatchNumber, m.UnitPrice,
		m.CurrentStock, m.MinStock, m.MaxStock, m.ExpiryDate, m.VendorID, m.Active)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return r.scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return r.scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE id = $1 FOR UPDATE`, id))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET name=$2, generic_name=$3, category=$4, manufacturer=$5, batch_number=$6,
			unit_price=$7, min_stock=$8, max_stock=$9, expiry_date=$10, vendor_id=$11, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.GenericName, m.Category, m.Manufacturer, m.BatchNumber,
		m.UnitPrice, m.MinStock, m.MaxStock, m.ExpiryDate, m.VendorID)
	return err
}

// AdjustStock applies a delta guarded by a non-negative check in the WHERE
// clause. Zero rows affected means the decrement would go negative.
func (r *medicineRepoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medicines SET current_stock = current_stock + $2, updated_at=NOW()
		 WHERE id = $1 AND current_stock + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *medicineRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE medicines SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *medicineRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Medicine, int, error) {
	pattern := "%" + query + "%"
	const where = ` WHERE active AND (name ILIKE $1 OR generic_name ILIKE $1 OR category ILIKE $1)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines`+where+` ORDER BY name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *medicineRepoPG) ListLowStock(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	const where = ` WHERE active AND current_stock <= min_stock`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines`+where+` ORDER BY current_stock LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *medicineRepoPG) ListExpiringBefore(ctx context.Context, cutoff time.Time, limit, offset int) ([]*Medicine, int, error) {
	const where = ` WHERE active AND expiry_date IS NOT NULL AND expiry_date <= $1`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`+where, cutoff).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines`+where+` ORDER BY expiry_date LIMIT $2 OFFSET $3`,
		cutoff, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *medicineRepoPG) collect(rows pgx.Rows, total int) ([]*Medicine, int, error) {
	var items []*Medicine
	for rows.Next() {
		m, err := r.scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

// =========== Vendor Repository ===========

type vendorRepoPG struct{ pool *pgxpool.Pool }

func NewVendorRepoPG(pool *pgxpool.Pool) VendorRepository { return &vendorRepoPG{pool: pool} }

func (r *vendorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const vendorCols = `id, name, contact_person, phone, email, address, gst_number, active, created_at, updated_at`

func (r *vendorRepoPG) scanVendor(row pgx.Row) (*Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.Address,
		&v.GSTNumber, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *vendorRepoPG) Create(ctx context.Context, v *Vendor) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vendors (id, name, contact_person, phone, email, address, gst_number, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.Name, v.ContactPerson, v.Phone, v.Email, v.Address, v.GSTNumber, v.Active)
	return err
}

func (r *vendorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	return r.scanVendor(r.conn(ctx).QueryRow(ctx, `SELECT `+vendorCols+` FROM vendors WHERE id = $1`, id))
}

func (r *vendorRepoPG) Update(ctx context.Context, v *Vendor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE vendors SET name=$2, contact_person=$3, phone=$4, email=$5, address=$6, gst_number=$7, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.Name, v.ContactPerson, v.Phone, v.Email, v.Address, v.GSTNumber)
	return err
}

func (r *vendorRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE vendors SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	return err
}

func (r *vendorRepoPG) List(ctx context.Context, limit, offset int) ([]*Vendor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vendors`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vendorCols+` FROM vendors ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Vendor
	for rows.Next() {
		v, err := r.scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, nil
}

// =========== Movement Repository ===========

type movementRepoPG struct{ pool *pgxpool.Pool }

func NewMovementRepoPG(pool *pgxpool.Pool) MovementRepository { return &movementRepoPG{pool: pool} }

func (r *movementRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const movementCols = `id, medicine_id, type, quantity, reference, note, actor_id, created_at`

func (r *movementRepoPG) Create(ctx context.Context, m *StockMovement) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_movements (id, medicine_id, type, quantity, reference, note, actor_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.MedicineID, m.Type, m.Quantity, m.Reference, m.Note, m.ActorID)
	return err
}

func (r *movementRepoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE medicine_id = $1`, medicineID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+movementCols+` FROM stock_movements WHERE medicine_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		medicineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.MedicineID, &m.Type, &m.Quantity, &m.Reference, &m.Note, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &m)
	}
	return items, total, nil
}
