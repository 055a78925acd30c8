package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/carewave/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Bill Repository ===========

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const billCols = `id, bill_number, patient_id, appointment_id, subtotal, total_tax, total_amount,
	discount_amount, discount_reason, final_amount, paid_amount, status, due_date, created_by,
	created_at, updated_at`

func (r *billRepoPG) scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNumber, &b.PatientID, &b.AppointmentID, &b.Subtotal, &b.TotalTax,
		&b.TotalAmount, &b.DiscountAmount, &b.DiscountReason, &b.FinalAmount, &b.PaidAmount,
		&b.Status, &b.DueDate, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

// Create inserts the bill and all of its line items. Callers wrap this in
// a transaction via db.WithTx.
func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bills (id, bill_number, patient_id, appointment_id, subtotal, total_tax, total_amount,
			discount_amount, discount_reason, final_amount, paid_amount, status, due_date, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.BillNumber, b.PatientID, b.AppointmentID, b.Subtotal, b.TotalTax, b.TotalAmount,
		b.DiscountAmount, b.DiscountReason, b.FinalAmount, b.PaidAmount, b.Status, b.DueDate, b.CreatedBy)
	if err != nil {
		return err
	}
	for _, item := range b.Items {
		item.ID = uuid.New()
		item.BillID = b.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO bill_items (id, bill_id, description, quantity, unit_price, tax_rate)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, item.BillID, item.Description, item.Quantity, item.UnitPrice, item.TaxRate)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := r.scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	b.Items, err = r.GetItems(ctx, id)
	return b, err
}

func (r *billRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return r.scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1 FOR UPDATE`, id))
}

func (r *billRepoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, bill_id, description, quantity, unit_price, tax_rate, created_at
		 FROM bill_items WHERE bill_id = $1 ORDER BY created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.TaxRate, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *billRepoPG) UpdateTotals(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bills SET discount_amount=$2, discount_reason=$3, final_amount=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.DiscountAmount, b.DiscountReason, b.FinalAmount, b.Status)
	return err
}

func (r *billRepoPG) UpdatePaymentState(ctx context.Context, id uuid.UUID, paidAmount decimal.Decimal, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE bills SET paid_amount=$2, status=$3, updated_at=NOW() WHERE id = $1`,
		id, paidAmount, status)
	return err
}

func (r *billRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+billCols+` FROM bills WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *billRepoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+billCols+` FROM bills WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *billRepoPG) collect(rows pgx.Rows, total int) ([]*Bill, int, error) {
	var items []*Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

func (r *billRepoPG) NextBillSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('bill_number_seq')`).Scan(&n)
	return n, err
}

// =========== Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const paymentCols = `id, bill_id, amount, mode, status, transaction_id, details, received_by, created_at`

func (r *paymentRepoPG) scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BillID, &p.Amount, &p.Mode, &p.Status, &p.TransactionID,
		&p.Details, &p.ReceivedBy, &p.CreatedAt)
	return &p, err
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (id, bill_id, amount, mode, status, transaction_id, details, received_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.BillID, p.Amount, p.Mode, p.Status, p.TransactionID, p.Details, p.ReceivedBy)
	return err
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return r.scanPayment(r.conn(ctx).QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1`, id))
}

func (r *paymentRepoPG) MarkCompleted(ctx context.Context, id uuid.UUID, transactionID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE payments SET status=$2, transaction_id=$3 WHERE id = $1`,
		id, PaymentCompleted, transactionID)
	return err
}

func (r *paymentRepoPG) ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE bill_id = $1 ORDER BY created_at`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}
