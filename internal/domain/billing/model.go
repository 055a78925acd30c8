package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill statuses.
const (
	BillPending = "pending"
	BillPartial = "partial"
	BillPaid    = "paid"
)

// Payment statuses. Pending payments come from gateway modes that have not
// settled; they do not count towards the outstanding amount until confirmed.
const (
	PaymentCompleted = "completed"
	PaymentPending   = "pending"
)

// Payment modes.
const (
	ModeCash      = "cash"
	ModeCard      = "card"
	ModeUPI       = "upi"
	ModeInsurance = "insurance"
	ModeCheque    = "cheque"
)

// Bill is an invoice for a patient. Totals are computed once from the line
// items and discount, rounded to 2 decimal places at persistence, and
// treated as immutable afterwards except through discount application.
type Bill struct {
	ID             uuid.UUID       `json:"id"`
	BillNumber     string          `json:"bill_number"`
	PatientID      uuid.UUID       `json:"patient_id"`
	AppointmentID  *uuid.UUID      `json:"appointment_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountReason *string         `json:"discount_reason,omitempty"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Status         string          `json:"status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Items          []*LineItem     `json:"items,omitempty"`
	Payments       []*Payment      `json:"payments,omitempty"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Outstanding is the remainder owed against the bill, counting only
// completed payments.
func (b *Bill) Outstanding() decimal.Decimal {
	return b.FinalAmount.Sub(b.PaidAmount)
}

// LineItem is one billable entry on a bill. TaxRate is a percentage.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	BillID      uuid.UUID       `json:"bill_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Discount is either a percentage of the total amount or a fixed amount.
type Discount struct {
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Reason     *string          `json:"reason,omitempty"`
}

// Payment is an immutable record of money applied towards a bill. Details
// holds mode-specific sub-fields (card last four, UPI handle, policy
// number, cheque number).
type Payment struct {
	ID            uuid.UUID         `json:"id"`
	BillID        uuid.UUID         `json:"bill_id"`
	Amount        decimal.Decimal   `json:"amount"`
	Mode          string            `json:"mode"`
	Status        string            `json:"status"`
	TransactionID *string           `json:"transaction_id,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	ReceivedBy    *uuid.UUID        `json:"received_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Totals are the four computed amounts for a bill.
type Totals struct {
	Subtotal       decimal.Decimal
	TotalTax       decimal.Decimal
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// CreateBillRequest is the payload for generating a bill.
type CreateBillRequest struct {
	PatientID     uuid.UUID   `json:"patient_id"`
	AppointmentID *uuid.UUID  `json:"appointment_id,omitempty"`
	Items         []*LineItem `json:"items"`
	Discount      *Discount   `json:"discount,omitempty"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
}

// PaymentRequest is the payload for applying a payment to a bill.
type PaymentRequest struct {
	Amount  decimal.Decimal   `json:"amount"`
	Mode    string            `json:"mode"`
	Details map[string]string `json:"details,omitempty"`
}
