// Package payment defines the adapter boundary between the billing domain
// and an external payment gateway. Real integrations (card processors, UPI
// PSPs, insurance clearinghouses) implement Gateway; the billing service
// never sees gateway-specific wire formats.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the outcome of a gateway charge attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusPending means the gateway accepted the charge but has not
	// settled it. The bill must not count the payment toward its
	// outstanding amount until a separate confirmation step completes it.
	StatusPending Status = "pending"
)

// Request describes a single charge attempt.
type Request struct {
	BillID    string          `json:"bill_id"`
	PatientID string          `json:"patient_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Mode      string          `json:"mode"` // card, upi, insurance, cheque
	// Mode-specific sub-fields, passed through opaquely.
	Details map[string]string `json:"details,omitempty"`
}

// Result is what the gateway reports back for a charge attempt.
type Result struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}

// Gateway processes payments. Process returns a non-nil Result describing
// the outcome; an error return means the gateway could not be reached at
// all and the charge state is unknown to us (treated as failure by
// callers, with no bill mutation).
type Gateway interface {
	Process(ctx context.Context, req Request) (*Result, error)
}
