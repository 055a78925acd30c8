package pharmacy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock movement types.
const (
	MovementPurchase   = "purchase"
	MovementDispense   = "dispense"
	MovementAdjustment = "adjustment"
	MovementReturn     = "return"
	MovementExpired    = "expired"
)

// Medicine is an inventory item tracked at unit granularity.
// CurrentStock must never go negative.
type Medicine struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	GenericName  *string         `json:"generic_name,omitempty"`
	Category     *string         `json:"category,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	BatchNumber  *string         `json:"batch_number,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CurrentStock int             `json:"current_stock"`
	MinStock     int             `json:"min_stock"`
	MaxStock     int             `json:"max_stock"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	VendorID     *uuid.UUID      `json:"vendor_id,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStock reports whether current stock has fallen to or below the
// minimum threshold.
func (m *Medicine) LowStock() bool {
	return m.CurrentStock <= m.MinStock
}

// Vendor is a medicine supplier.
type Vendor struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Address       *string   `json:"address,omitempty"`
	GSTNumber     *string   `json:"gst_number,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockMovement is an append-only record of a stock level change.
// Quantity is positive for inbound movements and negative for outbound.
type StockMovement struct {
	ID         uuid.UUID `json:"id"`
	MedicineID uuid.UUID `json:"medicine_id"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	Reference  *string   `json:"reference,omitempty"`
	Note       *string   `json:"note,omitempty"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
