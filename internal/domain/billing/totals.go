package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuantity  = errors.New("line item quantity must not be negative")
	ErrNegativeUnitPrice = errors.New("line item unit price must not be negative")
	ErrDiscountExceeds   = errors.New("discount amount exceeds total amount")
)

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives a bill's amounts from its line items and optional
// discount. The computation is pure and deterministic: intermediate math is
// exact decimal arithmetic, and rounding to 2 decimal places happens once,
// on the returned values. Recomputing from the same stored inputs always
// reproduces the same stored totals.
//
//	subtotal   = Σ(qty * unitPrice)
//	totalTax   = Σ(qty * unitPrice * taxRate / 100)
//	total      = subtotal + totalTax
//	discount   = total * pct / 100, or the fixed amount, or 0
//	final      = max(0, total - discount)
func ComputeTotals(items []*LineItem, discount *Discount) (*Totals, error) {
	subtotal := decimal.Zero
	totalTax := decimal.Zero

	for i, item := range items {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w (item %d)", ErrNegativeQuantity, i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w (item %d)", ErrNegativeUnitPrice, i)
		}
		if item.TaxRate.IsNegative() {
			return nil, fmt.Errorf("line item tax rate must not be negative (item %d)", i)
		}
		lineAmount := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineAmount)
		totalTax = totalTax.Add(lineAmount.Mul(item.TaxRate).Div(oneHundred))
	}

	totalAmount := subtotal.Add(totalTax)

	discountAmount := decimal.Zero
	if discount != nil {
		switch {
		case discount.Percentage != nil:
			if discount.Percentage.IsNegative() || discount.Percentage.GreaterThan(oneHundred) {
				return nil, fmt.Errorf("discount percentage must be between 0 and 100")
			}
			discountAmount = totalAmount.Mul(*discount.Percentage).Div(oneHundred)
		case discount.Amount != nil:
			if discount.Amount.IsNegative() {
				return nil, fmt.Errorf("discount amount must not be negative")
			}
			discountAmount = *discount.Amount
		}
	}
	if discountAmount.GreaterThan(totalAmount) {
		return nil, fmt.Errorf("%w: discount %s, total %s", ErrDiscountExceeds,
			discountAmount.StringFixed(2), totalAmount.StringFixed(2))
	}

	finalAmount := totalAmount.Sub(discountAmount)
	if finalAmount.IsNegative() {
		finalAmount = decimal.Zero
	}

	return &Totals{
		Subtotal:       subtotal.Round(2),
		TotalTax:       totalTax.Round(2),
		TotalAmount:    totalAmount.Round(2),
		DiscountAmount: discountAmount.Round(2),
		FinalAmount:    finalAmount.Round(2),
	}, nil
}
