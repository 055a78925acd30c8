package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func item(qty int, price, taxRate string) *LineItem {
	return &LineItem{Quantity: qty, UnitPrice: dec(price), TaxRate: dec(taxRate)}
}

func TestComputeTotals(t *testing.T) {
	pct10 := dec("10")
	fixed50 := dec("50")

	tests := []struct {
		name     string
		items    []*LineItem
		discount *Discount
		want     Totals
	}{
		{
			name:  "two items with tax and percentage discount",
			items: []*LineItem{item(1, "100.00", "10"), item(1, "100.00", "10")},
			discount: &Discount{
				Percentage: &pct10,
			},
			want: Totals{
				Subtotal:       dec("200.00"),
				TotalTax:       dec("20.00"),
				TotalAmount:    dec("220.00"),
				DiscountAmount: dec("22.00"),
				FinalAmount:    dec("198.00"),
			},
		},
		{
			name:  "no discount",
			items: []*LineItem{item(3, "49.99", "0")},
			want: Totals{
				Subtotal:       dec("149.97"),
				TotalTax:       dec("0.00"),
				TotalAmount:    dec("149.97"),
				DiscountAmount: dec("0.00"),
				FinalAmount:    dec("149.97"),
			},
		},
		{
			name:     "fixed discount",
			items:    []*LineItem{item(2, "100.00", "5")},
			discount: &Discount{Amount: &fixed50},
			want: Totals{
				Subtotal:       dec("200.00"),
				TotalTax:       dec("10.00"),
				TotalAmount:    dec("210.00"),
				DiscountAmount: dec("50.00"),
				FinalAmount:    dec("160.00"),
			},
		},
		{
			name:  "empty items",
			items: nil,
			want: Totals{
				Subtotal:       dec("0"),
				TotalTax:       dec("0"),
				TotalAmount:    dec("0"),
				DiscountAmount: dec("0"),
				FinalAmount:    dec("0"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.items, tt.discount)
			if err != nil {
				t.Fatalf("ComputeTotals: %v", err)
			}
			check := func(field string, got, want decimal.Decimal) {
				if !got.Equal(want) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("Subtotal", got.Subtotal, tt.want.Subtotal)
			check("TotalTax", got.TotalTax, tt.want.TotalTax)
			check("TotalAmount", got.TotalAmount, tt.want.TotalAmount)
			check("DiscountAmount", got.DiscountAmount, tt.want.DiscountAmount)
			check("FinalAmount", got.FinalAmount, tt.want.FinalAmount)
		})
	}
}

func TestComputeTotalsDiscountExceedsTotal(t *testing.T) {
	over := dec("250")
	_, err := ComputeTotals([]*LineItem{item(1, "200.00", "0")}, &Discount{Amount: &over})
	if !errors.Is(err, ErrDiscountExceeds) {
		t.Fatalf("err = %v, want ErrDiscountExceeds", err)
	}
}

func TestComputeTotalsFullDiscount(t *testing.T) {
	full := dec("100")
	got, err := ComputeTotals([]*LineItem{item(1, "100.00", "0")}, &Discount{Percentage: &full})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if !got.FinalAmount.IsZero() {
		t.Errorf("FinalAmount = %s, want 0", got.FinalAmount)
	}
}

func TestComputeTotalsValidation(t *testing.T) {
	negPct := dec("-5")
	overPct := dec("101")
	negAmt := dec("-10")

	tests := []struct {
		name     string
		items    []*LineItem
		discount *Discount
		wantErr  error
	}{
		{"negative quantity", []*LineItem{item(-1, "10.00", "0")}, nil, ErrNegativeQuantity},
		{"negative unit price", []*LineItem{item(1, "-10.00", "0")}, nil, ErrNegativeUnitPrice},
		{"negative percentage", []*LineItem{item(1, "10.00", "0")}, &Discount{Percentage: &negPct}, nil},
		{"percentage over 100", []*LineItem{item(1, "10.00", "0")}, &Discount{Percentage: &overPct}, nil},
		{"negative fixed amount", []*LineItem{item(1, "10.00", "0")}, &Discount{Amount: &negAmt}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotals(tt.items, tt.discount)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Recomputing from stored inputs must reproduce the stored totals exactly,
// otherwise a discount applied later would silently shift the other amounts.
func TestComputeTotalsDeterministic(t *testing.T) {
	pct := dec("12.5")
	items := []*LineItem{item(3, "33.33", "18"), item(7, "9.99", "5")}

	first, err := ComputeTotals(items, &Discount{Percentage: &pct})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	second, err := ComputeTotals(items, &Discount{Percentage: &pct})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if !first.FinalAmount.Equal(second.FinalAmount) || !first.TotalTax.Equal(second.TotalTax) {
		t.Errorf("recompute diverged: %+v vs %+v", first, second)
	}
}
