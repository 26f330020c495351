package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCartTotalsWithBrandPromotion(t *testing.T) {
	brandX := uuid.New()
	brandY := uuid.New()
	lines := []Line{
		{UnitPrice: d(100), Quantity: 2, BrandID: &brandX},
		{UnitPrice: d(50), Quantity: 1, BrandID: &brandY},
	}
	promo := &AppliedPromotion{
		Code:      "SAVE10",
		Discounts: []BrandDiscount{{BrandID: brandX, DiscountPercentage: d(10), ProfitPercentage: d(5)}},
	}

	totals := CartTotals(lines, promo)
	if !totals.Subtotal.Equal(d(250)) {
		t.Fatalf("expected subtotal 250, got %s", totals.Subtotal)
	}
	if !totals.Discount.Equal(d(20)) {
		t.Fatalf("expected discount 20, got %s", totals.Discount)
	}
	if !totals.Total.Equal(d(230)) {
		t.Fatalf("expected total 230, got %s", totals.Total)
	}
	if totals.ItemCount != 3 {
		t.Fatalf("expected 3 items, got %d", totals.ItemCount)
	}
}

func TestCartTotalsWithoutPromotion(t *testing.T) {
	brand := uuid.New()
	lines := []Line{
		{UnitPrice: d(99), Quantity: 3, BrandID: &brand},
		{UnitPrice: d(1), Quantity: 1},
	}
	totals := CartTotals(lines, nil)
	if !totals.Discount.IsZero() {
		t.Fatalf("expected zero discount without promotion, got %s", totals.Discount)
	}
	if !totals.Total.Equal(totals.Subtotal.Sub(totals.Discount)) {
		t.Fatalf("total must equal subtotal minus discount")
	}
	if !totals.Total.Equal(d(298)) {
		t.Fatalf("expected total 298, got %s", totals.Total)
	}
}

func TestCartTotalsEmpty(t *testing.T) {
	totals := CartTotals(nil, &AppliedPromotion{Code: "X"})
	if !totals.Subtotal.IsZero() || !totals.Discount.IsZero() || !totals.Total.IsZero() || totals.ItemCount != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestItemDiscountRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name  string
		price string
		qty   int
		pct   string
		want  string
	}{
		{name: "exact", price: "100", qty: 2, pct: "10", want: "20"},
		{name: "half rounds up", price: "25", qty: 1, pct: "10", want: "3"},
		{name: "below half rounds down", price: "24", qty: 1, pct: "10", want: "2"},
		{name: "fractional percentage", price: "199", qty: 1, pct: "12.5", want: "25"},
		{name: "zero percentage", price: "199", qty: 4, pct: "0", want: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := Line{UnitPrice: decimal.RequireFromString(tc.price), Quantity: tc.qty}
			got := ItemDiscount(line, decimal.RequireFromString(tc.pct))
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDiscountedUnitPrice(t *testing.T) {
	if got := DiscountedUnitPrice(d(100), d(10)); !got.Equal(d(90)) {
		t.Fatalf("expected 90, got %s", got)
	}
	if got := DiscountedUnitPrice(d(105), d(10)); !got.Equal(d(95)) {
		t.Fatalf("expected 94.5 to round to 95, got %s", got)
	}
	if got := DiscountedUnitPrice(decimal.RequireFromString("49.90"), decimal.Zero); !got.Equal(decimal.RequireFromString("49.9")) {
		t.Fatalf("zero percentage should keep the original price, got %s", got)
	}
}

func TestDiscountForIgnoresUnbrandedLines(t *testing.T) {
	brand := uuid.New()
	promo := &AppliedPromotion{Discounts: []BrandDiscount{{BrandID: brand, DiscountPercentage: d(15)}}}
	if _, ok := promo.DiscountFor(nil); ok {
		t.Fatalf("unbranded line must not match")
	}
	other := uuid.New()
	if _, ok := promo.DiscountFor(&other); ok {
		t.Fatalf("foreign brand must not match")
	}
	if got, ok := promo.DiscountFor(&brand); !ok || !got.DiscountPercentage.Equal(d(15)) {
		t.Fatalf("expected matching discount, got %+v ok=%v", got, ok)
	}
	var none *AppliedPromotion
	if _, ok := none.DiscountFor(&brand); ok {
		t.Fatalf("nil promotion must not match")
	}
}

func TestProfitShare(t *testing.T) {
	if got := ProfitShare(d(230), d(5)); !got.Equal(decimal.RequireFromString("11.5")) {
		t.Fatalf("expected 11.5, got %s", got)
	}
}
