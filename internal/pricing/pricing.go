package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BrandDiscount is the discount and referral profit a promotion grants one brand.
type BrandDiscount struct {
	BrandID            uuid.UUID       `json:"brand_id"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ProfitPercentage   decimal.Decimal `json:"profit_percentage"`
}

// AppliedPromotion is a validated promo code together with the brand discounts
// that matched the cart at validation time.
type AppliedPromotion struct {
	Code      string          `json:"code"`
	Discounts []BrandDiscount `json:"discounts"`
}

// DiscountFor returns the brand discount matching brandID, if any.
func (p *AppliedPromotion) DiscountFor(brandID *uuid.UUID) (BrandDiscount, bool) {
	if p == nil || brandID == nil {
		return BrandDiscount{}, false
	}
	for _, d := range p.Discounts {
		if d.BrandID == *brandID {
			return d, true
		}
	}
	return BrandDiscount{}, false
}

// Line is the pricing view of a cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	BrandID   *uuid.UUID
}

// Gross returns unit price × quantity.
func (l Line) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the derived money summary of a cart.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Round rounds to the nearest whole currency unit, halves away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// ItemDiscount returns round(unitPrice × quantity × pct / 100).
func ItemDiscount(line Line, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return Round(line.Gross().Mul(pct).Div(hundred))
}

// CartTotals derives subtotal, discount and total for lines. A nil promotion
// yields a zero discount.
func CartTotals(lines []Line, promo *AppliedPromotion) Totals {
	totals := Totals{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
	}
	for _, line := range lines {
		totals.Subtotal = totals.Subtotal.Add(line.Gross())
		totals.ItemCount += line.Quantity
		if d, ok := promo.DiscountFor(line.BrandID); ok {
			totals.Discount = totals.Discount.Add(ItemDiscount(line, d.DiscountPercentage))
		}
	}
	totals.Total = totals.Subtotal.Sub(totals.Discount)
	return totals
}

// DiscountedUnitPrice returns round(original − original × pct / 100), the
// per-unit price stored on an order line.
func DiscountedUnitPrice(original, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return original
	}
	return Round(original.Sub(original.Mul(pct).Div(hundred)))
}

// ProfitShare returns amount × pct / 100.
func ProfitShare(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}
