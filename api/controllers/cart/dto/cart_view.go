package cartdto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartView is the storefront representation of a session cart.
type CartView struct {
	Items     []LineView      `json:"items"`
	Open      bool            `json:"open"`
	Promotion *PromotionView  `json:"promotion,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type LineView struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Image             *string         `json:"image,omitempty"`
	Color             *string         `json:"color,omitempty"`
	Storage           *string         `json:"storage,omitempty"`
	BrandID           *uuid.UUID      `json:"brand_id,omitempty"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	OriginalUnitPrice decimal.Decimal `json:"original_unit_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	Quantity          int             `json:"quantity"`
	MaxStock          *int            `json:"max_stock,omitempty"`
	LineTotal         decimal.Decimal `json:"line_total"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
}

type PromotionView struct {
	Code   string              `json:"code"`
	Brands []BrandDiscountView `json:"brands"`
}

type BrandDiscountView struct {
	BrandID            uuid.UUID       `json:"brand_id"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}
