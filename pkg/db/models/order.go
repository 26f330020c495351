package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/types"
)

// Order is a row of the orders ledger. Rows written before line items existed
// carry ProductID/Quantity/TotalPrice; current rows carry Items instead.
// IdempotencyKey is unique per SessionID, not globally.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	PhoneNumber    string               `gorm:"column:phone_number;not null"`
	Address        string               `gorm:"column:address;not null"`
	Status         enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PromoCode      *string              `gorm:"column:promo_code"`
	SessionID      *string              `gorm:"column:session_id;uniqueIndex:ux_orders_session_idempotency_key,priority:1"`
	IdempotencyKey *string              `gorm:"column:idempotency_key;uniqueIndex:ux_orders_session_idempotency_key,priority:2"`
	ProductID      *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	Quantity       *int                 `gorm:"column:quantity"`
	TotalPrice     decimal.NullDecimal  `gorm:"column:total_price;type:numeric(12,2)"`
	Items          types.OrderLineItems `gorm:"column:items;type:jsonb"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
