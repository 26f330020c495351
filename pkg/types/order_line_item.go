package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem is one purchased line as written into the orders.items column.
// Price is the post-discount unit price baked in at checkout.
type OrderLineItem struct {
	ID              uuid.UUID       `json:"id"`
	Name            *string         `json:"name"`
	Image           *string         `json:"image"`
	BrandID         *uuid.UUID      `json:"brand_id,omitempty"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	Color           *string         `json:"color,omitempty"`
	Storage         *string         `json:"storage,omitempty"`
}

// LineTotal returns price × quantity.
func (i OrderLineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderLineItems maps to the jsonb items column. A nil slice is stored as SQL NULL.
type OrderLineItems []OrderLineItem

// Value implements driver.Valuer.
func (o OrderLineItems) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	payload, err := json.Marshal([]OrderLineItem(o))
	if err != nil {
		return nil, fmt.Errorf("order line items: marshal %w", err)
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (o *OrderLineItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order line items: unsupported type %T", value)
	}

	if strings.TrimSpace(string(raw)) == "" || string(raw) == "null" {
		*o = nil
		return nil
	}

	var items []OrderLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("order line items: unmarshal %w", err)
	}
	*o = items
	return nil
}

// GormDataType lets gorm pick jsonb for Postgres migrations.
func (OrderLineItems) GormDataType() string {
	return "jsonb"
}
