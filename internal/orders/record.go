package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/types"
)

// Schema names the historical shape an order row was written under.
type Schema string

const (
	SchemaLegacy  Schema = "legacy"
	SchemaCurrent Schema = "current"
)

// Header holds the fields shared by both order shapes.
type Header struct {
	ID           uuid.UUID         `json:"id"`
	CustomerName string            `json:"customer_name"`
	PhoneNumber  string            `json:"phone_number"`
	Address      string            `json:"address"`
	Status       enums.OrderStatus `json:"status"`
	PromoCode    *string           `json:"promo_code"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Record is either a LegacyOrder or a CurrentOrder.
type Record interface {
	OrderHeader() Header
	Schema() Schema
	isRecord()
}

// LegacyOrder is a single-product order with a stored total.
type LegacyOrder struct {
	Header
	ProductID  *uuid.UUID
	Quantity   int
	TotalPrice decimal.Decimal
}

// CurrentOrder carries the line items baked at checkout.
type CurrentOrder struct {
	Header
	Items types.OrderLineItems
}

func (o LegacyOrder) OrderHeader() Header  { return o.Header }
func (o CurrentOrder) OrderHeader() Header { return o.Header }

func (LegacyOrder) Schema() Schema  { return SchemaLegacy }
func (CurrentOrder) Schema() Schema { return SchemaCurrent }

func (LegacyOrder) isRecord()  {}
func (CurrentOrder) isRecord() {}

// Classify turns a ledger row into its variant. A non-empty items array marks
// the current shape; anything else is legacy.
func Classify(row models.Order) Record {
	header := Header{
		ID:           row.ID,
		CustomerName: row.CustomerName,
		PhoneNumber:  row.PhoneNumber,
		Address:      row.Address,
		Status:       row.Status,
		PromoCode:    cleanPromoCode(row.PromoCode),
		CreatedAt:    row.CreatedAt,
	}
	if len(row.Items) > 0 {
		return CurrentOrder{Header: header, Items: row.Items}
	}

	legacy := LegacyOrder{Header: header, ProductID: row.ProductID, TotalPrice: decimal.Zero}
	if row.Quantity != nil {
		legacy.Quantity = *row.Quantity
	}
	if row.TotalPrice.Valid {
		legacy.TotalPrice = row.TotalPrice.Decimal
	}
	return legacy
}

func cleanPromoCode(code *string) *string {
	if code == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*code))
	if v == "" {
		return nil
	}
	return &v
}
