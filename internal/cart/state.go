package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/internal/pricing"
)

// LineItem is one cart line. Color, Storage, BrandID and MaxStock are optional;
// a nil MaxStock means stock is not tracked and no upper clamp applies.
type LineItem struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Color             *string         `json:"color,omitempty"`
	Storage           *string         `json:"storage,omitempty"`
	Name              string          `json:"name"`
	Image             *string         `json:"image,omitempty"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	OriginalUnitPrice decimal.Decimal `json:"original_unit_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	Quantity          int             `json:"quantity"`
	BrandID           *uuid.UUID      `json:"brand_id,omitempty"`
	MaxStock          *int            `json:"max_stock,omitempty"`
}

// Identity is the merge key of a line: product plus selected color and storage.
type Identity struct {
	ProductID uuid.UUID
	Color     string
	Storage   string
}

// NewIdentity builds an Identity, treating nil options as unselected.
// Options compare case-insensitively.
func NewIdentity(productID uuid.UUID, color, storage *string) Identity {
	return Identity{ProductID: productID, Color: optionKey(color), Storage: optionKey(storage)}
}

// Identity returns the merge key of the line.
func (l LineItem) Identity() Identity {
	return NewIdentity(l.ProductID, l.Color, l.Storage)
}

// EffectiveOriginalPrice falls back to UnitPrice when no original price was captured.
func (l LineItem) EffectiveOriginalPrice() decimal.Decimal {
	if l.OriginalUnitPrice.IsZero() {
		return l.UnitPrice
	}
	return l.OriginalUnitPrice
}

func (l LineItem) pricingLine() pricing.Line {
	return pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity, BrandID: l.BrandID}
}

// State is a session cart. Every transition returns a new State and leaves the
// receiver untouched.
type State struct {
	Items     []LineItem                `json:"items"`
	IsOpen    bool                      `json:"open"`
	Promotion *pricing.AppliedPromotion `json:"promotion,omitempty"`
}

// Add merges item into the line with the same identity, or appends it.
func (s State) Add(item LineItem) State {
	next := s.clone()
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	id := item.Identity()
	for i := range next.Items {
		if next.Items[i].Identity() != id {
			continue
		}
		line := &next.Items[i]
		if item.MaxStock != nil {
			line.MaxStock = item.MaxStock
		}
		line.Quantity = clampQuantity(line.Quantity+item.Quantity, line.MaxStock)
		return next
	}
	item.Quantity = clampQuantity(item.Quantity, item.MaxStock)
	next.Items = append(next.Items, item)
	return next
}

// UpdateQuantity sets the quantity of the matching line, clamped to [1, MaxStock].
func (s State) UpdateQuantity(id Identity, qty int) State {
	next := s.clone()
	for i := range next.Items {
		if next.Items[i].Identity() == id {
			next.Items[i].Quantity = clampQuantity(qty, next.Items[i].MaxStock)
			break
		}
	}
	return next
}

// Remove drops the matching line. Removing an absent line is a no-op.
func (s State) Remove(id Identity) State {
	next := s.clone()
	kept := next.Items[:0]
	for _, line := range next.Items {
		if line.Identity() != id {
			kept = append(kept, line)
		}
	}
	next.Items = kept
	return next
}

// Clear empties the cart and drops the applied promotion. Visibility is kept.
func (s State) Clear() State {
	return State{Items: []LineItem{}, IsOpen: s.IsOpen}
}

func (s State) Open() State {
	next := s.clone()
	next.IsOpen = true
	return next
}

func (s State) Close() State {
	next := s.clone()
	next.IsOpen = false
	return next
}

// WithPromotion attaches a validated promotion.
func (s State) WithPromotion(promo pricing.AppliedPromotion) State {
	next := s.clone()
	next.Promotion = &promo
	return next
}

func (s State) WithoutPromotion() State {
	next := s.clone()
	next.Promotion = nil
	return next
}

// Totals derives money totals through the pricing rules on every call.
func (s State) Totals() pricing.Totals {
	lines := make([]pricing.Line, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, item.pricingLine())
	}
	return pricing.CartTotals(lines, s.Promotion)
}

// ItemCount is the sum of all line quantities.
func (s State) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// BrandIDs returns the distinct brands present in the cart.
func (s State) BrandIDs() []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := []uuid.UUID{}
	for _, item := range s.Items {
		if item.BrandID == nil {
			continue
		}
		if _, ok := seen[*item.BrandID]; ok {
			continue
		}
		seen[*item.BrandID] = struct{}{}
		out = append(out, *item.BrandID)
	}
	return out
}

func (s State) clone() State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	next := State{Items: items, IsOpen: s.IsOpen}
	if s.Promotion != nil {
		promo := *s.Promotion
		promo.Discounts = append([]pricing.BrandDiscount(nil), s.Promotion.Discounts...)
		next.Promotion = &promo
	}
	return next
}

func clampQuantity(qty int, maxStock *int) int {
	if maxStock != nil && *maxStock >= 1 && qty > *maxStock {
		qty = *maxStock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

func optionKey(value *string) string {
	if value == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*value))
}
