package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

// CanonicalItem is a purchased line regardless of the schema it was stored in.
// Name and Image stay nil when a legacy product cannot be resolved.
type CanonicalItem struct {
	ProductID       *uuid.UUID      `json:"product_id"`
	Name            *string         `json:"name"`
	Image           *string         `json:"image"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	Color           *string         `json:"color,omitempty"`
	Storage         *string         `json:"storage,omitempty"`
}

// NormalizedOrder is the canonical read model of one ledger row.
type NormalizedOrder struct {
	Header
	Schema Schema          `json:"schema"`
	Items  []CanonicalItem `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type catalogLookup interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	BundleOffersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.BundleOffer, error)
}

// Normalizer converts ledger rows into NormalizedOrder values.
type Normalizer struct {
	catalog catalogLookup
	logg    *logger.Logger
}

// NewNormalizer builds a normalizer that enriches legacy rows from the catalogs.
func NewNormalizer(catalog catalogLookup, logg *logger.Logger) (*Normalizer, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	return &Normalizer{catalog: catalog, logg: logg}, nil
}

// Normalize never fails: catalog errors and unknown products degrade legacy
// rows to a sparse item.
func (n *Normalizer) Normalize(ctx context.Context, rows []models.Order) []NormalizedOrder {
	records := make([]Record, 0, len(rows))
	var legacyIDs []uuid.UUID
	for _, row := range rows {
		record := Classify(row)
		records = append(records, record)
		if legacy, ok := record.(LegacyOrder); ok && legacy.ProductID != nil {
			legacyIDs = append(legacyIDs, *legacy.ProductID)
		}
	}

	entries := n.resolveCatalog(ctx, legacyIDs)
	out := make([]NormalizedOrder, 0, len(records))
	for _, record := range records {
		out = append(out, normalizeRecord(record, entries))
	}
	return out
}

type catalogEntry struct {
	name  *string
	image *string
}

func (n *Normalizer) resolveCatalog(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]catalogEntry {
	entries := map[uuid.UUID]catalogEntry{}
	if len(ids) == 0 {
		return entries
	}

	products, err := n.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		n.warn(ctx, "primary catalog lookup failed", err)
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if p, ok := products[id]; ok {
			name := p.Name
			entries[id] = catalogEntry{name: &name, image: p.Image}
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return entries
	}

	bundles, err := n.catalog.BundleOffersByIDs(ctx, missing)
	if err != nil {
		n.warn(ctx, "bundle catalog lookup failed", err)
	}
	for _, id := range missing {
		if b, ok := bundles[id]; ok {
			name := b.Name
			entries[id] = catalogEntry{name: &name, image: b.Image}
		}
	}
	return entries
}

func (n *Normalizer) warn(ctx context.Context, msg string, err error) {
	if n.logg == nil {
		return
	}
	ctx = n.logg.WithField(ctx, "error", err.Error())
	n.logg.Warn(ctx, msg)
}

func normalizeRecord(record Record, entries map[uuid.UUID]catalogEntry) NormalizedOrder {
	switch r := record.(type) {
	case CurrentOrder:
		return normalizeCurrent(r)
	case LegacyOrder:
		return normalizeLegacy(r, entries)
	}
	panic(fmt.Sprintf("orders: unknown record type %T", record))
}

func normalizeCurrent(order CurrentOrder) NormalizedOrder {
	items := make([]CanonicalItem, 0, len(order.Items))
	total := decimal.Zero
	for _, item := range order.Items {
		id := item.ID
		items = append(items, CanonicalItem{
			ProductID:       &id,
			Name:            item.Name,
			Image:           item.Image,
			Price:           item.Price,
			OriginalPrice:   item.OriginalPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
			Color:           item.Color,
			Storage:         item.Storage,
		})
		total = total.Add(item.LineTotal())
	}
	return NormalizedOrder{Header: order.Header, Schema: SchemaCurrent, Items: items, Total: total}
}

func normalizeLegacy(order LegacyOrder, entries map[uuid.UUID]catalogEntry) NormalizedOrder {
	item := CanonicalItem{
		ProductID:       order.ProductID,
		Quantity:        order.Quantity,
		Price:           order.TotalPrice,
		OriginalPrice:   order.TotalPrice,
		DiscountPercent: decimal.Zero,
	}
	if order.Quantity > 0 {
		unit := order.TotalPrice.Div(decimal.NewFromInt(int64(order.Quantity))).Round(2)
		item.Price = unit
		item.OriginalPrice = unit
	}
	if order.ProductID != nil {
		if entry, ok := entries[*order.ProductID]; ok {
			item.Name = entry.name
			item.Image = entry.image
		}
	}
	return NormalizedOrder{
		Header: order.Header,
		Schema: SchemaLegacy,
		Items:  []CanonicalItem{item},
		Total:  order.TotalPrice,
	}
}
