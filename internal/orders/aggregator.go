package orders

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/internal/pricing"
	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
)

// NoPromotionKey is the bucket of orders placed without a promo code. Codes are
// stored upper-case so it never collides with a real code.
const NoPromotionKey = "no-promotion"

// GroupKey identifies a customer group inside a promotion bucket.
type GroupKey struct {
	PromoKey     string `json:"promo_key"`
	CustomerName string `json:"customer_name"`
	PhoneNumber  string `json:"phone_number"`
}

// CustomerGroup merges every order of one customer within one bucket.
type CustomerGroup struct {
	Key          GroupKey          `json:"key"`
	CustomerName string            `json:"customer_name"`
	PhoneNumber  string            `json:"phone_number"`
	Address      string            `json:"address"`
	Orders       []NormalizedOrder `json:"orders"`
	Total        decimal.Decimal   `json:"total"`
	Profit       decimal.Decimal   `json:"profit"`
}

// OrderIDs returns the ids of the orders wrapped by the group.
func (g CustomerGroup) OrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Orders))
	for _, order := range g.Orders {
		ids = append(ids, order.ID)
	}
	return ids
}

// Bucket holds the customer groups of one promo code or of NoPromotionKey.
type Bucket struct {
	PromoKey         string           `json:"promo_key"`
	ProfitPercentage *decimal.Decimal `json:"profit_percentage"`
	Groups           []CustomerGroup  `json:"groups"`
	Total            decimal.Decimal  `json:"total"`
	Profit           decimal.Decimal  `json:"profit"`
}

// Report is the aggregated view of the ledger. Buckets are sorted by key with
// the no-promotion bucket last; groups by customer name then phone.
type Report struct {
	Buckets     []Bucket        `json:"buckets"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	GrandProfit decimal.Decimal `json:"grand_profit"`
	OrderCount  int             `json:"order_count"`
}

// Group looks up a customer group by key.
func (r Report) Group(key GroupKey) (CustomerGroup, bool) {
	for _, bucket := range r.Buckets {
		if bucket.PromoKey != key.PromoKey {
			continue
		}
		for _, group := range bucket.Groups {
			if group.Key == key {
				return group, true
			}
		}
	}
	return CustomerGroup{}, false
}

// PromoKeyOf returns the bucket key of a promo code.
func PromoKeyOf(code *string) string {
	if clean := cleanPromoCode(code); clean != nil {
		return *clean
	}
	return NoPromotionKey
}

// GroupKeyOf returns the customer group an order belongs to.
func GroupKeyOf(h Header) GroupKey {
	return GroupKey{
		PromoKey:     PromoKeyOf(h.PromoCode),
		CustomerName: h.CustomerName,
		PhoneNumber:  h.PhoneNumber,
	}
}

// GroupKeyOfRow is GroupKeyOf for an unclassified ledger row.
func GroupKeyOfRow(row models.Order) GroupKey {
	return GroupKey{
		PromoKey:     PromoKeyOf(row.PromoCode),
		CustomerName: row.CustomerName,
		PhoneNumber:  row.PhoneNumber,
	}
}

// Aggregate groups orders by promo bucket then customer and sums totals and
// referral profit. profitRates maps a promo code to its profit percentage;
// orders whose code has no known rate, or no code, contribute zero profit.
func Aggregate(orders []NormalizedOrder, profitRates map[string]decimal.Decimal) Report {
	type groupAcc struct {
		group  CustomerGroup
		latest time.Time
	}
	type bucketAcc struct {
		bucket Bucket
		groups map[GroupKey]*groupAcc
		order  []GroupKey
	}

	buckets := map[string]*bucketAcc{}
	report := Report{GrandTotal: decimal.Zero, GrandProfit: decimal.Zero}

	for _, order := range orders {
		key := GroupKeyOf(order.Header)
		acc, ok := buckets[key.PromoKey]
		if !ok {
			acc = &bucketAcc{
				bucket: Bucket{PromoKey: key.PromoKey, Total: decimal.Zero, Profit: decimal.Zero},
				groups: map[GroupKey]*groupAcc{},
			}
			if rate, known := profitRates[key.PromoKey]; known && key.PromoKey != NoPromotionKey {
				r := rate
				acc.bucket.ProfitPercentage = &r
			}
			buckets[key.PromoKey] = acc
		}

		gacc, ok := acc.groups[key]
		if !ok {
			gacc = &groupAcc{group: CustomerGroup{
				Key:          key,
				CustomerName: order.CustomerName,
				PhoneNumber:  order.PhoneNumber,
				Total:        decimal.Zero,
				Profit:       decimal.Zero,
			}}
			acc.groups[key] = gacc
			acc.order = append(acc.order, key)
		}
		group := &gacc.group

		profit := decimal.Zero
		if acc.bucket.ProfitPercentage != nil {
			profit = pricing.ProfitShare(order.Total, *acc.bucket.ProfitPercentage)
		}

		group.Orders = append(group.Orders, order)
		group.Total = group.Total.Add(order.Total)
		group.Profit = group.Profit.Add(profit)
		// the group shows the most recent delivery address
		if group.Address == "" || !order.CreatedAt.Before(gacc.latest) {
			group.Address = order.Address
			gacc.latest = order.CreatedAt
		}

		acc.bucket.Total = acc.bucket.Total.Add(order.Total)
		acc.bucket.Profit = acc.bucket.Profit.Add(profit)
		report.GrandTotal = report.GrandTotal.Add(order.Total)
		report.GrandProfit = report.GrandProfit.Add(profit)
		report.OrderCount++
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == NoPromotionKey || keys[j] == NoPromotionKey {
			return keys[j] == NoPromotionKey && keys[i] != NoPromotionKey
		}
		return keys[i] < keys[j]
	})

	report.Buckets = make([]Bucket, 0, len(keys))
	for _, k := range keys {
		acc := buckets[k]
		groups := make([]CustomerGroup, 0, len(acc.order))
		for _, gk := range acc.order {
			groups = append(groups, acc.groups[gk].group)
		}
		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].CustomerName != groups[j].CustomerName {
				return groups[i].CustomerName < groups[j].CustomerName
			}
			return groups[i].PhoneNumber < groups[j].PhoneNumber
		})
		acc.bucket.Groups = groups
		report.Buckets = append(report.Buckets, acc.bucket)
	}
	return report
}

