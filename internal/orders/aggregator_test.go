package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func normalized(name, phone string, code *string, total int64, at time.Time) NormalizedOrder {
	return NormalizedOrder{
		Header: Header{
			ID:           uuid.New(),
			CustomerName: name,
			PhoneNumber:  phone,
			Address:      name + " street",
			PromoCode:    code,
			CreatedAt:    at,
		},
		Total: dec(total),
	}
}

func TestAggregateGroupsByPromotionThenCustomer(t *testing.T) {
	t.Parallel()

	now := time.Now()
	save10 := strPtr("SAVE10")
	orders := []NormalizedOrder{
		normalized("Ali", "0590000000", save10, 230, now.Add(-2*time.Hour)),
		normalized("Ali", "0590000000", save10, 100, now.Add(-time.Hour)),
		normalized("Sara", "0599999999", nil, 50, now),
	}
	rates := map[string]decimal.Decimal{"SAVE10": dec(5)}

	report := Aggregate(orders, rates)
	if len(report.Buckets) != 2 {
		t.Fatalf("expected two buckets, got %d", len(report.Buckets))
	}

	promoBucket := report.Buckets[0]
	if promoBucket.PromoKey != "SAVE10" || len(promoBucket.Groups) != 1 {
		t.Fatalf("unexpected promo bucket %+v", promoBucket)
	}
	ali := promoBucket.Groups[0]
	if !ali.Total.Equal(dec(330)) {
		t.Fatalf("expected Ali total 330, got %s", ali.Total)
	}
	if !ali.Profit.Equal(decimal.RequireFromString("16.5")) {
		t.Fatalf("expected Ali profit 16.5, got %s", ali.Profit)
	}
	if len(ali.OrderIDs()) != 2 {
		t.Fatalf("expected two wrapped orders, got %d", len(ali.OrderIDs()))
	}

	none := report.Buckets[1]
	if none.PromoKey != NoPromotionKey || none.ProfitPercentage != nil {
		t.Fatalf("expected sentinel bucket last, got %+v", none)
	}
	if !none.Profit.IsZero() || !none.Groups[0].Profit.IsZero() {
		t.Fatalf("orders without a promotion must contribute zero profit")
	}

	if !report.GrandTotal.Equal(dec(380)) {
		t.Fatalf("expected grand total 380, got %s", report.GrandTotal)
	}
	if !report.GrandProfit.Equal(decimal.RequireFromString("16.5")) {
		t.Fatalf("expected grand profit 16.5, got %s", report.GrandProfit)
	}
	if report.OrderCount != 3 {
		t.Fatalf("expected 3 orders, got %d", report.OrderCount)
	}

	group, ok := report.Group(GroupKey{PromoKey: "SAVE10", CustomerName: "Ali", PhoneNumber: "0590000000"})
	if !ok || !group.Total.Equal(dec(330)) {
		t.Fatalf("expected lookup by key to find Ali")
	}
}

func TestAggregateSplitsSameCustomerAcrossBuckets(t *testing.T) {
	t.Parallel()

	now := time.Now()
	orders := []NormalizedOrder{
		normalized("Ali", "1", strPtr("A"), 10, now),
		normalized("Ali", "1", strPtr("B"), 20, now),
		normalized("Ali", "2", strPtr("A"), 30, now),
		normalized("Ali", "1", nil, 40, now),
	}
	report := Aggregate(orders, nil)
	if len(report.Buckets) != 3 {
		t.Fatalf("expected three buckets, got %d", len(report.Buckets))
	}
	if report.Buckets[0].PromoKey != "A" || len(report.Buckets[0].Groups) != 2 {
		t.Fatalf("expected bucket A with two phone-distinct groups, got %+v", report.Buckets[0])
	}
	if !report.GrandProfit.IsZero() {
		t.Fatalf("unknown profit rates must yield zero profit")
	}
}

func TestAggregateUsesLatestAddress(t *testing.T) {
	t.Parallel()

	now := time.Now()
	newer := normalized("Ali", "1", nil, 10, now)
	newer.Address = "new address"
	older := normalized("Ali", "1", nil, 10, now.Add(-time.Hour))
	older.Address = "old address"

	report := Aggregate([]NormalizedOrder{newer, older}, nil)
	if got := report.Buckets[0].Groups[0].Address; got != "new address" {
		t.Fatalf("expected most recent address, got %q", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	report := Aggregate(nil, nil)
	if len(report.Buckets) != 0 || !report.GrandTotal.IsZero() || !report.GrandProfit.IsZero() {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestPromoKeyOf(t *testing.T) {
	t.Parallel()

	if PromoKeyOf(nil) != NoPromotionKey {
		t.Fatalf("nil code should map to sentinel")
	}
	if PromoKeyOf(strPtr("")) != NoPromotionKey {
		t.Fatalf("empty code should map to sentinel")
	}
	if PromoKeyOf(strPtr("save10")) != "SAVE10" {
		t.Fatalf("codes should be canonical upper-case")
	}
}
