package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// OrderPlaced is the payload announced after an order is saved.
type OrderPlaced struct {
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	PhoneNumber  string          `json:"phone_number"`
	Address      string          `json:"address"`
	PromoCode    *string         `json:"promo_code,omitempty"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Discount     decimal.Decimal `json:"discount"`
	PlacedAt     time.Time       `json:"placed_at"`
}

// OrderItem is one line of an OrderPlaced payload.
type OrderItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Color     *string         `json:"color,omitempty"`
	Storage   *string         `json:"storage,omitempty"`
}

// Notifier delivers order notifications to one channel.
type Notifier interface {
	Name() string
	NotifyOrderPlaced(ctx context.Context, event OrderPlaced) error
}

// FailureRecorder is told which notifier failed.
type FailureRecorder interface {
	IncNotificationFailure(notifier string)
}

// Fanout delivers to every notifier and combines their errors.
type Fanout struct {
	notifiers []Notifier
	failures  FailureRecorder
}

// NewFanout skips nil notifiers. failures may be nil.
func NewFanout(failures FailureRecorder, notifiers ...Notifier) *Fanout {
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &Fanout{notifiers: kept, failures: failures}
}

func (f *Fanout) Name() string { return "fanout" }

// NotifyOrderPlaced tries every notifier even when an earlier one fails.
func (f *Fanout) NotifyOrderPlaced(ctx context.Context, event OrderPlaced) error {
	var errs error
	for _, n := range f.notifiers {
		if err := n.NotifyOrderPlaced(ctx, event); err != nil {
			if f.failures != nil {
				f.failures.IncNotificationFailure(n.Name())
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errs
}

// Len reports how many notifiers are wired.
func (f *Fanout) Len() int {
	return len(f.notifiers)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) NotifyOrderPlaced(context.Context, OrderPlaced) error { return nil }
