package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/devicehub-backend/pkg/pubsub"
)

const orderPlacedEventType = "order.placed"

// PubSub publishes OrderPlaced events as JSON to the orders topic.
type PubSub struct {
	publisher pubsub.MessagePublisher
}

// NewPubSub returns nil when publisher is nil.
func NewPubSub(publisher pubsub.MessagePublisher) *PubSub {
	if publisher == nil {
		return nil
	}
	return &PubSub{publisher: publisher}
}

func (p *PubSub) Name() string { return "pubsub" }

func (p *PubSub) NotifyOrderPlaced(ctx context.Context, event OrderPlaced) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	attrs := map[string]string{
		"event_type": orderPlacedEventType,
		"order_id":   event.OrderID.String(),
		"placed_at":  event.PlacedAt.UTC().Format(time.RFC3339Nano),
	}
	if event.PromoCode != nil {
		attrs["promo_code"] = *event.PromoCode
	}
	if _, err := p.publisher.Publish(ctx, data, attrs); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
