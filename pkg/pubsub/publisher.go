package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// MessagePublisher publishes one message and waits for the server id.
type MessagePublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

type topicPublisher struct {
	publisher *pubsub.Publisher
}

// NewMessagePublisher wraps a v2 publisher handle. Returns nil for a nil handle.
func NewMessagePublisher(p *pubsub.Publisher) MessagePublisher {
	if p == nil {
		return nil
	}
	return &topicPublisher{publisher: p}
}

func (t *topicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	if t == nil || t.publisher == nil {
		return "", errors.New("publisher not initialized")
	}
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	if result == nil {
		return "", errors.New("publish result is nil")
	}
	return result.Get(ctx)
}
