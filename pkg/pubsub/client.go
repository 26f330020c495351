package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

// orderEventDelay keeps order events close to real time; checkout volume is
// too low for batching to matter.
const orderEventDelay = 50 * time.Millisecond

var errNotInitialized = errors.New("pubsub client not initialized")

// Client owns the Pub/Sub connection and the single long-lived publisher for
// order events.
type Client struct {
	client *pubsub.Client
	topic  string
	orders *pubsub.Publisher
}

// NewClient connects to Pub/Sub and fails when the orders topic is missing.
// Topics are provisioned outside the service.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	topic, err := topicResourceName(gcp.ProjectID, cfg.OrdersTopic)
	if err != nil {
		return nil, err
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, topic: topic}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	c.orders = psClient.Publisher(topic)
	c.orders.PublishSettings.DelayThreshold = orderEventDelay

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", topic), "pubsub client initialized")
	}
	return c, nil
}

// Orders returns the publisher for order events, or nil on an unconfigured client.
func (c *Client) Orders() MessagePublisher {
	if c == nil {
		return nil
	}
	return NewMessagePublisher(c.orders)
}

// Ping checks the orders topic through the admin API.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %s does not exist", c.topic)
	default:
		return fmt.Errorf("checking topic %s: %w", c.topic, err)
	}
}

// Close flushes pending order events before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.orders != nil {
		c.orders.Stop()
	}
	return c.client.Close()
}

// topicResourceName accepts a bare topic id or a full resource name.
func topicResourceName(projectID, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errors.New("pubsub orders topic is required")
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic, nil
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", errors.New("gcp project id is required")
	}
	return "projects/" + projectID + "/topics/" + topic, nil
}
