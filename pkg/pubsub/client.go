// Package pubsub owns the Google Cloud Pub/Sub connection used for cart
// notifications.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-catalog/pkg/config"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errCartTopicRequired = errors.New("pubsub cart topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	getTopic  func(ctx context.Context, fullName string) error
}

// NewClient connects to Pub/Sub and fails fast when the cart topic is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: projectID,
		cfg:       cfg,
		getTopic: func(ctx context.Context, fullName string) error {
			_, err := psClient.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
			return err
		},
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topic":    c.cartTopic(),
			"ordering": cfg.OrderByView,
		}), "pubsub client initialized")
	}
	return c, nil
}

// TopicName expands a short topic id to its resource name. Names that are
// already fully qualified are returned unchanged.
func TopicName(projectID, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + topic
}

func (c *Client) cartTopic() string {
	return TopicName(c.projectID, c.cfg.CartTopic)
}

// CartPublisher returns the cart topic publisher configured for batching and,
// when OrderByView is set, per-view message ordering.
func (c *Client) CartPublisher() *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	name := c.cartTopic()
	if name == "" {
		return nil
	}
	pub := c.client.Publisher(name)
	pub.EnableMessageOrdering = c.cfg.OrderByView
	if c.cfg.BatchDelay > 0 {
		pub.PublishSettings.DelayThreshold = c.cfg.BatchDelay
	}
	if c.cfg.BatchCount > 0 {
		pub.PublishSettings.CountThreshold = c.cfg.BatchCount
	}
	return pub
}

// Ping checks that the cart topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.getTopic == nil {
		return errNotInitialized
	}
	name := c.cartTopic()
	if name == "" {
		return errCartTopicRequired
	}
	if err := c.getTopic(ctx, name); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %s does not exist", name)
		}
		return fmt.Errorf("checking topic %s: %w", name, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
