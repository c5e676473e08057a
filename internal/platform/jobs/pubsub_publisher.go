package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/glowmart/api/internal/services"
)

// PubSubSlugEventPublisher publishes category slug change events to a Pub/Sub topic.
type PubSubSlugEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubSlugEventPublisher constructs a Pub/Sub backed slug event publisher.
func NewPubSubSlugEventPublisher(topic *pubsub.Topic) (*PubSubSlugEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub slug event publisher: topic is required")
	}
	return &PubSubSlugEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishSlugChanged enqueues a slug change event on the configured topic.
func (p *PubSubSlugEventPublisher) PublishSlugChanged(ctx context.Context, event services.CategorySlugChangedEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub slug event publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal slug event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "eventType", event.EventType)
	setAttr(attrs, "categoryId", event.CategoryID)
	setAttr(attrs, "oldSlug", event.OldSlug)
	setAttr(attrs, "newSlug", event.NewSlug)
	if event.ProductsResynced > 0 {
		attrs["productsResynced"] = strconv.Itoa(event.ProductsResynced)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish slug event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var _ services.SlugEventPublisher = (*PubSubSlugEventPublisher)(nil)
