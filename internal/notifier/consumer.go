package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/sparebite/sparebite-backend/internal/reservations"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

// Consumer drains the reservation event subscription and fans each event out
// as an in-app notification plus a device push.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifier service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("reservation subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Malformed payloads
// are acked to keep poison messages from looping forever; transient storage
// failures are nacked for redelivery.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	var event reservations.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode reservation event", err)
		return true
	}

	if err := c.svc.Dispatch(logCtx, event); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			c.logg.Warn(logCtx, "dropping invalid reservation event")
			return true
		}
		c.logg.Error(logCtx, "dispatch failed", err)
		return false
	}

	c.logg.Info(logCtx, "notification dispatched")
	return true
}
