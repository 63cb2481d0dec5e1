package reservations

import (
	"context"
	"encoding/json"
	"time"

	pubsublib "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/enums"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Event is the wire payload published after a reservation changes state. It
// carries enough context for the notification worker to render a push without
// further lookups.
type Event struct {
	Type          enums.NotificationEvent `json:"type"`
	ReservationID uuid.UUID               `json:"reservation_id"`
	OfferID       uuid.UUID               `json:"offer_id"`
	OfferTitle    string                  `json:"offer_title"`
	ClientID      uuid.UUID               `json:"client_id"`
	MerchantID    uuid.UUID               `json:"merchant_id"`
	Quantity      int                     `json:"quantity"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// EventPublisher delivers reservation events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsublib.Message) *pubsublib.PublishResult
}

// PubSubPublisher sends reservation events to the configured Pub/Sub topic.
type PubSubPublisher struct {
	publisher topicPublisher
}

// NewPubSubPublisher wraps a Pub/Sub publisher handle.
func NewPubSubPublisher(publisher *pubsublib.Publisher) *PubSubPublisher {
	return &PubSubPublisher{publisher: publisher}
}

// Publish sends the event and waits for the server acknowledgement so the
// caller can decide whether to log a delivery failure.
func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := p.publisher.Publish(ctx, &pubsublib.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": string(event.Type),
		},
	})
	_, err = result.Get(ctx)
	return err
}

// publishBestEffort emits the event after the owning transaction commits.
// Delivery failures are logged and swallowed, the reservation state change
// has already happened.
func publishBestEffort(ctx context.Context, logg *logger.Logger, publisher EventPublisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil && logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"event_type":     string(event.Type),
			"reservation_id": event.ReservationID.String(),
			"error":          err.Error(),
		}), "publish reservation event failed")
	}
}
