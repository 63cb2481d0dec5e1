package enums

import "fmt"

// NotificationEvent maps to the notification_event enum in Postgres.
type NotificationEvent string

const (
	EventNewReservation         NotificationEvent = "new_reservation"
	EventReservationAccepted    NotificationEvent = "reservation_accepted"
	EventReservationRejected    NotificationEvent = "reservation_rejected"
	EventReservationCompleted   NotificationEvent = "reservation_completed"
	EventFavoriteOfferAvailable NotificationEvent = "favorite_offer_available"
	EventOfferExpiring          NotificationEvent = "offer_expiring"
)

var validNotificationEvents = []NotificationEvent{
	EventNewReservation,
	EventReservationAccepted,
	EventReservationRejected,
	EventReservationCompleted,
	EventFavoriteOfferAvailable,
	EventOfferExpiring,
}

// IsValid checks whether the given event matches the canonical enum.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

func (n NotificationEvent) String() string { return string(n) }

// ParseNotificationEvent converts raw strings into NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
