package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
	"github.com/sparebite/sparebite-backend/pkg/logger"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
	"github.com/sparebite/sparebite-backend/pkg/push"
)

// Service stores in-app notifications and pushes them to devices.
// Delivery is best effort throughout: a missing device token or a rejected
// push never fails the triggering operation.
type Service interface {
	Dispatch(ctx context.Context, event reservations.Event) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	sender push.Sender
	logg   *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifier dependencies. The push sender is optional so the
// API can run without FCM credentials in development.
func NewService(repo Repository, sender push.Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifier repository required")
	}
	return &service{repo: repo, sender: sender, logg: logg}, nil
}

func (s *service) Dispatch(ctx context.Context, event reservations.Event) error {
	if !event.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown event type")
	}

	kind, recipientID := recipientFor(event)
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event has no recipient")
	}

	title, message := render(event)
	notification := &models.Notification{
		ID:            uuid.New(),
		RecipientID:   recipientID,
		RecipientKind: kind,
		Event:         event.Type,
		Title:         title,
		Message:       message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}

	s.pushBestEffort(ctx, kind, recipientID, title, message, event)
	return nil
}

func (s *service) pushBestEffort(ctx context.Context, kind enums.RecipientKind, recipientID uuid.UUID, title, message string, event reservations.Event) {
	if s.sender == nil {
		return
	}

	var (
		token *string
		err   error
	)
	switch kind {
	case enums.RecipientMerchant:
		token, err = s.repo.MerchantPushToken(ctx, recipientID)
	default:
		token, err = s.repo.ProfilePushToken(ctx, recipientID)
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, event, "push token lookup failed", err)
		}
		return
	}
	if token == nil || *token == "" {
		// Recipient has no registered device. Nothing to do.
		return
	}

	data := map[string]string{
		"event_type":     string(event.Type),
		"reservation_id": event.ReservationID.String(),
		"offer_id":       event.OfferID.String(),
	}
	if err := s.sender.Send(ctx, *token, title, message, data); err != nil {
		if push.IsUnregistered(err) {
			if clearErr := s.repo.ClearPushToken(ctx, kind, recipientID); clearErr != nil {
				s.warn(ctx, event, "clear stale push token failed", clearErr)
			}
			return
		}
		s.warn(ctx, event, "push delivery failed", err)
	}
}

func (s *service) warn(ctx context.Context, event reservations.Event, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"event_type": string(event.Type),
		"error":      err.Error(),
	}), msg)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient and notification ids required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// recipientFor routes each event type to the side of the marketplace it
// concerns.
func recipientFor(event reservations.Event) (enums.RecipientKind, uuid.UUID) {
	switch event.Type {
	case enums.EventNewReservation, enums.EventOfferExpiring:
		return enums.RecipientMerchant, event.MerchantID
	default:
		return enums.RecipientProfile, event.ClientID
	}
}

func render(event reservations.Event) (title, message string) {
	switch event.Type {
	case enums.EventNewReservation:
		return "New reservation",
			fmt.Sprintf("A customer reserved %d x %s.", event.Quantity, event.OfferTitle)
	case enums.EventReservationAccepted:
		return "Reservation confirmed",
			fmt.Sprintf("Your reservation for %s was confirmed. See you at pickup.", event.OfferTitle)
	case enums.EventReservationRejected:
		return "Reservation declined",
			fmt.Sprintf("Your reservation for %s was declined.", event.OfferTitle)
	case enums.EventReservationCompleted:
		return "Pickup complete",
			fmt.Sprintf("Thanks for rescuing %s. Enjoy!", event.OfferTitle)
	case enums.EventFavoriteOfferAvailable:
		return "A favorite is back",
			fmt.Sprintf("%s is available again.", event.OfferTitle)
	case enums.EventOfferExpiring:
		return "Offer expiring soon",
			fmt.Sprintf("%s expires soon with %d unit(s) unsold.", event.OfferTitle, event.Quantity)
	}
	return "Update", "You have a new update."
}
