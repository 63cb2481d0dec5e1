package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
)

type capturedPush struct {
	token string
	title string
	body  string
}

type stubSender struct {
	sent []capturedPush
	err  error
}

func (s *stubSender) Send(_ context.Context, token, title, body string, _ map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedPush{token: token, title: title, body: body})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifier_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Profiles carry a text[] column that sqlite cannot automigrate, so the
	// table is declared by hand for tests.
	if err := db.Exec(`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		auth_user_id TEXT,
		display_name TEXT DEFAULT '',
		avatar_url TEXT,
		dietary TEXT,
		has_location NUMERIC DEFAULT 0,
		longitude NUMERIC,
		latitude NUMERIC,
		push_token TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error; err != nil {
		t.Fatalf("create profiles table: %v", err)
	}
	return db
}

func seedMerchantWithToken(t *testing.T, db *gorm.DB, token *string) *models.Merchant {
	t.Helper()
	merchant := &models.Merchant{
		ID:          uuid.New(),
		AuthUserID:  uuid.New(),
		CompanyName: "Bakery",
		Latitude:    41.0,
		Longitude:   29.0,
		Timezone:    "UTC",
		PushToken:   token,
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return merchant
}

func newReservationEvent(eventType enums.NotificationEvent, merchantID, clientID uuid.UUID) reservations.Event {
	return reservations.Event{
		Type:          eventType,
		ReservationID: uuid.New(),
		OfferID:       uuid.New(),
		OfferTitle:    "Evening Box",
		ClientID:      clientID,
		MerchantID:    merchantID,
		Quantity:      2,
		OccurredAt:    time.Now(),
	}
}

func TestDispatchStoresNotificationAndPushes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	token := "device-token"
	merchant := seedMerchantWithToken(t, db, &token)
	sender := &stubSender{}

	svc, err := NewService(NewRepository(db), sender, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := newReservationEvent(enums.EventNewReservation, merchant.ID, uuid.New())
	if err := svc.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var stored models.Notification
	if err := db.First(&stored, "recipient_id = ?", merchant.ID).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if stored.RecipientKind != enums.RecipientMerchant || stored.Event != enums.EventNewReservation {
		t.Fatalf("unexpected notification: %+v", stored)
	}

	if len(sender.sent) != 1 || sender.sent[0].token != token {
		t.Fatalf("expected one push to the merchant device, got %+v", sender.sent)
	}
}

func TestDispatchFavoriteEventGoesToClient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	clientID := uuid.New()

	svc, err := NewService(NewRepository(db), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := newReservationEvent(enums.EventFavoriteOfferAvailable, uuid.New(), clientID)
	if err := svc.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var stored models.Notification
	if err := db.First(&stored, "recipient_id = ?", clientID).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if stored.RecipientKind != enums.RecipientProfile || stored.Event != enums.EventFavoriteOfferAvailable {
		t.Fatalf("unexpected notification: %+v", stored)
	}
	if stored.Message == "" {
		t.Fatal("expected a rendered message")
	}
}

func TestDispatchMissingTokenIsSilentNoOp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchantWithToken(t, db, nil)
	sender := &stubSender{}

	svc, err := NewService(NewRepository(db), sender, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := newReservationEvent(enums.EventNewReservation, merchant.ID, uuid.New())
	if err := svc.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(sender.sent) != 0 {
		t.Fatalf("expected no push, got %+v", sender.sent)
	}

	// The in-app copy is still stored.
	var count int64
	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", merchant.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stored notification, got %d", count)
	}
}

func TestDispatchPushFailureDoesNotError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	token := "device-token"
	merchant := seedMerchantWithToken(t, db, &token)
	sender := &stubSender{err: context.DeadlineExceeded}

	svc, err := NewService(NewRepository(db), sender, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := newReservationEvent(enums.EventNewReservation, merchant.ID, uuid.New())
	if err := svc.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("dispatch should swallow push errors: %v", err)
	}
}

func TestDispatchUnknownEventRejected(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRepository(newTestDB(t)), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event := newReservationEvent("mystery_event", uuid.New(), uuid.New())
	dispatchErr := svc.Dispatch(context.Background(), event)
	if typed := pkgerrors.As(dispatchErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", dispatchErr)
	}
}

func TestListMarkReadFlow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	recipientID := uuid.New()

	for i := 0; i < 3; i++ {
		n := &models.Notification{
			ID:            uuid.New(),
			RecipientID:   recipientID,
			RecipientKind: enums.RecipientProfile,
			Event:         enums.EventReservationAccepted,
			Title:         "Reservation confirmed",
			Message:       "See you at pickup.",
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(n).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	result, err := svc.List(context.Background(), ListParams{RecipientID: recipientID, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(result.Items))
	}

	if err := svc.MarkRead(context.Background(), recipientID, result.Items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := svc.List(context.Background(), ListParams{RecipientID: recipientID, Limit: 10, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(unread.Items))
	}

	count, err := svc.MarkAllRead(context.Background(), recipientID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows updated, got %d", count)
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRepository(newTestDB(t)), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	markErr := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(markErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", markErr)
	}
}
