package catalog

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
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Offer{}, &models.Reservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type merchantRepoAdapter struct {
	db *gorm.DB
}

func (a merchantRepoAdapter) FindMerchantByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := a.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

func seedMerchant(t *testing.T, db *gorm.DB) *models.Merchant {
	t.Helper()
	merchant := &models.Merchant{
		ID:          uuid.New(),
		AuthUserID:  uuid.New(),
		CompanyName: "Corner Bakery",
		Latitude:    41.0082,
		Longitude:   28.9784,
		Timezone:    "Europe/Istanbul",
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return merchant
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), merchantRepoAdapter{db: db}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validCreateInput() CreateOfferInput {
	start := time.Now().Add(time.Hour)
	return CreateOfferInput{
		Title:           "Surprise Box",
		OriginalPrice:   8000,
		DiscountedPrice: 3000,
		Quantity:        3,
		PickupStart:     start,
		PickupEnd:       start.Add(2 * time.Hour),
	}
}

func TestCreateOffer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.ID == uuid.Nil {
		t.Fatal("expected a generated offer id")
	}
	if dto.QuantityAvailable != 3 || dto.QuantityTotal != 3 {
		t.Fatalf("expected full availability, got %+v", dto)
	}
	if !dto.IsActive {
		t.Fatal("expected new offer to be active")
	}
	if dto.ExpiresAt.IsZero() {
		t.Fatal("expected a default expiry")
	}
}

func TestCreateOfferValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	cases := []struct {
		name   string
		mutate func(*CreateOfferInput)
	}{
		{"empty title", func(in *CreateOfferInput) { in.Title = "  " }},
		{"negative price", func(in *CreateOfferInput) { in.OriginalPrice = -1 }},
		{"discount above original", func(in *CreateOfferInput) { in.DiscountedPrice = in.OriginalPrice + 1 }},
		{"discount equals original", func(in *CreateOfferInput) { in.DiscountedPrice = in.OriginalPrice }},
		{"zero quantity", func(in *CreateOfferInput) { in.Quantity = 0 }},
		{"inverted pickup window", func(in *CreateOfferInput) { in.PickupEnd = in.PickupStart.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), merchant.ID, input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateOfferCrossMerchantForbidden(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	owner := seedMerchant(t, db)
	other := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), owner.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Hijacked"
	_, err = svc.Update(context.Background(), other.ID, dto.ID, UpdateOfferInput{Title: &title})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateOfferRejectsEqualPrices(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	samePrice := dto.OriginalPrice
	_, err = svc.Update(context.Background(), merchant.ID, dto.ID, UpdateOfferInput{DiscountedPrice: &samePrice})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateOfferPreservesConcurrentDecrement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	repo := NewRepository(db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Stale read taken before a reservation lands.
	stale, err := repo.FindByID(context.Background(), dto.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// A reservation decrements availability through the guarded statement.
	result := db.Model(&models.Offer{}).
		Where("id = ? AND quantity_available >= ?", dto.ID, 2).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", 2))
	if result.Error != nil || result.RowsAffected != 1 {
		t.Fatalf("decrement: %v (%d rows)", result.Error, result.RowsAffected)
	}

	stale.Title = "Renamed Box"
	if err := repo.Update(context.Background(), stale); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), dto.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Title != "Renamed Box" {
		t.Fatalf("expected title updated, got %q", reloaded.Title)
	}
	if reloaded.QuantityAvailable != 1 {
		t.Fatalf("expected availability to stay at 1, got %d", reloaded.QuantityAvailable)
	}
}

func TestUpdateOfferQuantityDelta(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	delta := 2
	updated, err := svc.Update(context.Background(), merchant.ID, dto.ID, UpdateOfferInput{QuantityDelta: &delta})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.QuantityTotal != 5 || updated.QuantityAvailable != 5 {
		t.Fatalf("expected 5/5 after delta, got %d/%d", updated.QuantityAvailable, updated.QuantityTotal)
	}

	negative := -10
	_, err = svc.Update(context.Background(), merchant.ID, dto.ID, UpdateOfferInput{QuantityDelta: &negative})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on underflow, got %v", err)
	}
}

func TestSetActiveToggles(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	off, err := svc.SetActive(context.Background(), merchant.ID, dto.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if off.IsActive {
		t.Fatal("expected offer inactive")
	}

	// Toggling to the current state is a no-op, not an error.
	again, err := svc.SetActive(context.Background(), merchant.ID, dto.ID, false)
	if err != nil {
		t.Fatalf("idempotent deactivate: %v", err)
	}
	if again.IsActive {
		t.Fatal("expected offer to stay inactive")
	}
}

func TestDeleteOfferWithHistoryConflicts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reservation := &models.Reservation{
		ID:         uuid.New(),
		ClientID:   uuid.New(),
		MerchantID: merchant.ID,
		OfferID:    dto.ID,
		Quantity:   1,
		Status:     "cancelled",
	}
	if err := db.Create(reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	err = svc.Delete(context.Background(), merchant.ID, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteOfferWithoutHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), merchant.ID, dto.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	if err := db.Model(&models.Offer{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("expected offer row removed")
	}
}

type stubAudience struct {
	clients []uuid.UUID
}

func (a stubAudience) ClientIDsFor(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return a.clients, nil
}

type capturingPublisher struct {
	events []reservations.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event reservations.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestCreateOfferNotifiesFavoritingClients(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)

	fans := []uuid.UUID{uuid.New(), uuid.New()}
	publisher := &capturingPublisher{}
	svc, err := NewService(NewRepository(db), merchantRepoAdapter{db: db}, stubAudience{clients: fans}, publisher, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(publisher.events) != 2 {
		t.Fatalf("expected one event per favoriting client, got %d", len(publisher.events))
	}
	for i, event := range publisher.events {
		if event.Type != enums.EventFavoriteOfferAvailable {
			t.Fatalf("expected favorite event, got %s", event.Type)
		}
		if event.ClientID != fans[i] {
			t.Fatalf("expected event for client %s, got %s", fans[i], event.ClientID)
		}
		if event.OfferID != dto.ID || event.MerchantID != merchant.ID {
			t.Fatalf("unexpected event payload %+v", event)
		}
	}
}

func TestReactivationNotifiesFavoritingClients(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)

	fan := uuid.New()
	publisher := &capturingPublisher{}
	svc, err := NewService(NewRepository(db), merchantRepoAdapter{db: db}, stubAudience{clients: []uuid.UUID{fan}}, publisher, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), merchant.ID, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetActive(context.Background(), merchant.ID, dto.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	publisher.events = nil

	if _, err := svc.SetActive(context.Background(), merchant.ID, dto.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != enums.EventFavoriteOfferAvailable {
		t.Fatalf("expected a favorite event on reactivation, got %+v", publisher.events)
	}
	if publisher.events[0].ClientID != fan {
		t.Fatalf("expected event for client %s, got %s", fan, publisher.events[0].ClientID)
	}
}

func TestListOwnPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db)
	svc := newTestService(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		offer := &models.Offer{
			ID:                uuid.New(),
			MerchantID:        merchant.ID,
			Title:             "Box",
			OriginalPrice:     1000,
			DiscountedPrice:   500,
			QuantityTotal:     1,
			QuantityAvailable: 1,
			PickupStart:       base,
			PickupEnd:         base.Add(time.Hour),
			IsActive:          i%2 == 0,
			ExpiresAt:         base.Add(24 * time.Hour),
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(offer).Error; err != nil {
			t.Fatalf("seed offer: %v", err)
		}
	}

	page, next, err := svc.ListOwn(context.Background(), merchant.ID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 3 || next == "" {
		t.Fatalf("expected 3 rows and a cursor, got %d %q", len(page), next)
	}

	rest, next2, err := svc.ListOwn(context.Background(), merchant.ID, pagination.Params{Limit: 3, Cursor: next})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest) != 2 || next2 != "" {
		t.Fatalf("expected 2 rows and no cursor, got %d %q", len(rest), next2)
	}
}
