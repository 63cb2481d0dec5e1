package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	pkgerrors "github.com/sparebite/sparebite-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:favorites_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Favorite{}); err != nil {
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

func seedMerchant(t *testing.T, db *gorm.DB, name string) *models.Merchant {
	t.Helper()
	city := "Istanbul"
	merchant := &models.Merchant{
		ID:          uuid.New(),
		AuthUserID:  uuid.New(),
		CompanyName: name,
		City:        &city,
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
	svc, err := NewService(NewRepository(db), merchantRepoAdapter{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddAndListFavorites(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db, "Corner Bakery")
	svc := newTestService(t, db)
	clientID := uuid.New()

	if err := svc.Add(context.Background(), clientID, merchant.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	items, err := svc.List(context.Background(), clientID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(items))
	}
	if items[0].MerchantID != merchant.ID || items[0].CompanyName != "Corner Bakery" {
		t.Fatalf("expected merchant card, got %+v", items[0])
	}
	if items[0].City == nil || *items[0].City != "Istanbul" {
		t.Fatalf("expected city on card, got %+v", items[0].City)
	}
}

func TestAddFavoriteIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db, "Corner Bakery")
	svc := newTestService(t, db)
	clientID := uuid.New()

	if err := svc.Add(context.Background(), clientID, merchant.ID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.Add(context.Background(), clientID, merchant.ID); err != nil {
		t.Fatalf("second add: %v", err)
	}

	var count int64
	if err := db.Model(&models.Favorite{}).Where("client_id = ?", clientID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row for the pair, got %d", count)
	}
}

func TestAddFavoriteUnknownMerchant(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))

	err := svc.Add(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveFavorite(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db, "Corner Bakery")
	svc := newTestService(t, db)
	clientID := uuid.New()

	if err := svc.Add(context.Background(), clientID, merchant.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(context.Background(), clientID, merchant.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	err := svc.Remove(context.Background(), clientID, merchant.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestClientIDsForMerchant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchant(t, db, "Corner Bakery")
	other := seedMerchant(t, db, "Other Bakery")
	svc := newTestService(t, db)

	first := uuid.New()
	second := uuid.New()
	if err := svc.Add(context.Background(), first, merchant.ID); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := svc.Add(context.Background(), second, merchant.ID); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if err := svc.Add(context.Background(), first, other.ID); err != nil {
		t.Fatalf("add other: %v", err)
	}

	ids, err := svc.ClientIDsFor(context.Background(), merchant.ID)
	if err != nil {
		t.Fatalf("client ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(ids))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[first] || !seen[second] {
		t.Fatalf("expected both favoriting clients, got %v", ids)
	}
}
