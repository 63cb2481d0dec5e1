package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/geo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:discovery_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Merchant{}, &models.Offer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedMerchantAt(t *testing.T, db *gorm.DB, name string, lat, lng float64) *models.Merchant {
	t.Helper()
	merchant := &models.Merchant{
		ID:          uuid.New(),
		AuthUserID:  uuid.New(),
		CompanyName: name,
		Latitude:    lat,
		Longitude:   lng,
		Timezone:    "Europe/Istanbul",
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return merchant
}

func seedOffer(t *testing.T, db *gorm.DB, merchantID uuid.UUID, active bool, createdAt time.Time) *models.Offer {
	t.Helper()
	offer := &models.Offer{
		ID:                uuid.New(),
		MerchantID:        merchantID,
		Title:             "Box",
		OriginalPrice:     8000,
		DiscountedPrice:   3000,
		QuantityTotal:     3,
		QuantityAvailable: 3,
		PickupStart:       createdAt.Add(time.Hour),
		PickupEnd:         createdAt.Add(3 * time.Hour),
		IsActive:          active,
		ExpiresAt:         createdAt.Add(24 * time.Hour),
		CreatedAt:         createdAt,
	}
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	return offer
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNearbyFiltersByRadius(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	origin := geo.Point{Latitude: 41.0082, Longitude: 28.9784}

	// ~500m north of the origin.
	near := seedMerchantAt(t, db, "Near Bakery", 41.0127, 28.9784)
	// ~15km away.
	far := seedMerchantAt(t, db, "Far Bakery", 41.1432, 28.9784)

	now := time.Now()
	nearOffer := seedOffer(t, db, near.ID, true, now)
	seedOffer(t, db, far.ID, true, now)

	svc := newTestService(t, db)
	result, err := svc.Nearby(context.Background(), origin, 10000)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected only the close offer, got %d", len(result))
	}
	if result[0].ID != nearOffer.ID {
		t.Fatalf("expected offer %s, got %s", nearOffer.ID, result[0].ID)
	}
	if result[0].DistanceMeters == nil || *result[0].DistanceMeters > 600 {
		t.Fatalf("expected ~500m distance, got %v", result[0].DistanceMeters)
	}
}

func TestNearbyOrdersByDistance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	origin := geo.Point{Latitude: 41.0082, Longitude: 28.9784}

	mid := seedMerchantAt(t, db, "Mid", 41.0262, 28.9784)      // ~2km
	nearest := seedMerchantAt(t, db, "Close", 41.0127, 28.9784) // ~500m

	now := time.Now()
	midOffer := seedOffer(t, db, mid.ID, true, now)
	closeOffer := seedOffer(t, db, nearest.ID, true, now.Add(time.Minute))

	svc := newTestService(t, db)
	result, err := svc.Nearby(context.Background(), origin, 10000)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(result))
	}
	if result[0].ID != closeOffer.ID || result[1].ID != midOffer.ID {
		t.Fatal("expected closest offer first")
	}
}

func TestNearbyRejectsInvalidCoordinates(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	_, err := svc.Nearby(context.Background(), geo.Point{Latitude: 99, Longitude: 28}, 1000)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestActiveExcludesInactiveAndExpired(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchantAt(t, db, "Bakery", 41.0, 29.0)

	now := time.Now()
	visible := seedOffer(t, db, merchant.ID, true, now)
	seedOffer(t, db, merchant.ID, false, now)

	expired := seedOffer(t, db, merchant.ID, true, now)
	if err := db.Model(expired).Update("expires_at", now.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire offer: %v", err)
	}

	svc := newTestService(t, db)
	result, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(result) != 1 || result[0].ID != visible.ID {
		t.Fatalf("expected only the visible offer, got %d", len(result))
	}
}

func TestActiveEmptyFeedIsNotAnError(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	result, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Fatalf("expected empty slice, got %v", result)
	}
}

func TestByMerchantExcludesInactiveAndExpired(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	merchant := seedMerchantAt(t, db, "Bakery", 41.0, 29.0)

	now := time.Now()
	visible := seedOffer(t, db, merchant.ID, true, now)
	seedOffer(t, db, merchant.ID, false, now.Add(time.Minute))

	expired := seedOffer(t, db, merchant.ID, true, now.Add(2*time.Minute))
	if err := db.Model(expired).Update("expires_at", now.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire offer: %v", err)
	}

	svc := newTestService(t, db)
	result, err := svc.ByMerchant(context.Background(), merchant.ID)
	if err != nil {
		t.Fatalf("by merchant: %v", err)
	}
	if len(result) != 1 || result[0].ID != visible.ID {
		t.Fatalf("expected only the active unexpired offer, got %d", len(result))
	}
}

func TestDiscountPercentRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		original   int64
		discounted int64
		want       int
	}{
		{8000, 3000, 63}, // 62.5 rounds up
		{10000, 5000, 50},
		{10000, 9999, 0}, // 0.01 rounds down
		{10000, 6667, 33},
		{0, 0, 0},
		{1000, 1000, 0},
		{1000, 2000, 0},
	}
	for _, tc := range cases {
		if got := DiscountPercent(tc.original, tc.discounted); got != tc.want {
			t.Fatalf("DiscountPercent(%d, %d) = %d, want %d", tc.original, tc.discounted, got, tc.want)
		}
	}
}
