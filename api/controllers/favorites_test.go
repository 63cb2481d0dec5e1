package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/internal/favorites"
	"github.com/sparebite/sparebite-backend/pkg/enums"
)

type testFavoritesService struct {
	addFn    func(ctx context.Context, clientID, merchantID uuid.UUID) error
	removeFn func(ctx context.Context, clientID, merchantID uuid.UUID) error
	listFn   func(ctx context.Context, clientID uuid.UUID) ([]favorites.FavoriteDTO, error)
}

func (s *testFavoritesService) Add(ctx context.Context, clientID, merchantID uuid.UUID) error {
	if s.addFn != nil {
		return s.addFn(ctx, clientID, merchantID)
	}
	return nil
}

func (s *testFavoritesService) Remove(ctx context.Context, clientID, merchantID uuid.UUID) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, clientID, merchantID)
	}
	return nil
}

func (s *testFavoritesService) List(ctx context.Context, clientID uuid.UUID) ([]favorites.FavoriteDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, clientID)
	}
	return nil, nil
}

func (s *testFavoritesService) ClientIDsFor(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func TestFavoriteAddForwardsBody(t *testing.T) {
	clientID := uuid.New()
	merchantID := uuid.New()

	var gotClient, gotMerchant uuid.UUID
	svc := &testFavoritesService{
		addFn: func(_ context.Context, c, m uuid.UUID) error {
			gotClient, gotMerchant = c, m
			return nil
		},
	}

	body := strings.NewReader(`{"merchant_id":"` + merchantID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/favorites/", body)
	req = principalRequest(req, clientID, enums.RoleClient)
	resp := httptest.NewRecorder()

	FavoriteAdd(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotClient != clientID || gotMerchant != merchantID {
		t.Fatalf("expected %s/%s forwarded, got %s/%s", clientID, merchantID, gotClient, gotMerchant)
	}
}

func TestFavoriteAddRejectsBadMerchantID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/favorites/", strings.NewReader(`{"merchant_id":"nope"}`))
	req = principalRequest(req, uuid.New(), enums.RoleClient)
	resp := httptest.NewRecorder()

	FavoriteAdd(&testFavoritesService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestFavoriteAddMissingPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/favorites/", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	FavoriteAdd(&testFavoritesService{}, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestFavoriteListReturnsItems(t *testing.T) {
	clientID := uuid.New()
	svc := &testFavoritesService{
		listFn: func(_ context.Context, id uuid.UUID) ([]favorites.FavoriteDTO, error) {
			if id != clientID {
				t.Fatalf("expected client %s, got %s", clientID, id)
			}
			return []favorites.FavoriteDTO{{ID: uuid.New(), CompanyName: "Corner Bakery"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites/", nil)
	req = principalRequest(req, clientID, enums.RoleClient)
	resp := httptest.NewRecorder()

	FavoriteList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []favorites.FavoriteDTO `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].CompanyName != "Corner Bakery" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestFavoriteRemoveParsesPathParam(t *testing.T) {
	clientID := uuid.New()
	merchantID := uuid.New()

	var gotMerchant uuid.UUID
	svc := &testFavoritesService{
		removeFn: func(_ context.Context, _, m uuid.UUID) error {
			gotMerchant = m
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/favorites/"+merchantID.String(), nil)
	req = principalRequest(req, clientID, enums.RoleClient)
	req = addRouteParam(req, "merchantId", merchantID.String())
	resp := httptest.NewRecorder()

	FavoriteRemove(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotMerchant != merchantID {
		t.Fatalf("expected merchant %s, got %s", merchantID, gotMerchant)
	}
}
