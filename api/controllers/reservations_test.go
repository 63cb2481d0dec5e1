package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/api/middleware"
	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	"github.com/sparebite/sparebite-backend/pkg/pagination"
)

type testReservationsService struct {
	createFn     func(ctx context.Context, clientID, offerID uuid.UUID, quantity int) (*reservations.ReservationDTO, error)
	transitionFn func(ctx context.Context, actor reservations.Actor, reservationID uuid.UUID, target enums.ReservationStatus) (*reservations.ReservationDTO, error)
	listClientFn func(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error)
	listMerchFn  func(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error)
}

func (s *testReservationsService) Create(ctx context.Context, clientID, offerID uuid.UUID, quantity int) (*reservations.ReservationDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, clientID, offerID, quantity)
	}
	return &reservations.ReservationDTO{}, nil
}

func (s *testReservationsService) Transition(ctx context.Context, actor reservations.Actor, reservationID uuid.UUID, target enums.ReservationStatus) (*reservations.ReservationDTO, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, actor, reservationID, target)
	}
	return &reservations.ReservationDTO{}, nil
}

func (s *testReservationsService) GetByID(ctx context.Context, actor reservations.Actor, reservationID uuid.UUID) (*reservations.ReservationDTO, error) {
	return &reservations.ReservationDTO{}, nil
}

func (s *testReservationsService) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error) {
	if s.listClientFn != nil {
		return s.listClientFn(ctx, clientID, params)
	}
	return nil, "", nil
}

func (s *testReservationsService) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error) {
	if s.listMerchFn != nil {
		return s.listMerchFn(ctx, merchantID, params)
	}
	return nil, "", nil
}

func principalRequest(req *http.Request, principalID uuid.UUID, role enums.Role) *http.Request {
	ctx := middleware.WithPrincipalID(req.Context(), principalID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return req.WithContext(ctx)
}

func addRouteParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestReservationCreateForwardsBody(t *testing.T) {
	clientID := uuid.New()
	offerID := uuid.New()
	var gotOffer uuid.UUID
	var gotQuantity int
	svc := &testReservationsService{
		createFn: func(ctx context.Context, cid, oid uuid.UUID, quantity int) (*reservations.ReservationDTO, error) {
			if cid != clientID {
				t.Fatalf("unexpected client %s", cid)
			}
			gotOffer = oid
			gotQuantity = quantity
			return &reservations.ReservationDTO{}, nil
		},
	}

	body := `{"offer_id":"` + offerID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/", strings.NewReader(body))
	req = principalRequest(req, clientID, enums.RoleClient)
	resp := httptest.NewRecorder()
	ReservationCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotOffer != offerID || gotQuantity != 2 {
		t.Fatalf("unexpected forwarded values %s %d", gotOffer, gotQuantity)
	}
}

func TestReservationCreateRejectsZeroQuantity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/", strings.NewReader(`{"offer_id":"`+uuid.NewString()+`","quantity":0}`))
	req = principalRequest(req, uuid.New(), enums.RoleClient)
	resp := httptest.NewRecorder()
	ReservationCreate(&testReservationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReservationActionMapsVerbs(t *testing.T) {
	cases := map[string]enums.ReservationStatus{
		"cancel":   enums.ReservationStatusCancelled,
		"accept":   enums.ReservationStatusConfirmed,
		"reject":   enums.ReservationStatusCancelled,
		"complete": enums.ReservationStatusCompleted,
	}

	for action, want := range cases {
		reservationID := uuid.New()
		var got enums.ReservationStatus
		svc := &testReservationsService{
			transitionFn: func(ctx context.Context, actor reservations.Actor, rid uuid.UUID, target enums.ReservationStatus) (*reservations.ReservationDTO, error) {
				if rid != reservationID {
					t.Fatalf("unexpected reservation %s", rid)
				}
				got = target
				return &reservations.ReservationDTO{}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/"+reservationID.String()+"/"+action, nil)
		req = principalRequest(req, uuid.New(), enums.RoleMerchant)
		req = addRouteParams(req, map[string]string{"reservationId": reservationID.String(), "action": action})

		resp := httptest.NewRecorder()
		ReservationAction(svc, testLogger())(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("action %s: unexpected status %d", action, resp.Code)
		}
		if got != want {
			t.Fatalf("action %s: expected target %s got %s", action, want, got)
		}
	}
}

func TestReservationActionUnknownVerb(t *testing.T) {
	reservationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/"+reservationID.String()+"/nudge", nil)
	req = principalRequest(req, uuid.New(), enums.RoleClient)
	req = addRouteParams(req, map[string]string{"reservationId": reservationID.String(), "action": "nudge"})
	resp := httptest.NewRecorder()
	ReservationAction(&testReservationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReservationListRoutesByRole(t *testing.T) {
	principalID := uuid.New()
	clientCalled := false
	merchantCalled := false
	svc := &testReservationsService{
		listClientFn: func(ctx context.Context, cid uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error) {
			clientCalled = true
			return nil, "", nil
		},
		listMerchFn: func(ctx context.Context, mid uuid.UUID, params pagination.Params) ([]reservations.ReservationDTO, string, error) {
			merchantCalled = true
			return nil, "", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/", nil)
	req = principalRequest(req, principalID, enums.RoleClient)
	resp := httptest.NewRecorder()
	ReservationList(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK || !clientCalled {
		t.Fatalf("client list: status %d called %v", resp.Code, clientCalled)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reservations/", nil)
	req = principalRequest(req, principalID, enums.RoleMerchant)
	resp = httptest.NewRecorder()
	ReservationList(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK || !merchantCalled {
		t.Fatalf("merchant list: status %d called %v", resp.Code, merchantCalled)
	}
}
