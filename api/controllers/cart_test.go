package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/api/middleware"
	cartsvc "github.com/mensahkwame/bookmarket-backend/internal/cart"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

type stubCartService struct {
	record *models.CartRecord
	err    error

	lastAdd cartsvc.AddItemInput
}

func (s *stubCartService) GetActive(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	return s.record, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, buyerID uuid.UUID, input cartsvc.AddItemInput) (*models.CartRecord, error) {
	s.lastAdd = input
	return s.record, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.CartRecord, error) {
	return s.record, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*models.CartRecord, error) {
	return s.record, s.err
}

func (s *stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return s.err
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func activeCart(buyerID uuid.UUID) *models.CartRecord {
	return &models.CartRecord{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.CartStatusActive,
		Items: []models.CartItem{
			{
				ID:        uuid.New(),
				ListingID: uuid.New(),
				Mode:      enums.TransactionModePurchase,
				Quantity:  2,
			},
		},
	}
}

func TestCartGetReturnsActiveCart(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	svc := &stubCartService{record: activeCart(buyerID)}
	handler := CartGet(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != svc.record.ID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.ID)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(envelope.Data.Items))
	}
}

func TestCartGetRequiresAuth(t *testing.T) {
	t.Parallel()

	handler := CartGet(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemCreated(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	svc := &stubCartService{record: activeCart(buyerID)}
	handler := CartAddItem(svc, nil)

	listingID := uuid.New()
	body := `{"listing_id":"` + listingID.String() + `","mode":"rent","quantity":1,"rental_duration":2}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastAdd.ListingID != listingID {
		t.Fatalf("unexpected listing id: %s", svc.lastAdd.ListingID)
	}
	if svc.lastAdd.Mode != enums.TransactionModeRent {
		t.Fatalf("unexpected mode: %s", svc.lastAdd.Mode)
	}
	if svc.lastAdd.RentalDuration == nil || *svc.lastAdd.RentalDuration != 2 {
		t.Fatalf("rental duration not forwarded")
	}
}

func TestCartAddItemRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"listing_id":"` + uuid.NewString() + `","mode":"lease","quantity":1}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsMissingQuantity(t *testing.T) {
	t.Parallel()

	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"listing_id":"` + uuid.NewString() + `","mode":"purchase"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemRejectsBadID(t *testing.T) {
	t.Parallel()

	handler := CartUpdateItem(&stubCartService{}, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/cart/items/not-a-uuid", `{"quantity":3}`)
	req = withURLParam(req, "itemID", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	t.Parallel()

	handler := CartClear(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodDelete, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
