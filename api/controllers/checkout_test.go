package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "github.com/mensahkwame/bookmarket-backend/internal/checkout"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

type stubCheckoutService struct {
	result *checkoutsvc.ValidationResult
	batch  *models.OrderBatch
	err    error

	lastCommit checkoutsvc.CommitInput
}

func (s *stubCheckoutService) Validate(ctx context.Context, buyerID uuid.UUID) (*checkoutsvc.ValidationResult, error) {
	return s.result, s.err
}

func (s *stubCheckoutService) Commit(ctx context.Context, buyerID uuid.UUID, input checkoutsvc.CommitInput) (*models.OrderBatch, error) {
	s.lastCommit = input
	return s.batch, s.err
}

func TestCheckoutValidateReturnsPricedCart(t *testing.T) {
	t.Parallel()

	cartID := uuid.New()
	svc := &stubCheckoutService{
		result: &checkoutsvc.ValidationResult{
			CartID: cartID,
			Lines: []checkoutsvc.ValidatedLine{
				{
					ItemID:           uuid.New(),
					ListingID:        uuid.New(),
					Mode:             enums.TransactionModePurchase,
					Quantity:         2,
					UnitPricePesewas: 1500,
					SubtotalPesewas:  3000,
				},
			},
			TotalPesewas: 3000,
		},
	}
	handler := CheckoutValidate(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout/validate", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data validationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CartID != cartID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.CartID)
	}
	if envelope.Data.TotalDisplay != "GHS 30.00" {
		t.Fatalf("unexpected total display: %s", envelope.Data.TotalDisplay)
	}
	if envelope.Data.Warnings == nil {
		t.Fatal("warnings should serialize as an empty array, not null")
	}
}

func TestCheckoutCommitCreated(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{
		batch: &models.OrderBatch{
			ID:            uuid.New(),
			PaymentMethod: enums.PaymentMethodPaystack,
			Status:        enums.PaymentStatusPending,
			TotalPesewas:  3000,
			Orders: []models.Order{
				{
					ID:               uuid.New(),
					SellerID:         uuid.New(),
					ListingID:        uuid.New(),
					Mode:             enums.TransactionModePurchase,
					Quantity:         2,
					UnitPricePesewas: 1500,
					SubtotalPesewas:  3000,
					PaymentStatus:    enums.PaymentStatusPending,
					DeliveryMethod:   enums.DeliveryMethodPickup,
				},
			},
		},
	}
	handler := CheckoutCommit(svc, nil)

	body := `{"payment_method":"paystack","delivery_method":"pickup"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastCommit.PaymentMethod != enums.PaymentMethodPaystack {
		t.Fatalf("unexpected payment method: %s", svc.lastCommit.PaymentMethod)
	}
	if svc.lastCommit.DeliveryMethod != enums.DeliveryMethodPickup {
		t.Fatalf("unexpected delivery method: %s", svc.lastCommit.DeliveryMethod)
	}

	var envelope struct {
		Data batchResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != svc.batch.ID {
		t.Fatalf("unexpected batch id: %s", envelope.Data.ID)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(envelope.Data.Orders))
	}
}

func TestCheckoutCommitRejectsUnknownPaymentMethod(t *testing.T) {
	t.Parallel()

	handler := CheckoutCommit(&stubCheckoutService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", `{"payment_method":"barter"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutCommitSurfacesCartConflict(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{
		err: pkgerrors.New(pkgerrors.CodeConflict, "cart changed since it was last viewed"),
	}
	handler := CheckoutCommit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", `{"payment_method":"paystack"}`))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "cart changed since it was last viewed" {
		t.Fatalf("unexpected message: %s", envelope.Error.Message)
	}
}
