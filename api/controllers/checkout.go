package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/api/responses"
	"github.com/mensahkwame/bookmarket-backend/api/validators"
	checkoutsvc "github.com/mensahkwame/bookmarket-backend/internal/checkout"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
	"github.com/mensahkwame/bookmarket-backend/pkg/money"
)

// CheckoutValidate reprices the active cart without mutating it.
func CheckoutValidate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newValidationResponse(result))
	}
}

// CheckoutCommit converts the active cart into an order batch.
func CheckoutCommit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload commitCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := checkoutsvc.CommitInput{
			PaymentMethod:   method,
			ContactPhone:    payload.ContactPhone,
			DeliveryAddress: payload.DeliveryAddress,
		}
		if payload.DeliveryMethod != "" {
			delivery, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
				return
			}
			input.DeliveryMethod = delivery
		}

		batch, err := svc.Commit(r.Context(), buyerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBatchResponse(batch))
	}
}

type commitCheckoutRequest struct {
	PaymentMethod   string `json:"payment_method" validate:"required"`
	DeliveryMethod  string `json:"delivery_method,omitempty"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

type validationResponse struct {
	CartID       uuid.UUID                   `json:"cart_id"`
	Lines        []checkoutsvc.ValidatedLine `json:"lines"`
	Warnings     []checkoutsvc.Warning       `json:"warnings"`
	TotalPesewas int                         `json:"total_pesewas"`
	TotalDisplay string                      `json:"total_display"`
}

func newValidationResponse(result *checkoutsvc.ValidationResult) validationResponse {
	lines := result.Lines
	if lines == nil {
		lines = []checkoutsvc.ValidatedLine{}
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []checkoutsvc.Warning{}
	}
	return validationResponse{
		CartID:       result.CartID,
		Lines:        lines,
		Warnings:     warnings,
		TotalPesewas: result.TotalPesewas,
		TotalDisplay: money.FormatGHS(result.TotalPesewas),
	}
}

type orderResponse struct {
	ID               uuid.UUID  `json:"id"`
	SellerID         uuid.UUID  `json:"seller_id"`
	ListingID        uuid.UUID  `json:"listing_id"`
	Mode             string     `json:"mode"`
	Quantity         int        `json:"quantity"`
	UnitPricePesewas int        `json:"unit_price_pesewas"`
	SubtotalPesewas  int        `json:"subtotal_pesewas"`
	RentalDuration   *int       `json:"rental_duration,omitempty"`
	RentalUnit       *string    `json:"rental_unit,omitempty"`
	PaymentStatus    string     `json:"payment_status"`
	DeliveryMethod   string     `json:"delivery_method"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type batchResponse struct {
	ID              uuid.UUID       `json:"id"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	TotalPesewas    int             `json:"total_pesewas"`
	TotalDisplay    string          `json:"total_display"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Orders          []orderResponse `json:"orders"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newOrderResponse(order models.Order) orderResponse {
	resp := orderResponse{
		ID:               order.ID,
		SellerID:         order.SellerID,
		ListingID:        order.ListingID,
		Mode:             order.Mode.String(),
		Quantity:         order.Quantity,
		UnitPricePesewas: order.UnitPricePesewas,
		SubtotalPesewas:  order.SubtotalPesewas,
		RentalDuration:   order.RentalDuration,
		PaymentStatus:    order.PaymentStatus.String(),
		DeliveryMethod:   order.DeliveryMethod.String(),
		SettledAt:        order.SettledAt,
		CreatedAt:        order.CreatedAt,
	}
	if order.RentalUnit != nil {
		unit := order.RentalUnit.String()
		resp.RentalUnit = &unit
	}
	return resp
}

func newBatchResponse(batch *models.OrderBatch) batchResponse {
	rows := make([]orderResponse, len(batch.Orders))
	for i, order := range batch.Orders {
		rows[i] = newOrderResponse(order)
	}
	return batchResponse{
		ID:              batch.ID,
		PaymentMethod:   batch.PaymentMethod.String(),
		Status:          batch.Status.String(),
		TotalPesewas:    batch.TotalPesewas,
		TotalDisplay:    money.FormatGHS(batch.TotalPesewas),
		ContactPhone:    batch.ContactPhone,
		DeliveryAddress: batch.DeliveryAddress,
		Orders:          rows,
		CreatedAt:       batch.CreatedAt,
	}
}
