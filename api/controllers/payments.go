package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/api/responses"
	"github.com/mensahkwame/bookmarket-backend/api/validators"
	paymentsvc "github.com/mensahkwame/bookmarket-backend/internal/payments"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
)

// PaymentInitiate starts (or resumes) the gateway transaction for a batch.
func PaymentInitiate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), buyerID, payload.BatchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentVerify pulls the authoritative transaction state for a reference.
func PaymentVerify(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reference := chi.URLParam(r, "reference")
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required"))
			return
		}

		outcome, err := svc.Verify(r.Context(), buyerID, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

type initiatePaymentRequest struct {
	BatchID uuid.UUID `json:"batch_id" validate:"required"`
}
