package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/api/middleware"
	"github.com/mensahkwame/bookmarket-backend/api/responses"
	"github.com/mensahkwame/bookmarket-backend/api/validators"
	cartsvc "github.com/mensahkwame/bookmarket-backend/internal/cart"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
	"github.com/mensahkwame/bookmarket-backend/pkg/money"
)

// CartGet returns the buyer's active cart, creating an empty one on first use.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetActive(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartAddItem adds one line to the active cart, merging duplicates.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseTransactionMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction mode"))
			return
		}

		record, err := svc.AddItem(r.Context(), buyerID, cartsvc.AddItemInput{
			ListingID:      payload.ListingID,
			Mode:           mode,
			Quantity:       payload.Quantity,
			RentalDuration: payload.RentalDuration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

// CartUpdateItem changes the quantity of one line; zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateQuantity(r.Context(), buyerID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartRemoveItem deletes one line from the active cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		record, err := svc.RemoveItem(r.Context(), buyerID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartClear empties the active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]any{"cleared": true})
	}
}

func requireBuyer(r *http.Request) (uuid.UUID, error) {
	buyerID := middleware.UserUUIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return buyerID, nil
}

type addCartItemRequest struct {
	ListingID      uuid.UUID `json:"listing_id" validate:"required"`
	Mode           string    `json:"mode" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,min=1"`
	RentalDuration *int      `json:"rental_duration,omitempty"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// Title and price on a line are the display cache from when it was added;
// checkout requotes and may disagree.
type cartItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ListingID      uuid.UUID `json:"listing_id"`
	Mode           string    `json:"mode"`
	Quantity       int       `json:"quantity"`
	RentalDuration *int      `json:"rental_duration,omitempty"`
	Title          string    `json:"title,omitempty"`
	UnitPrice      string    `json:"unit_price,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type cartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Status    string             `json:"status"`
	Items     []cartItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	items := make([]cartItemResponse, len(record.Items))
	for i, item := range record.Items {
		items[i] = cartItemResponse{
			ID:             item.ID,
			ListingID:      item.ListingID,
			Mode:           item.Mode.String(),
			Quantity:       item.Quantity,
			RentalDuration: item.RentalDuration,
			Title:          item.TitleSnapshot,
			CreatedAt:      item.CreatedAt,
		}
		if item.UnitPriceSnapshotPesewas > 0 {
			items[i].UnitPrice = money.FormatGHS(item.UnitPriceSnapshotPesewas)
		}
	}
	return cartResponse{
		ID:        record.ID,
		Status:    record.Status.String(),
		Items:     items,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
