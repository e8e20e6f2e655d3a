package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/api/responses"
	"github.com/mensahkwame/bookmarket-backend/api/validators"
	ordersvc "github.com/mensahkwame/bookmarket-backend/internal/orders"
	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
	"github.com/mensahkwame/bookmarket-backend/pkg/pagination"
	"github.com/mensahkwame/bookmarket-backend/pkg/types"
)

// OrdersListBought lists the orders the user has placed, newest first.
func OrdersListBought(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, cursor, err := svc.ListBought(r.Context(), userID, listParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrdersPage(rows, cursor))
	}
}

// OrdersListSold lists the orders placed against the user's listings.
func OrdersListSold(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, cursor, err := svc.ListSold(r.Context(), userID, listParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrdersPage(rows, cursor))
	}
}

// OrderGet returns one order visible to its buyer or seller.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

// BatchGet returns an order batch visible to its buyer only.
func BatchGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireBuyer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id"))
			return
		}

		batch, err := svc.GetBatch(r.Context(), batchID, buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBatchResponse(batch))
	}
}

func listParams(r *http.Request) pagination.Params {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		limit = pagination.DefaultLimit
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}
}

func newOrdersPage(rows []models.Order, cursor string) types.Page {
	items := make([]orderResponse, len(rows))
	for i, row := range rows {
		items[i] = newOrderResponse(row)
	}
	return types.Page{Items: items, NextCursor: cursor}
}
