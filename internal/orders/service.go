package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/pagination"
)

// Service exposes order reads scoped to the requesting user.
type Service interface {
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetBatch(ctx context.Context, batchID, buyerID uuid.UUID) (*models.OrderBatch, error)
	ListBought(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListSold(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	repo OrderRepository
}

// NewService builds an order read service.
func NewService(repo OrderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id are required")
	}
	return s.repo.GetOrderForUser(ctx, orderID, userID)
}

func (s *service) GetBatch(ctx context.Context, batchID, buyerID uuid.UUID) (*models.OrderBatch, error) {
	if batchID == uuid.Nil || buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id and buyer id are required")
	}
	return s.repo.GetBatchForBuyer(ctx, batchID, buyerID)
}

func (s *service) ListBought(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if buyerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	return s.repo.ListForBuyer(ctx, buyerID, params)
}

func (s *service) ListSold(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if sellerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	return s.repo.ListForSeller(ctx, sellerID, params)
}
