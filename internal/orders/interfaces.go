package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	"github.com/mensahkwame/bookmarket-backend/pkg/pagination"
)

// OrderRepository defines the persistence surface for batches and orders.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	CreateBatch(ctx context.Context, batch *models.OrderBatch) (*models.OrderBatch, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.OrderBatch, error)
	GetBatchForBuyer(ctx context.Context, batchID, buyerID uuid.UUID) (*models.OrderBatch, error)
	GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListPendingBatchesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.OrderBatch, error)
	UpdateBatchPaymentStatus(ctx context.Context, batchID uuid.UUID, from, to enums.PaymentStatus) (bool, error)
}
