package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindItem(ctx context.Context, cartID uuid.UUID, itemID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	MarkConverted(ctx context.Context, cartID, batchID uuid.UUID) error
}
