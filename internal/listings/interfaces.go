package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
)

// ListingRepository defines the persistence surface the checkout path needs.
type ListingRepository interface {
	WithTx(tx *gorm.DB) ListingRepository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Listing, error)
}
