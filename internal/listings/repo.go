package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

// Repository exposes listing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listing repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ListingRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetByID loads a listing with its inventory row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id = ?", id).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByIDs loads listings keyed by id. Missing ids are simply absent from the map.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Listing, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*models.Listing{}, nil
	}
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.Listing, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
