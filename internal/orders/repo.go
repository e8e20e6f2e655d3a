package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
	"github.com/mensahkwame/bookmarket-backend/pkg/pagination"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateBatch inserts the batch and its orders in one statement tree.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.OrderBatch) (*models.OrderBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// GetBatch loads a batch with its orders without ownership scoping. Reserved
// for internal callers; request handlers go through GetBatchForBuyer.
func (r *Repository) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.OrderBatch, error) {
	var batch models.OrderBatch
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("id = ?", batchID).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order batch not found")
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetBatchForBuyer loads a batch with its orders, restricted to the owning buyer.
func (r *Repository) GetBatchForBuyer(ctx context.Context, batchID, buyerID uuid.UUID) (*models.OrderBatch, error) {
	var batch models.OrderBatch
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("id = ? AND buyer_id = ?", batchID, buyerID).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order batch not found")
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetOrderForUser returns the order only when the user is its buyer or seller.
// Other users get a NotFound rather than a Forbidden so order ids leak nothing.
func (r *Repository) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND (buyer_id = ? OR seller_id = ?)", orderID, userID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForBuyer returns the buyer's orders newest-first with a cursor.
func (r *Repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, params)
}

// ListForSeller returns the seller's orders newest-first with a cursor.
func (r *Repository) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.list(ctx, "seller_id = ?", sellerID, params)
}

func (r *Repository) list(ctx context.Context, where string, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where(where, userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return rows, nextCursor, nil
}

// ListPendingBatchesOlderThan returns pending batches created before the cutoff.
func (r *Repository) ListPendingBatchesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.OrderBatch, error) {
	var rows []models.OrderBatch
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UpdateBatchPaymentStatus moves the batch and its orders from one payment
// status to another. The WHERE guard makes the transition idempotent under
// races: a second caller sees zero affected rows and reports false.
func (r *Repository) UpdateBatchPaymentStatus(ctx context.Context, batchID uuid.UUID, from, to enums.PaymentStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict,
			"payment status cannot move from "+from.String()+" to "+to.String())
	}

	updates := map[string]any{"status": to}
	res := r.db.WithContext(ctx).
		Model(&models.OrderBatch{}).
		Where("id = ? AND status = ?", batchID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	orderUpdates := map[string]any{"payment_status": to}
	if to == enums.PaymentStatusCompleted {
		orderUpdates["settled_at"] = time.Now()
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("batch_id = ? AND payment_status = ?", batchID, from).
		Updates(orderUpdates).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
