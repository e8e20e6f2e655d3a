package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	pkgerrors "github.com/mensahkwame/bookmarket-backend/pkg/errors"
)

const (
	ReasonInsufficientStock = "insufficient stock"
	ReasonUnknownListing    = "listing has no inventory"
)

// ReservationRequest asks the ledger to move qty units from available to reserved.
type ReservationRequest struct {
	CartItemID uuid.UUID
	ListingID  uuid.UUID
	Qty        int
}

// ReservationResult reports the per-request outcome. Reserved=false carries a
// human-readable reason so checkout can surface which line failed.
type ReservationResult struct {
	CartItemID uuid.UUID
	ListingID  uuid.UUID
	Qty        int
	Reserved   bool
	Reason     string
}

// Reserve applies each request with a guarded decrement inside the caller's
// transaction. The WHERE clause carries the stock check, so two concurrent
// buyers racing for the last copy serialize on the row lock and exactly one
// sees RowsAffected=1. Partial failure does not stop the loop; the caller
// decides whether to roll back.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("reservation qty must be positive for listing %s", req.ListingID))
		}

		res := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("listing_id = ? AND available_qty >= ?", req.ListingID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", req.Qty),
			})
		if res.Error != nil {
			return nil, res.Error
		}

		result := ReservationResult{
			CartItemID: req.CartItemID,
			ListingID:  req.ListingID,
			Qty:        req.Qty,
			Reserved:   res.RowsAffected == 1,
		}
		if !result.Reserved {
			result.Reason = failureReason(ctx, tx, req.ListingID)
		}
		results = append(results, result)
	}
	return results, nil
}

// Release returns reserved units to the available pool, used when a pending
// payment fails or expires. The guard mirrors Reserve so a double release
// cannot drive reserved_qty negative.
func Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("release qty must be positive for listing %s", req.ListingID))
		}

		res := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("listing_id = ? AND reserved_qty >= ?", req.ListingID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty - ?", req.Qty),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot release %d units for listing %s", req.Qty, req.ListingID))
		}
	}
	return nil
}

// Settle burns reserved units once payment completes; the stock has left the
// building and never returns to available.
func Settle(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("settle qty must be positive for listing %s", req.ListingID))
		}

		res := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("listing_id = ? AND reserved_qty >= ?", req.ListingID, req.Qty).
			Updates(map[string]any{
				"reserved_qty": gorm.Expr("reserved_qty - ?", req.Qty),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot settle %d units for listing %s", req.Qty, req.ListingID))
		}
	}
	return nil
}

// CheckAvailability returns available quantities keyed by listing id. Listings
// without an inventory row are absent from the map.
func CheckAvailability(ctx context.Context, db *gorm.DB, listingIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(listingIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	var rows []models.InventoryItem
	if err := db.WithContext(ctx).
		Where("listing_id IN ?", listingIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ListingID] = row.AvailableQty
	}
	return out, nil
}

func failureReason(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) string {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error; err != nil || count == 0 {
		return ReasonUnknownListing
	}
	return ReasonInsufficientStock
}
