package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// CartItem is a cart line. Lines are keyed by (cart_id, listing_id, mode), so
// the same book can sit in a cart once as a purchase and once as a rental.
type CartItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:uq_cart_items_cart_listing_mode"`
	ListingID      uuid.UUID             `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_cart_items_cart_listing_mode"`
	Mode           enums.TransactionMode `gorm:"column:mode;type:transaction_mode;not null;uniqueIndex:uq_cart_items_cart_listing_mode"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	RentalDuration *int                  `gorm:"column:rental_duration"`

	// Display cache captured when the line was added. Checkout never reads
	// these; pricing is requoted from the listing every time.
	TitleSnapshot            string `gorm:"column:title_snapshot;not null;default:''"`
	UnitPriceSnapshotPesewas int    `gorm:"column:unit_price_snapshot_pesewas;not null;default:0"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
