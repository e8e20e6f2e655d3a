package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// Listing is a seller's book offer. Prices live in pesewas; the modes array
// controls which transaction modes the seller accepts for it.
type Listing struct {
	ID       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Title    string              `gorm:"column:title;not null"`
	Author   *string             `gorm:"column:author"`
	ISBN     *string             `gorm:"column:isbn"`
	Status   enums.ListingStatus `gorm:"column:status;type:listing_status;not null;default:'active'"`
	Modes    pq.StringArray      `gorm:"column:modes;type:text[];not null;default:ARRAY['purchase']::text[]"`

	PricePesewas int `gorm:"column:price_pesewas;not null;default:0"`

	RentPricePesewas *int              `gorm:"column:rent_price_pesewas"`
	RentUnit         *enums.RentalUnit `gorm:"column:rent_unit;type:rental_unit"`
	RentMinDuration  *int              `gorm:"column:rent_min_duration"`
	RentMaxDuration  *int              `gorm:"column:rent_max_duration"`

	Inventory *InventoryItem `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OffersMode reports whether the seller accepts the given transaction mode.
func (l Listing) OffersMode(mode enums.TransactionMode) bool {
	for _, m := range l.Modes {
		if m == string(mode) {
			return true
		}
	}
	return false
}
