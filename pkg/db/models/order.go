package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// Order is a single buyer/seller/listing line created at checkout. The unit
// price is the server-side quote frozen at commit time and never rewritten.
type Order struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID uuid.UUID `gorm:"column:batch_id;type:uuid;not null;index"`

	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null"`

	Mode             enums.TransactionMode `gorm:"column:mode;type:transaction_mode;not null"`
	Quantity         int                   `gorm:"column:quantity;not null"`
	UnitPricePesewas int                   `gorm:"column:unit_price_pesewas;not null"`
	SubtotalPesewas  int                   `gorm:"column:subtotal_pesewas;not null"`

	RentalDuration *int              `gorm:"column:rental_duration"`
	RentalUnit     *enums.RentalUnit `gorm:"column:rental_unit;type:rental_unit"`
	RentalDueAt    *time.Time        `gorm:"column:rental_due_at"`

	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod  enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method;not null;default:'pickup'"`

	SettledAt *time.Time `gorm:"column:settled_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
