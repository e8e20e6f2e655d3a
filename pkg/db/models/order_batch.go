package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// OrderBatch groups the orders produced by a single checkout commit. Payment
// is taken once per batch; the per-seller orders underneath settle together.
type OrderBatch struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID       uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	TotalPesewas  int                 `gorm:"column:total_pesewas;not null"`

	ContactPhone    string `gorm:"column:contact_phone;not null;default:''"`
	DeliveryAddress string `gorm:"column:delivery_address;not null;default:''"`

	Orders        []Order             `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
