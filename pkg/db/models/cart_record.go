package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// CartRecord is a buyer-scoped cart. A buyer has at most one active cart;
// checkout flips it to converted and stamps the batch it produced.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null"`
	Status      enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	BatchID     *uuid.UUID       `gorm:"column:batch_id;type:uuid"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
