package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
)

// PaymentSession tracks one gateway transaction for an order batch. The
// reference is deterministic per batch so a failed initialize can be retried
// without minting a new session.
type PaymentSession struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID uuid.UUID `gorm:"column:batch_id;type:uuid;not null;index"`
	BuyerID uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`

	Method        enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountPesewas int                 `gorm:"column:amount_pesewas;not null"`
	Reference     string              `gorm:"column:reference;not null;uniqueIndex:uq_payment_sessions_reference"`

	AuthorizationURL *string `gorm:"column:authorization_url"`
	AccessCode       *string `gorm:"column:access_code"`
	GatewayStatus    *string `gorm:"column:gateway_status"`
	FailureReason    *string `gorm:"column:failure_reason"`

	VerifiedAt *time.Time `gorm:"column:verified_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
