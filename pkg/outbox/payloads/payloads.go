package payloads

import "github.com/google/uuid"

// OrderCreatedEvent is emitted when a checkout commit produces a batch.
type OrderCreatedEvent struct {
	BatchID      uuid.UUID   `json:"batchId"`
	BuyerID      uuid.UUID   `json:"buyerId"`
	OrderIDs     []uuid.UUID `json:"orderIds"`
	TotalPesewas int         `json:"totalPesewas"`
}

// PaymentSettledEvent is emitted when a batch's payment verifies as successful.
type PaymentSettledEvent struct {
	BatchID       uuid.UUID `json:"batchId"`
	Reference     string    `json:"reference"`
	AmountPesewas int       `json:"amountPesewas"`
	Channel       string    `json:"channel,omitempty"`
}

// PaymentFailedEvent is emitted when the gateway reports a decline.
type PaymentFailedEvent struct {
	BatchID   uuid.UUID `json:"batchId"`
	Reference string    `json:"reference"`
	Reason    string    `json:"reason,omitempty"`
}

// PaymentExpiredEvent is emitted when a pending batch outlives its TTL.
type PaymentExpiredEvent struct {
	BatchID uuid.UUID `json:"batchId"`
}
