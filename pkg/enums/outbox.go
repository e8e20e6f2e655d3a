package enums

import "fmt"

// OutboxEventType enumerates the domain events the outbox can carry.
type OutboxEventType string

const (
	OutboxEventOrderCreated    OutboxEventType = "order.created"
	OutboxEventPaymentSettled  OutboxEventType = "payment.settled"
	OutboxEventPaymentFailed   OutboxEventType = "payment.failed"
	OutboxEventPaymentExpired  OutboxEventType = "payment.expired"
	OutboxEventOrderRefunded   OutboxEventType = "order.refunded"
	OutboxEventCartAbandonment OutboxEventType = "cart.abandoned"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventOrderCreated,
	OutboxEventPaymentSettled,
	OutboxEventPaymentFailed,
	OutboxEventPaymentExpired,
	OutboxEventOrderRefunded,
	OutboxEventCartAbandonment,
}

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrderBatch OutboxAggregateType = "order_batch"
	OutboxAggregateCart       OutboxAggregateType = "cart"
)

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
