package enums

// OutboxEventType enumerates domain events written to the outbox table.
type OutboxEventType string

const (
	EventTransactionCompleted OutboxEventType = "transaction.completed"
	EventTransactionCancelled OutboxEventType = "transaction.cancelled"
	EventTransactionRefunded  OutboxEventType = "transaction.refunded"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
)

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	switch t {
	case EventTransactionCompleted, EventTransactionCancelled, EventTransactionRefunded:
		return true
	}
	return false
}
