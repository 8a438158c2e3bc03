package event

import (
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/receivable"
)

// RegisterAllEvents registers all domain event types with the serializer.
// The OutboxProcessor can only deliver event types registered here.
func RegisterAllEvents(serializer *EventSerializer) {
	// Ledger
	serializer.Register(ledger.EventTypeJournalPosted, &ledger.JournalPostedEvent{})
	serializer.Register(ledger.EventTypeJournalVoided, &ledger.JournalVoidedEvent{})
	serializer.Register(ledger.EventTypeCOABootstrapped, &ledger.COABootstrappedEvent{})

	// Accounts receivable
	serializer.Register(receivable.EventTypeReceiptCreated, &receivable.ReceiptCreatedEvent{})
	serializer.Register(receivable.EventTypeReceiptPosted, &receivable.ReceiptPostedEvent{})
	serializer.Register(receivable.EventTypeReceiptVoided, &receivable.ReceiptVoidedEvent{})
}
