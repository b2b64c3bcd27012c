package events

import (
	"time"
)

// EventType enumerates supported event identifiers. The value doubles as the
// AMQP routing key.
type EventType string

const (
	EventItemDepleted         EventType = "item.depleted"
	EventItemRefilled         EventType = "item.refilled"
	EventReservationRequested EventType = "reservation.requested"
	EventReservationFulfilled EventType = "reservation.fulfilled"
	EventTransferImported     EventType = "transfer.imported"
)

// Actor identifies the account that caused an event.
type Actor struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Department string      `json:"department,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ItemDepletedPayload is emitted when a debit leaves an item at zero.
type ItemDepletedPayload struct {
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	AmountNeeded int64  `json:"amount_needed"`
}

// ItemRefilledPayload is emitted after a refill.
type ItemRefilledPayload struct {
	ItemID     int64  `json:"item_id"`
	ItemName   string `json:"item_name"`
	RefilledTo int64  `json:"refilled_to"`
}

// ReservationPayload describes a restock request transition.
type ReservationPayload struct {
	ReservationID       int64     `json:"reservation_id"`
	ItemID              int64     `json:"item_id"`
	ItemName            string    `json:"item_name"`
	AmountToRefill      int64     `json:"amount_to_refill"`
	ExpectedRestockDate time.Time `json:"expected_restock_date"`
}

// TransferImportedPayload summarises a bulk import.
type TransferImportedPayload struct {
	Kind     string `json:"kind"`
	Total    int    `json:"total"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}
