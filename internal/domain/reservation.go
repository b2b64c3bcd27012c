package domain

import "time"

// Projection is the advisory result of a reservation request. It never holds stock.
type Projection struct {
	ItemID                int64
	ItemName              string
	Department            string
	CurrentAmount         int64
	TargetAmount          int64
	DailyUsage            int64
	Shortfall             int64
	DaysRemaining         *int64
	ExpectedDepletionDate *time.Time
}

// ReservationStatus enumerates restock request states.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusFulfilled, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation is a persisted restock request built from a projection.
type Reservation struct {
	ID                  int64
	ItemID              int64
	ItemName            string
	Department          string
	UserEmail           string
	DailyUsage          int64
	AmountToRefill      int64
	CreatedOn           time.Time
	ExpectedRestockDate time.Time
	Status              ReservationStatus
	FulfilledOn         *time.Time
}
