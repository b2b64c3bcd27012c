package dto

import "time"

// ReserveRequest asks for a depletion projection or a restock request.
type ReserveRequest struct {
	ItemID       int64  `json:"item_id"`
	UserEmail    string `json:"user_email"`
	DailyUsage   int64  `json:"daily_usage"`
	TargetAmount *int64 `json:"target_amount,omitempty"`
}

// ProjectionResponse is the advisory outcome of a reserve call.
type ProjectionResponse struct {
	ItemID                int64   `json:"item_id"`
	ItemName              string  `json:"item_name"`
	Department            string  `json:"department"`
	CurrentAmount         int64   `json:"current_amount"`
	TargetAmount          int64   `json:"target_amount"`
	DailyUsage            int64   `json:"daily_usage"`
	Shortfall             int64   `json:"shortfall"`
	DaysRemaining         *int64  `json:"days_remaining,omitempty"`
	ExpectedDepletionDate *string `json:"expected_depletion_date,omitempty"`
}

// RestockRequestResponse is a persisted restock request.
type RestockRequestResponse struct {
	ID                  int64      `json:"id"`
	ItemID              int64      `json:"item_id"`
	ItemName            string     `json:"item_name"`
	Department          string     `json:"department"`
	UserEmail           string     `json:"user_email"`
	DailyUsage          int64      `json:"daily_usage"`
	AmountToRefill      int64      `json:"amount_to_refill"`
	CreatedOn           time.Time  `json:"created_on"`
	ExpectedRestockDate string     `json:"expected_restock_date"`
	Status              string     `json:"status"`
	FulfilledOn         *time.Time `json:"fulfilled_on,omitempty"`
}
