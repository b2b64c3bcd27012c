package dto

import "time"

// CreateItemRequest payload for POST /items.
type CreateItemRequest struct {
	Department   string `json:"department"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	AmountNeeded int64  `json:"amount_needed"`
}

// UpdateItemRequest payload for PUT /items/:id. Omitted fields are unchanged.
type UpdateItemRequest struct {
	UserEmail    string  `json:"user_email"`
	Department   *string `json:"department"`
	Type         *string `json:"type"`
	Name         *string `json:"name"`
	AmountNeeded *int64  `json:"amount_needed"`
}

// UseItemRequest payload for POST /items/:id/use.
type UseItemRequest struct {
	UserEmail string `json:"user_email"`
	Amount    int64  `json:"amount"`
}

// ItemActionRequest carries the acting user for refill and delete.
type ItemActionRequest struct {
	UserEmail string `json:"user_email"`
}

// ItemResponse is the public view of a stock item.
type ItemResponse struct {
	ID            int64     `json:"id"`
	Department    string    `json:"department"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	CurrentAmount int64     `json:"current_amount"`
	AmountNeeded  int64     `json:"amount_needed"`
	Depleted      bool      `json:"depleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UseItemResponse reports a debit.
type UseItemResponse struct {
	ItemID        int64 `json:"item_id"`
	Used          int64 `json:"used"`
	CurrentAmount int64 `json:"current_amount"`
	Depleted      bool  `json:"depleted"`
}

// RefillResponse reports a refill.
type RefillResponse struct {
	ItemID     int64 `json:"item_id"`
	RefilledTo int64 `json:"refilled_to"`
}
