package domain

import "time"

// StockItem is a consumable tracked against a restock target.
type StockItem struct {
	ID            int64
	Department    string
	Type          string
	Name          string
	CurrentAmount int64
	AmountNeeded  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Depleted reports whether the item has run out.
func (i StockItem) Depleted() bool {
	return i.CurrentAmount == 0
}

// Shortfall returns how many units are missing to reach target.
func (i StockItem) Shortfall(target int64) int64 {
	if target > i.CurrentAmount {
		return target - i.CurrentAmount
	}
	return 0
}
