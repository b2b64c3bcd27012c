package domain

import "time"

// Department is a tenancy boundary for staff accounts and stock items.
type Department struct {
	Name      string
	CreatedAt time.Time
}
