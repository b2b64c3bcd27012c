package domain

import "time"

// Role is a descriptive job title offered to staff at registration.
type Role struct {
	Name      string
	CreatedAt time.Time
}
