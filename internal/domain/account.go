package domain

import (
	"strings"
	"time"
)

// AccountRole separates administrators from department staff.
type AccountRole string

const (
	AccountRoleAdmin AccountRole = "admin"
	AccountRoleStaff AccountRole = "staff"
)

// ParseAccountRole normalizes caller input into a known role.
func ParseAccountRole(raw string) (AccountRole, bool) {
	switch AccountRole(strings.ToLower(strings.TrimSpace(raw))) {
	case AccountRoleAdmin:
		return AccountRoleAdmin, true
	case AccountRoleStaff:
		return AccountRoleStaff, true
	default:
		return "", false
	}
}

// Account is an admin or staff login. Email is unique per role.
type Account struct {
	Role         AccountRole
	Email        string
	Name         string
	Department   *string
	JobRole      *string
	PasswordHash string
	CreatedAt    time.Time
}
