package dto

import "time"

// RegisterRequest payload for new admin or staff accounts.
type RegisterRequest struct {
	Role       string  `json:"role"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Department *string `json:"department,omitempty"`
	JobRole    *string `json:"job_role,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	Role       string  `json:"role"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
	JobRole    *string `json:"job_role,omitempty"`
}

// IdentityResponse is the verified caller context returned at login.
type IdentityResponse struct {
	Role       string `json:"role"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StaffEntry is one row of the staff directory.
type StaffEntry struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	JobRole    string `json:"job_role,omitempty"`
}
