package dto

// NameRequest creates a department or role.
type NameRequest struct {
	Name string `json:"name"`
}
