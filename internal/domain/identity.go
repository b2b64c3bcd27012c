package domain

// Identity is the verified caller context handed to every ledger and catalog call.
type Identity struct {
	Role       AccountRole
	Email      string
	Name       string
	Department string
}

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool {
	return i.Role == AccountRoleAdmin
}

// IsStaffOf reports whether the caller is staff of the given department.
func (i Identity) IsStaffOf(department string) bool {
	return i.Role == AccountRoleStaff && i.Department != "" && i.Department == department
}

// IdentityFromAccount builds the caller context for a stored account.
func IdentityFromAccount(acc *Account) Identity {
	id := Identity{Role: acc.Role, Email: acc.Email, Name: acc.Name}
	if acc.Department != nil {
		id.Department = *acc.Department
	}
	return id
}
