package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the access control layer. A user may hold several.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RolePharmacist   = "pharmacist"
	RoleReceptionist = "receptionist"
	RoleBilling      = "billing"
	RoleLabTech      = "lab-technician"
)

// User is a staff account. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles"`
	Phone        *string    `json:"phone,omitempty"`
	Department   *string    `json:"department,omitempty"`
	Designation  *string    `json:"designation,omitempty"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RegisterRequest is the payload for creating a user account.
type RegisterRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Password    string   `json:"password"`
	Roles       []string `json:"roles"`
	Phone       *string  `json:"phone,omitempty"`
	Department  *string  `json:"department,omitempty"`
	Designation *string  `json:"designation,omitempty"`
}

// LoginRequest is the payload for authenticating.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// ChangePasswordRequest is the payload for rotating a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
