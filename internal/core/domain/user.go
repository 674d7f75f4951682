package domain

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// User is a registered bank user. PasswordHash is a bcrypt hash and never
// leaves the service layer.
type User struct {
	UserID        int64     `json:"userID"`
	Username      string    `json:"username"`
	FullName      string    `json:"fullName"`
	Role          string    `json:"role"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
