package domain

import "time"

// IdentityClaim is the verified identity derived from a signed token. It is
// never persisted; it is reconstructed per request and passed down the call
// chain, never stored in shared mutable state.
type IdentityClaim struct {
	Subject   string    `json:"subject"` // username
	UserID    int64     `json:"userID"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Elevated reports whether the claim belongs to bank staff, who may query
// movements and accounts of other users.
func (c IdentityClaim) Elevated() bool {
	return c.Role == RoleEmployee || c.Role == RoleAdmin
}
