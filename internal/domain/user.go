package domain

import (
	"context"
	"time"
)

// RoleAdmin is the role code allowed to invalidate participations and manage capacities.
const RoleAdmin = "admin"

// User is a club member as far as admission is concerned. ID is the subject of the
// member's bearer token; Email may be empty when the token carries none.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthClaims is the authenticated identity extracted from a bearer token.
type AuthClaims struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the claims carry the given role code.
func (c AuthClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated identity.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// Upsert creates the user or refreshes its email and name. Empty fields never
	// overwrite stored ones. u is filled with the stored row.
	Upsert(ctx context.Context, u *User) error
}

// MemberService records the member behind an authenticated identity.
type MemberService interface {
	EnsureMember(ctx context.Context, claims AuthClaims) (*User, error)
}
