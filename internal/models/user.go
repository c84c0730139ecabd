package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role classifies what a user does on the marketplace. It is a closed set
// fixed at registration; role is never mutated afterwards.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// ParseRole validates a role token coming from a registration form.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleFarmer, RoleBuyer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User represents a registered account, either a farmer or a buyer.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"` // Store hash, not plaintext
	Role         Role               `bson:"role" json:"role"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	IsAdmin      bool               `bson:"is_admin" json:"is_admin"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	Deleted      bool               `bson:"deleted" json:"-"` // Soft delete flag
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Actor is the request-scoped identity of the authenticated user. Handlers
// build it from the session and pass it explicitly into services and policy
// checks; there is no ambient auth state.
type Actor struct {
	ID      primitive.ObjectID
	Role    Role
	IsAdmin bool
}

// ActorFor returns the acting identity of a user.
func (u *User) ActorFor() Actor {
	return Actor{ID: u.ID, Role: u.Role, IsAdmin: u.IsAdmin}
}
