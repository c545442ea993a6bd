package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role controls which dashboards and mutation endpoints a user may reach.
type Role string

const (
	RoleAgent Role = "Agent"
	RoleBuyer Role = "Buyer"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleBuyer, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is an identity record in the users collection. Password holds the
// bcrypt hash and is only populated by the explicit with-credential query
// path used for login; it never serializes to JSON.
type User struct {
	ID             primitive.ObjectID   `json:"id"             bson:"_id,omitempty"`
	FullName       string               `json:"fullName"       bson:"fullName"`
	Email          string               `json:"email"          bson:"email"`
	Password       string               `json:"-"              bson:"password,omitempty"`
	Role           Role                 `json:"role"           bson:"role"`
	IsVerified     bool                 `json:"isVerified"     bson:"isVerified"`
	ProfilePicture string               `json:"profilePicture" bson:"profilePicture"`
	Listings       []primitive.ObjectID `json:"listings"       bson:"listings"`
	CreatedAt      time.Time            `json:"createdAt"      bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"      bson:"updatedAt"`
}

// AgentSummary is the owner projection attached to property reads.
type AgentSummary struct {
	ID       primitive.ObjectID `json:"id"       bson:"_id"`
	FullName string             `json:"fullName" bson:"fullName"`
	Email    string             `json:"email"    bson:"email"`
	Role     Role               `json:"role"     bson:"role"`
}

// SignupRequest is the JSON body for POST /api/v1/auth/signup.
type SignupRequest struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           Role   `json:"role"`
	ProfilePicture string `json:"profilePicture"`
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
