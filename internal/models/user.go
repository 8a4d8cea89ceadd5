package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a staff account: an administrator or a POS terminal operator bound
// to a single operating branch.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Branch       string             `bson:"branch" json:"branch"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const (
	RoleAdmin        = "admin"
	RoleWholesalePOS = "wholesale_pos"
)

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleWholesalePOS
}

// Actor identifies the authenticated caller of an operation. It is built by
// the auth middleware from verified token claims and treated as trusted input
// from there on.
type Actor struct {
	ID     string
	Name   string
	Role   string
	Branch string
}
