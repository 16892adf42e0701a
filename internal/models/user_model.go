package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser = "user"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	Password         string             `bson:"password" json:"-"`
	Role             string             `bson:"role" json:"role"`
	Verified         bool               `bson:"verified" json:"verified"`
	Status           string             `bson:"status" json:"status"`
	VerificationCode *string            `bson:"verification_code" json:"-"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasVerificationCode reports whether an OTP is pending for the user.
func (u *User) HasVerificationCode() bool {
	return u.VerificationCode != nil && *u.VerificationCode != ""
}
