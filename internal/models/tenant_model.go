package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tenant is the single credentials document kept per user.
type Tenant struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID              primitive.ObjectID   `bson:"user_id" json:"user_id"`
	InstaCredentials    *InstaCredentials    `bson:"insta_credentials,omitempty" json:"insta_credentials,omitempty"`
	FacebookCredentials *FacebookCredentials `bson:"facebook_credentials,omitempty" json:"facebook_credentials,omitempty"`
	CreatedAt           time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt           *time.Time           `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type InstaCredentials struct {
	AccessToken string `bson:"ACCESS_TOKENS" json:"ACCESS_TOKENS"`
	IGUserID    string `bson:"IG_USER_ID" json:"IG_USER_ID"`
}

// Complete reports whether both fields needed to publish are present.
func (c *InstaCredentials) Complete() bool {
	return c != nil && c.AccessToken != "" && c.IGUserID != ""
}

type FacebookCredentials struct {
	PageID          string `bson:"PAGE_ID" json:"PAGE_ID"`
	FacebookAccess  string `bson:"FACEBOOK_ACCESS" json:"FACEBOOK_ACCESS"`
	ExpiryTimestamp int64  `bson:"expiry_timestamp,omitempty" json:"expiry_timestamp,omitempty"`
}

func (c *FacebookCredentials) Complete() bool {
	return c != nil && c.PageID != "" && c.FacebookAccess != ""
}

// CredentialsPatch is a field-level update of a tenant document. Nil
// fields are left untouched.
type CredentialsPatch struct {
	InstaAccessToken *string
	IGUserID         *string
	PageID           *string
	FacebookAccess   *string
	ExpiryTimestamp  *int64
}

func (p CredentialsPatch) Empty() bool {
	return p.InstaAccessToken == nil && p.IGUserID == nil &&
		p.PageID == nil && p.FacebookAccess == nil && p.ExpiryTimestamp == nil
}
