package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// SocialPost records one cross-post attempt. It is written once and never updated.
type SocialPost struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"_id"`
	UserID            primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Caption           string                 `bson:"caption" json:"caption"`
	MediaType         string                 `bson:"media_type" json:"media_type"`
	UploadedAt        time.Time              `bson:"uploaded_at" json:"uploaded_at"`
	Asset             *MediaAsset            `bson:"cloudinary_response" json:"cloudinary_response"`
	InstagramResponse map[string]interface{} `bson:"instagram_response" json:"instagram_response"`
	FacebookResponse  map[string]interface{} `bson:"facebook_response" json:"facebook_response"`
}

// MediaAsset describes a file stored on the media host.
type MediaAsset struct {
	Host         string    `bson:"host" json:"host"`
	PublicID     string    `bson:"public_id" json:"public_id"`
	SecureURL    string    `bson:"secure_url" json:"secure_url"`
	ResourceType string    `bson:"resource_type" json:"resource_type"`
	Format       string    `bson:"format,omitempty" json:"format,omitempty"`
	MIMEType     string    `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Bytes        int       `bson:"bytes" json:"bytes"`
	Width        int       `bson:"width,omitempty" json:"width,omitempty"`
	Height       int       `bson:"height,omitempty" json:"height,omitempty"`
	UploadedAt   time.Time `bson:"uploaded_at" json:"uploaded_at"`
}
