package service

import (
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// ParseUserID converts a hex user id into an ObjectID.
func ParseUserID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		slog.Info(err.Error())
		return primitive.NilObjectID, badRequest("Invalid user_id format")
	}
	return id, nil
}

func now() time.Time {
	return time.Now().UTC()
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
