package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	SetVerificationCode(ctx context.Context, email string, code *string) error
	MarkVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, clearCode bool) error
}

type userRepository struct {
	c *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{c: db.Collection(UsersCollection)}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, bool, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, bool, error) {
	var user models.User
	err := r.c.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	result, err := r.c.InsertOne(ctx, user)
	if err != nil {
		slog.Info(err.Error())
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	user.ID = id
	return id, nil
}

func (r *userRepository) SetVerificationCode(ctx context.Context, email string, code *string) error {
	return r.update(ctx, bson.M{"email": email}, bson.M{
		"verification_code": code,
		"updated_at":        time.Now().UTC(),
	})
}

func (r *userRepository) MarkVerified(ctx context.Context, email string) error {
	return r.update(ctx, bson.M{"email": email}, bson.M{
		"verified":          true,
		"verification_code": nil,
		"updated_at":        time.Now().UTC(),
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, clearCode bool) error {
	fields := bson.M{
		"password":   passwordHash,
		"updated_at": time.Now().UTC(),
	}
	if clearCode {
		fields["verification_code"] = nil
	}
	return r.update(ctx, bson.M{"_id": id}, fields)
}

func (r *userRepository) update(ctx context.Context, filter, fields bson.M) error {
	_, err := r.c.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
