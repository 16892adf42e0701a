package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SocialPostRepository interface {
	Create(ctx context.Context, post *models.SocialPost) (primitive.ObjectID, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.SocialPost, error)
}

type socialPostRepository struct {
	c *mongo.Collection
}

func NewSocialPostRepository(db *mongo.Database) SocialPostRepository {
	return &socialPostRepository{c: db.Collection(SocialPostsCollection)}
}

func (r *socialPostRepository) Create(ctx context.Context, post *models.SocialPost) (primitive.ObjectID, error) {
	result, err := r.c.InsertOne(ctx, post)
	if err != nil {
		slog.Info(err.Error())
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	post.ID = id
	return id, nil
}

func (r *socialPostRepository) ListByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.SocialPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}
