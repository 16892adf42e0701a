package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("Error getting user info")
	}

	if !isExist {
		return nil, notFound("User not found")
	}

	return user, nil
}
