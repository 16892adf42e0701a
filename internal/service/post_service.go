package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultPostListLimit = 50

type PostService interface {
	PublishImage(ctx context.Context, userID primitive.ObjectID, caption, base64Image string) (*models.SocialPost, error)
	PublishVideo(ctx context.Context, userID primitive.ObjectID, caption, base64Video string) (*models.SocialPost, error)
	List(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.SocialPost, error)
}

type postService struct {
	creds CredentialsService
	posts repository.SocialPostRepository
	media MediaHost
	ig    InstagramService
	fb    FacebookService
}

func NewPostService(
	creds CredentialsService,
	posts repository.SocialPostRepository,
	media MediaHost,
	ig InstagramService,
	fb FacebookService) PostService {
	return &postService{
		creds: creds,
		posts: posts,
		media: media,
		ig:    ig,
		fb:    fb,
	}
}

func (s *postService) PublishImage(ctx context.Context, userID primitive.ObjectID, caption, base64Image string) (*models.SocialPost, error) {
	return s.publish(ctx, userID, caption, base64Image, models.MediaTypeImage)
}

func (s *postService) PublishVideo(ctx context.Context, userID primitive.ObjectID, caption, base64Video string) (*models.SocialPost, error) {
	return s.publish(ctx, userID, caption, base64Video, models.MediaTypeVideo)
}

// publish runs upload, Instagram and Facebook in order. A platform failure
// is recorded in its response field and does not stop the other platform.
func (s *postService) publish(ctx context.Context, userID primitive.ObjectID, caption, payload, mediaType string) (*models.SocialPost, error) {
	tenant, isExist, err := s.creds.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("Credentials for this user not found")
	}

	media, err := DecodeMedia(payload, mediaType)
	if err != nil {
		if errors.Is(err, errInvalidBase64) {
			return nil, badRequest(fmt.Sprintf("Invalid base64 %s data", mediaType))
		}
		return nil, badRequest(fmt.Sprintf("Unsupported %s format", mediaType))
	}

	asset, err := s.media.Upload(ctx, media)
	if err != nil {
		slog.Error("media upload failed", "user_id", userID.Hex(), "error", err)
		return nil, fmt.Errorf("media upload failed: %w", err)
	}
	if asset.SecureURL == "" {
		return nil, NewError(http.StatusInternalServerError, fmt.Sprintf("%s URL not returned from media host", mediaLabel(mediaType)))
	}

	post := &models.SocialPost{
		UserID:     userID,
		Caption:    caption,
		MediaType:  mediaType,
		UploadedAt: now(),
		Asset:      asset,
	}

	if tenant.InstaCredentials.Complete() {
		var resp transfer.GraphResponse
		if mediaType == models.MediaTypeVideo {
			resp, err = s.ig.PublishReel(ctx, tenant.InstaCredentials, asset.SecureURL, caption)
		} else {
			resp, err = s.ig.PublishImage(ctx, tenant.InstaCredentials, asset.SecureURL, caption)
		}
		post.InstagramResponse = platformResponse(resp, err, "instagram", userID)
	}

	if tenant.FacebookCredentials.Complete() {
		var resp transfer.GraphResponse
		if mediaType == models.MediaTypeVideo {
			resp, err = s.fb.PublishVideo(ctx, tenant.FacebookCredentials, asset.SecureURL, caption)
		} else {
			resp, err = s.fb.PublishPhoto(ctx, tenant.FacebookCredentials, asset.SecureURL, caption)
		}
		post.FacebookResponse = platformResponse(resp, err, "facebook", userID)
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		slog.Error("failed to record social post", "user_id", userID.Hex(), "error", err)
		return nil, fmt.Errorf("failed to record social post: %w", err)
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.SocialPost, error) {
	if limit <= 0 {
		limit = DefaultPostListLimit
	}
	posts, err := s.posts.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.SocialPost{}
	}
	return posts, nil
}

func platformResponse(resp transfer.GraphResponse, err error, platform string, userID primitive.ObjectID) map[string]interface{} {
	if err != nil {
		slog.Error("platform publish failed", "platform", platform, "user_id", userID.Hex(), "error", err)
		return errorResponse(err.Error())
	}
	return resp
}

func mediaLabel(mediaType string) string {
	if mediaType == models.MediaTypeVideo {
		return "Video"
	}
	return "Image"
}
