package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

const (
	igVideoFailed     = "Instagram video failed processing"
	igVideoProcessing = "Instagram video still processing, try again later."
)

type InstagramService interface {
	PublishImage(ctx context.Context, creds *models.InstaCredentials, imageURL, caption string) (transfer.GraphResponse, error)
	PublishReel(ctx context.Context, creds *models.InstaCredentials, videoURL, caption string) (transfer.GraphResponse, error)
}

type instagramService struct {
	graph        *graphClient
	pollAttempts int
	pollInterval time.Duration
}

func NewInstagramService(graphURL string, pollAttempts int, pollInterval time.Duration) InstagramService {
	return &instagramService{
		graph:        newGraphClient(graphURL),
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
	}
}

// PublishImage creates an image container and publishes it. When the
// container has no id its response is returned instead.
func (ig *instagramService) PublishImage(ctx context.Context, creds *models.InstaCredentials, imageURL, caption string) (transfer.GraphResponse, error) {
	container, err := ig.graph.post(ctx, fmt.Sprintf("%s/media", creds.IGUserID), url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {creds.AccessToken},
	})
	if err != nil {
		return nil, err
	}

	creationID := container.ID()
	if creationID == "" {
		slog.Info("instagram container not created", "ig_user_id", creds.IGUserID)
		return container, nil
	}

	return ig.publish(ctx, creds, creationID)
}

// PublishReel creates a REELS container, waits for it to finish processing
// and publishes it.
func (ig *instagramService) PublishReel(ctx context.Context, creds *models.InstaCredentials, videoURL, caption string) (transfer.GraphResponse, error) {
	container, err := ig.graph.post(ctx, fmt.Sprintf("%s/media", creds.IGUserID), url.Values{
		"media_type":   {"REELS"},
		"video_url":    {videoURL},
		"caption":      {caption},
		"access_token": {creds.AccessToken},
	})
	if err != nil {
		return nil, err
	}

	creationID := container.ID()
	if creationID == "" {
		slog.Info("instagram reel container not created", "ig_user_id", creds.IGUserID)
		return container, nil
	}

	for attempt := 1; attempt <= ig.pollAttempts; attempt++ {
		status, err := ig.graph.get(ctx, creationID, url.Values{
			"fields":       {"status_code"},
			"access_token": {creds.AccessToken},
		})
		if err != nil {
			return nil, err
		}

		switch status.StatusCode() {
		case transfer.ContainerStatusFinished:
			return ig.publish(ctx, creds, creationID)
		case transfer.ContainerStatusError:
			slog.Info("instagram container failed", "creation_id", creationID)
			return errorResponse(igVideoFailed), nil
		}

		if attempt == ig.pollAttempts {
			break
		}
		if err := sleepContext(ctx, ig.pollInterval); err != nil {
			return nil, err
		}
	}

	slog.Info("instagram container still processing", "creation_id", creationID, "attempts", ig.pollAttempts)
	return errorResponse(igVideoProcessing), nil
}

func (ig *instagramService) publish(ctx context.Context, creds *models.InstaCredentials, creationID string) (transfer.GraphResponse, error) {
	return ig.graph.post(ctx, fmt.Sprintf("%s/media_publish", creds.IGUserID), url.Values{
		"creation_id":  {creationID},
		"access_token": {creds.AccessToken},
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
