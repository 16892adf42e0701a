package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

type FacebookService interface {
	PublishPhoto(ctx context.Context, creds *models.FacebookCredentials, imageURL, caption string) (transfer.GraphResponse, error)
	PublishVideo(ctx context.Context, creds *models.FacebookCredentials, videoURL, description string) (transfer.GraphResponse, error)
}

type facebookService struct {
	graph *graphClient
}

func NewFacebookService(graphURL string) FacebookService {
	return &facebookService{graph: newGraphClient(graphURL)}
}

func (fb *facebookService) PublishPhoto(ctx context.Context, creds *models.FacebookCredentials, imageURL, caption string) (transfer.GraphResponse, error) {
	return fb.graph.post(ctx, fmt.Sprintf("%s/photos", creds.PageID), url.Values{
		"url":          {imageURL},
		"caption":      {caption},
		"access_token": {creds.FacebookAccess},
	})
}

func (fb *facebookService) PublishVideo(ctx context.Context, creds *models.FacebookCredentials, videoURL, description string) (transfer.GraphResponse, error) {
	return fb.graph.post(ctx, fmt.Sprintf("%s/videos", creds.PageID), url.Values{
		"file_url":     {videoURL},
		"description":  {description},
		"access_token": {creds.FacebookAccess},
	})
}
