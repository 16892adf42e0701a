package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type cloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cfg config.Cloudinary) (MediaHost, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &cloudinaryService{cld: cld}, nil
}

func (s *cloudinaryService) Upload(ctx context.Context, media *Media) (*models.MediaAsset, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(media.Data), uploader.UploadParams{
		PublicID:     id,
		Folder:       media.Folder,
		ResourceType: media.Type,
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		slog.Info(resp.Error.Message)
		return nil, errors.New(resp.Error.Message)
	}

	return &models.MediaAsset{
		Host:         config.MediaHostCloudinary,
		PublicID:     resp.PublicID,
		SecureURL:    resp.SecureURL,
		ResourceType: resp.ResourceType,
		Format:       resp.Format,
		MIMEType:     media.Kind.MIME.Value,
		Bytes:        resp.Bytes,
		Width:        resp.Width,
		Height:       resp.Height,
		UploadedAt:   now(),
	}, nil
}
