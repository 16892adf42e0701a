package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type r2Service struct {
	cfg    config.R2
	client *s3.Client
}

// NewR2Service builds a MediaHost backed by a Cloudflare R2 bucket. Objects
// are served from cfg.PublicURL.
func NewR2Service(ctx context.Context, cfg config.R2) (MediaHost, error) {
	if cfg.PublicURL == "" {
		return nil, fmt.Errorf("R2_PUBLIC_URL must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})

	return &r2Service{cfg: cfg, client: client}, nil
}

func (r *r2Service) Upload(ctx context.Context, media *Media) (*models.MediaAsset, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	key := fmt.Sprintf("%s.%s", id, media.Kind.Extension)
	if media.Folder != "" {
		key = fmt.Sprintf("%s/%s", media.Folder, key)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(media.Data),
		ContentType: aws.String(media.Kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("r2 upload: %w", err)
	}

	return &models.MediaAsset{
		Host:         config.MediaHostR2,
		PublicID:     key,
		SecureURL:    fmt.Sprintf("%s/%s", r.cfg.PublicURL, key),
		ResourceType: media.Type,
		Format:       media.Kind.Extension,
		MIMEType:     media.Kind.MIME.Value,
		Bytes:        len(media.Data),
		UploadedAt:   now(),
	}, nil
}
