package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/crosspost-api/internal/models"
)

const VideoFolder = "social_videos"

var (
	errInvalidBase64    = errors.New("invalid base64 data")
	errUnsupportedMedia = errors.New("unsupported media type")
)

var allowedMedia = map[string]map[string]struct{}{
	models.MediaTypeImage: {"jpg": {}, "png": {}, "gif": {}, "webp": {}},
	models.MediaTypeVideo: {"mp4": {}, "mov": {}, "m4v": {}, "webm": {}},
}

// MediaHost stores decoded media and returns a publicly reachable URL that
// the Graph API can fetch.
type MediaHost interface {
	Upload(ctx context.Context, media *Media) (*models.MediaAsset, error)
}

// Media is a decoded upload payload.
type Media struct {
	Data   []byte
	Type   string
	Kind   types.Type
	Folder string
}

// DecodeMedia decodes a base64 payload, optionally wrapped in a data URL,
// and checks that its content matches mediaType.
func DecodeMedia(payload, mediaType string) (*Media, error) {
	if i := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	payload = strings.TrimSpace(payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil || len(data) == 0 {
		slog.Info("failed to decode media payload", "media_type", mediaType)
		return nil, errInvalidBase64
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, errUnsupportedMedia
	}
	if _, ok := allowedMedia[mediaType][kind.Extension]; !ok {
		return nil, fmt.Errorf("%w: %s", errUnsupportedMedia, kind.Extension)
	}

	media := &Media{
		Data: data,
		Type: mediaType,
		Kind: kind,
	}
	if mediaType == models.MediaTypeVideo {
		media.Folder = VideoFolder
	}
	return media, nil
}
