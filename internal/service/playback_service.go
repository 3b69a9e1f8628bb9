package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arcstream/vgate-api/internal/dto"
	"github.com/arcstream/vgate-api/internal/models"
	appErrors "github.com/arcstream/vgate-api/pkg/errors"
)

type accessResolver interface {
	ResolveAccess(ctx context.Context, videoID string, viewer models.Viewer) (models.AccessLevel, error)
}

type urlIssuer interface {
	Configured() bool
	IssueURL(assetHandle string, ttl time.Duration, isPreview bool) string
	IssueThumbnailURL(assetHandle string, width, height int) string
}

// PlaybackConfig tunes URL lifetimes.
type PlaybackConfig struct {
	URLTTL        time.Duration
	PreviewURLTTL time.Duration
}

// PlaybackService turns an access decision into something a player can
// consume: the access level plus a signed URL for whichever asset the
// viewer is entitled to.
type PlaybackService struct {
	videos accessVideoReader
	access accessResolver
	issuer urlIssuer
	config PlaybackConfig
	logger *zap.Logger
}

// NewPlaybackService constructs a PlaybackService.
func NewPlaybackService(videos accessVideoReader, access accessResolver, issuer urlIssuer, cfg PlaybackConfig, logger *zap.Logger) *PlaybackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = time.Hour
	}
	if cfg.PreviewURLTTL <= 0 {
		cfg.PreviewURLTTL = 15 * time.Minute
	}
	return &PlaybackService{videos: videos, access: access, issuer: issuer, config: cfg, logger: logger}
}

// Playback resolves access for the viewer and builds the playback
// response. A non-full access level only ever yields the preview asset.
// Missing delivery configuration or a missing asset handle yields an
// empty URL, not an error: "no playable source" must never break the page.
func (s *PlaybackService) Playback(ctx context.Context, videoID string, viewer models.Viewer) (*dto.PlaybackResponse, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}

	level, err := s.access.ResolveAccess(ctx, videoID, viewer)
	if err != nil {
		return nil, err
	}

	resp := &dto.PlaybackResponse{
		VideoID:     video.ID,
		Title:       video.Title,
		AccessLevel: string(level),
	}

	if handle := assetHandle(video.FullAssetID, video.PreviewAssetID); handle != "" {
		resp.ThumbnailURL = s.issuer.IssueThumbnailURL(handle, 0, 0)
	}

	if level.GrantsFull() {
		if video.FullAssetID != nil {
			resp.PlaybackURL = s.issuer.IssueURL(*video.FullAssetID, s.config.URLTTL, false)
		}
	} else if video.PreviewAssetID != nil {
		resp.PlaybackURL = s.issuer.IssueURL(*video.PreviewAssetID, s.config.PreviewURLTTL, true)
		resp.Preview = resp.PlaybackURL != ""
	}

	resp.Playable = resp.PlaybackURL != ""
	if !resp.Playable {
		s.logger.Debug("no playable source for video",
			zap.String("video_id", video.ID),
			zap.String("access_level", string(level)),
			zap.Bool("delivery_configured", s.issuer.Configured()),
		)
	}

	return resp, nil
}

func assetHandle(full, preview *string) string {
	if full != nil && *full != "" {
		return *full
	}
	if preview != nil {
		return *preview
	}
	return ""
}
