package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcstream/vgate-api/internal/models"
	appErrors "github.com/arcstream/vgate-api/pkg/errors"
)

type accessVideoReader interface {
	FindByID(ctx context.Context, id string) (*models.Video, error)
}

type accessCategoryReader interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type grantRepository interface {
	Insert(ctx context.Context, grant *models.AccessGrant) error
	ExistsUnexpired(ctx context.Context, scope models.GrantScope, scopeID string, viewer models.Viewer) (bool, error)
}

type codeCache interface {
	Get(ctx context.Context, viewer models.Viewer) ([]string, error)
	Add(ctx context.Context, viewer models.Viewer, code string) error
}

type codeValidator interface {
	Configured() bool
	Validate(ctx context.Context, code string) (bool, error)
}

// Codes are 3-50 characters of letters, digits and hyphens; matching is
// case-insensitive via normalization.
var codePattern = regexp.MustCompile(`^[A-Z0-9-]{3,50}$`)

// AccessService is the access resolution engine: it decides what a viewer
// may watch and handles code redemption. ResolveAccess is a pure read;
// Redeem is the only mutator.
type AccessService struct {
	videos     accessVideoReader
	categories accessCategoryReader
	grants     grantRepository
	codes      codeCache
	oracle     codeValidator
	site       models.SiteProtection
	logger     *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(
	videos accessVideoReader,
	categories accessCategoryReader,
	grants grantRepository,
	codes codeCache,
	oracle codeValidator,
	site models.SiteProtection,
	logger *zap.Logger,
) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		videos:     videos,
		categories: categories,
		grants:     grants,
		codes:      codes,
		oracle:     oracle,
		site:       site,
		logger:     logger,
	}
}

// ResolveAccess computes the viewer's access level for a video. Unknown
// videos fail closed to preview. The site-wide perimeter is evaluated
// before any video-specific gate: if it does not pass, nothing inside does.
func (s *AccessService) ResolveAccess(ctx context.Context, videoID string, viewer models.Viewer) (models.AccessLevel, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("access requested for unknown video", zap.String("video_id", videoID))
			return models.AccessPreviewOnly, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}

	// Site-wide protection with no configured codes is treated as an
	// open perimeter rather than a total lockout.
	if s.site.Enabled && len(s.site.AcceptedCodes) > 0 {
		granted, err := s.codeGranted(ctx, s.site.AcceptedCodes, viewer)
		if err != nil {
			return "", err
		}
		if !granted {
			return models.AccessPreviewOnly, nil
		}
	}

	switch video.ProtectionLevel {
	case models.ProtectionFree:
		return models.AccessFullVideo, nil

	case models.ProtectionCodeRequired:
		return s.resolveCodeRequired(ctx, video, viewer)

	case models.ProtectionCategoryInherited:
		return s.resolveCategoryInherited(ctx, video, viewer)

	default:
		s.logger.Warn("video has unknown protection level",
			zap.String("video_id", video.ID),
			zap.String("protection_level", string(video.ProtectionLevel)),
		)
		return models.AccessPreviewOnly, nil
	}
}

func (s *AccessService) resolveCodeRequired(ctx context.Context, video *models.Video, viewer models.Viewer) (models.AccessLevel, error) {
	// A code-required video with no accepted codes is misconfigured and
	// degrades to preview-only.
	if len(video.AcceptedCodes) == 0 {
		s.logger.Warn("code-required video has empty accepted-code set", zap.String("video_id", video.ID))
		return models.AccessPreviewOnly, nil
	}

	if viewer.Empty() {
		return models.AccessPreviewOnly, nil
	}

	// Grants are sticky: one successful redemption keeps the video open
	// on every later visit without re-entering the code.
	hasGrant, err := s.grants.ExistsUnexpired(ctx, models.ScopeVideo, video.ID, viewer)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check access grants")
	}
	if hasGrant {
		return models.AccessFullVideo, nil
	}

	granted, err := s.codeGranted(ctx, video.AcceptedCodes, viewer)
	if err != nil {
		return "", err
	}
	if granted {
		return models.AccessFullVideo, nil
	}

	return models.AccessPreviewOnly, nil
}

func (s *AccessService) resolveCategoryInherited(ctx context.Context, video *models.Video, viewer models.Viewer) (models.AccessLevel, error) {
	// Flagged permissive default: a category-protected video with no
	// categories resolves to full access so content is never orphaned.
	if len(video.Categories) == 0 {
		s.logger.Warn("category-protected video has no categories, resolving permissively",
			zap.String("video_id", video.ID),
		)
		return models.AccessFullVideo, nil
	}

	for _, category := range video.Categories {
		if category.ProtectionLevel == models.ProtectionFree {
			return models.AccessFullVideo, nil
		}
		if category.ProtectionLevel == models.ProtectionCodeRequired {
			granted, err := s.codeGranted(ctx, category.AcceptedCodes, viewer)
			if err != nil {
				return "", err
			}
			if granted {
				return models.AccessCategoryUnlocked, nil
			}
		}
	}

	return models.AccessPreviewOnly, nil
}

// codeGranted reports whether the viewer holds a redeemed code that
// intersects the accepted set and still validates against the oracle.
// Holding a code is not enough: codes can expire between redemption and
// use, so every hit is re-validated. An unconfigured or unreachable
// oracle denies — fail closed.
//
// This is deliberately an "any matching code you hold" policy: a code
// redeemed for a different scope that intersects the accepted set still
// grants access.
func (s *AccessService) codeGranted(ctx context.Context, acceptedCodes []string, viewer models.Viewer) (bool, error) {
	if len(acceptedCodes) == 0 || viewer.Empty() {
		return false, nil
	}
	if s.oracle == nil || !s.oracle.Configured() {
		s.logger.Warn("code oracle not configured, denying code-gated access")
		return false, nil
	}

	held, err := s.codes.Get(ctx, viewer)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load redeemed codes")
	}
	if len(held) == 0 {
		return false, nil
	}

	heldSet := make(map[string]struct{}, len(held))
	for _, code := range held {
		heldSet[models.NormalizeCode(code)] = struct{}{}
	}

	for _, accepted := range acceptedCodes {
		code := models.NormalizeCode(accepted)
		if _, ok := heldSet[code]; !ok {
			continue
		}

		valid, err := s.oracle.Validate(ctx, code)
		if err != nil {
			s.logger.Warn("code oracle unavailable, treating code as invalid",
				zap.String("code", code),
				zap.Error(err),
			)
			continue
		}
		if valid {
			return true, nil
		}
	}

	return false, nil
}

// Redeem validates a code against a scope and, on success, appends a
// grant, caches the code for the viewer and re-resolves access.
// All-or-nothing: any rejection happens before the first write.
func (s *AccessService) Redeem(ctx context.Context, scope models.GrantScope, scopeID, code string, viewer models.Viewer) (models.AccessLevel, error) {
	if viewer.Empty() {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "viewer identity required")
	}

	normalized := models.NormalizeCode(code)
	if !codePattern.MatchString(normalized) {
		s.logger.Info("redemption rejected: malformed code", zap.String("scope_id", scopeID))
		return "", appErrors.ErrCodeRejected
	}

	acceptedCodes, err := s.acceptedCodesForScope(ctx, scope, scopeID)
	if err != nil {
		return "", err
	}
	if !containsCode(acceptedCodes, normalized) {
		// Same viewer-facing answer as a malformed code so scope code
		// sets cannot be probed.
		s.logger.Info("redemption rejected: code not in scope's accepted set",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
		)
		return "", appErrors.ErrCodeRejected
	}

	if s.oracle == nil || !s.oracle.Configured() {
		return "", appErrors.Clone(appErrors.ErrOracleUnavailable, "")
	}
	valid, err := s.oracle.Validate(ctx, normalized)
	if err != nil {
		s.logger.Warn("code oracle unavailable during redemption", zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrOracleUnavailable.Code, appErrors.ErrOracleUnavailable.Status, appErrors.ErrOracleUnavailable.Message)
	}
	if !valid {
		s.logger.Info("redemption rejected: oracle reports code inactive or expired",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
		)
		return "", appErrors.ErrCodeRejected
	}

	grant := &models.AccessGrant{
		ID:        uuid.NewString(),
		Scope:     scope,
		ScopeID:   scopeID,
		Code:      normalized,
		GrantedAt: time.Now().UTC(),
	}
	if viewer.Registered() {
		grant.UserID = &viewer.UserID
	} else {
		grant.SessionToken = &viewer.SessionToken
	}

	if err := s.grants.Insert(ctx, grant); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record access grant")
	}
	if err := s.codes.Add(ctx, viewer, normalized); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cache redeemed code")
	}

	s.logger.Info("code redeemed",
		zap.String("scope", string(scope)),
		zap.String("scope_id", scopeID),
		zap.Bool("registered", viewer.Registered()),
	)

	if scope == models.ScopeVideo {
		return s.ResolveAccess(ctx, scopeID, viewer)
	}
	return models.AccessCategoryUnlocked, nil
}

func (s *AccessService) acceptedCodesForScope(ctx context.Context, scope models.GrantScope, scopeID string) ([]string, error) {
	switch scope {
	case models.ScopeVideo:
		video, err := s.videos.FindByID(ctx, scopeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
		}
		if video.ProtectionLevel != models.ProtectionCodeRequired {
			s.logger.Info("redemption rejected: video is not code protected", zap.String("video_id", scopeID))
			return nil, appErrors.ErrCodeRejected
		}
		return video.AcceptedCodes, nil

	case models.ScopeCategory:
		category, err := s.categories.FindByID(ctx, scopeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
		}
		return category.AcceptedCodes, nil

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported redemption scope")
	}
}

func containsCode(codes []string, normalized string) bool {
	for _, code := range codes {
		if models.NormalizeCode(code) == normalized {
			return true
		}
	}
	return false
}
