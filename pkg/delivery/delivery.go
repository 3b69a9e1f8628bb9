package delivery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/arcstream/vgate-api/pkg/config"
)

// clockSkew is subtracted from the issued-at claim so tokens validate on
// players whose clocks run slightly ahead of ours.
const clockSkew = 60 * time.Second

const defaultURLTTL = time.Hour

// Issuer mints time-limited playback URLs for the CDN.
//
// Two mutually exclusive token strategies exist: a signed claims token
// (preferred, enabled by a token secret) and the legacy hash token
// (enabled by a shared security key). With neither key configured the
// bare playback URL is returned.
type Issuer struct {
	hostname    string
	libraryID   string
	tokenSecret string
	securityKey string
	logger      *zap.Logger

	signingMethod jwt.SigningMethod
}

// NewIssuer constructs an Issuer from the delivery configuration.
func NewIssuer(cfg config.DeliveryConfig, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{
		hostname:      cfg.CDNHostname,
		libraryID:     cfg.LibraryID,
		tokenSecret:   cfg.TokenSecret,
		securityKey:   cfg.SecurityKey,
		logger:        logger,
		signingMethod: jwt.SigningMethodHS256,
	}
}

// Configured reports whether the CDN integration has the minimum
// configuration to produce playback URLs.
func (i *Issuer) Configured() bool {
	return i != nil && i.hostname != "" && i.libraryID != ""
}

// IssueURL returns a playback URL for the asset, valid for ttl. An empty
// result means "no playable source" and must be handled by the caller.
func (i *Issuer) IssueURL(assetHandle string, ttl time.Duration, isPreview bool) string {
	if !i.Configured() || assetHandle == "" {
		return ""
	}
	if ttl <= 0 {
		ttl = defaultURLTTL
	}

	playbackURL := i.playbackURL(assetHandle)
	expiresAt := time.Now().Add(ttl)

	if i.tokenSecret != "" {
		token, err := i.signClaims(assetHandle, expiresAt, isPreview)
		if err != nil {
			// Degraded but playable beats a broken page. This is a
			// security-relevant event and must stay visible in logs.
			i.logger.Warn("claims signing failed, serving unsigned playback URL",
				zap.String("asset", assetHandle),
				zap.Error(err),
			)
			return playbackURL
		}
		return fmt.Sprintf("%s?token=%s", playbackURL, token)
	}

	if i.securityKey != "" {
		token := i.legacyToken(assetHandle, expiresAt.Unix())
		return fmt.Sprintf("%s?token=%s&expires=%d", playbackURL, token, expiresAt.Unix())
	}

	return playbackURL
}

// IssueThumbnailURL returns the unsigned thumbnail URL for the asset.
// Thumbnails are treated as low-value and are never signed.
func (i *Issuer) IssueThumbnailURL(assetHandle string, width, height int) string {
	if !i.Configured() || assetHandle == "" {
		return ""
	}

	thumbURL := fmt.Sprintf("https://%s/%s/%s/thumbnail.jpg", i.hostname, i.libraryID, assetHandle)

	query := url.Values{}
	if width > 0 {
		query.Set("width", strconv.Itoa(width))
	}
	if height > 0 {
		query.Set("height", strconv.Itoa(height))
	}
	if len(query) > 0 {
		thumbURL += "?" + query.Encode()
	}

	return thumbURL
}

func (i *Issuer) playbackURL(assetHandle string) string {
	return fmt.Sprintf("https://%s/%s/%s/playlist.m3u8", i.hostname, i.libraryID, assetHandle)
}

func (i *Issuer) signClaims(assetHandle string, expiresAt time.Time, isPreview bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     assetHandle,
		"library": i.libraryID,
		"exp":     expiresAt.Unix(),
		"iat":     now.Add(-clockSkew).Unix(),
	}
	if isPreview {
		claims["preview"] = true
	}

	return jwt.NewWithClaims(i.signingMethod, claims).SignedString([]byte(i.tokenSecret))
}

// legacyToken computes the shared-key digest the CDN expects:
// sha256(libraryID || securityKey || expires || assetHandle) as hex.
func (i *Issuer) legacyToken(assetHandle string, expires int64) string {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s%s%d%s", i.libraryID, i.securityKey, expires, assetHandle)))
	return hex.EncodeToString(digest[:])
}
