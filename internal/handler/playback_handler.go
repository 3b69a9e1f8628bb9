package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcstream/vgate-api/internal/dto"
	"github.com/arcstream/vgate-api/internal/middleware"
	"github.com/arcstream/vgate-api/internal/models"
	"github.com/arcstream/vgate-api/internal/service"
	appErrors "github.com/arcstream/vgate-api/pkg/errors"
	"github.com/arcstream/vgate-api/pkg/response"
)

type playbackService interface {
	Playback(ctx context.Context, videoID string, viewer models.Viewer) (*dto.PlaybackResponse, error)
}

type redemptionService interface {
	Redeem(ctx context.Context, scope models.GrantScope, scopeID, code string, viewer models.Viewer) (models.AccessLevel, error)
}

// PlaybackHandler exposes the playback and redemption endpoints.
type PlaybackHandler struct {
	playback playbackService
	access   redemptionService
	metrics  *service.MetricsService
}

// NewPlaybackHandler builds a new handler.
func NewPlaybackHandler(playback playbackService, access redemptionService, metrics *service.MetricsService) *PlaybackHandler {
	return &PlaybackHandler{playback: playback, access: access, metrics: metrics}
}

// GetPlayback godoc
// @Summary Resolve access and return a playback URL
// @Tags Playback
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Router /videos/{id}/playback [get]
func (h *PlaybackHandler) GetPlayback(c *gin.Context) {
	viewer := middleware.ViewerFromContext(c)

	resp, err := h.playback.Playback(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAccessDecision(models.AccessLevel(resp.AccessLevel))
	}
	response.JSON(c, http.StatusOK, resp)
}

// UnlockVideo godoc
// @Summary Redeem a code against a video
// @Tags Playback
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body dto.UnlockRequest true "Redemption payload"
// @Success 200 {object} response.Envelope
// @Router /videos/{id}/unlock [post]
func (h *PlaybackHandler) UnlockVideo(c *gin.Context) {
	h.unlock(c, models.ScopeVideo)
}

// UnlockCategory godoc
// @Summary Redeem a code against a category
// @Tags Playback
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body dto.UnlockRequest true "Redemption payload"
// @Success 200 {object} response.Envelope
// @Router /categories/{id}/unlock [post]
func (h *PlaybackHandler) UnlockCategory(c *gin.Context) {
	h.unlock(c, models.ScopeCategory)
}

func (h *PlaybackHandler) unlock(c *gin.Context, scope models.GrantScope) {
	var req dto.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid redemption payload"))
		return
	}

	viewer := middleware.ViewerFromContext(c)
	level, err := h.access.Redeem(c.Request.Context(), scope, c.Param("id"), req.Code, viewer)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordRedemption(scope, "rejected")
			if appErrors.FromError(err).Code == appErrors.ErrOracleUnavailable.Code {
				h.metrics.RecordOracleFailure()
			}
		}
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRedemption(scope, "granted")
	}
	response.JSON(c, http.StatusOK, dto.UnlockResponse{AccessLevel: string(level)})
}
