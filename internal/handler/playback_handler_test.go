package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcstream/vgate-api/internal/dto"
	"github.com/arcstream/vgate-api/internal/middleware"
	"github.com/arcstream/vgate-api/internal/models"
	appErrors "github.com/arcstream/vgate-api/pkg/errors"
	"github.com/arcstream/vgate-api/pkg/response"
)

type playbackServiceMock struct {
	resp       *dto.PlaybackResponse
	err        error
	lastViewer models.Viewer
}

func (m *playbackServiceMock) Playback(ctx context.Context, videoID string, viewer models.Viewer) (*dto.PlaybackResponse, error) {
	m.lastViewer = viewer
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type redemptionServiceMock struct {
	level     models.AccessLevel
	err       error
	lastScope models.GrantScope
	lastCode  string
}

func (m *redemptionServiceMock) Redeem(ctx context.Context, scope models.GrantScope, scopeID, code string, viewer models.Viewer) (models.AccessLevel, error) {
	m.lastScope = scope
	m.lastCode = code
	if m.err != nil {
		return "", m.err
	}
	return m.level, nil
}

func newPlaybackTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestPlaybackHandlerGetPlayback(t *testing.T) {
	playback := &playbackServiceMock{resp: &dto.PlaybackResponse{
		VideoID:     "v1",
		AccessLevel: string(models.AccessFullVideo),
		Playable:    true,
		PlaybackURL: "https://cdn.test/asset-full/playlist.m3u8",
	}}
	handler := NewPlaybackHandler(playback, &redemptionServiceMock{}, nil)

	c, w := newPlaybackTestContext(t, http.MethodGet, "/videos/v1/playback", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	c.Set(middleware.ContextViewerKey, models.AnonymousViewer("session-1"))

	handler.GetPlayback(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", playback.lastViewer.SessionToken)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "full_video", data["access_level"])
	assert.Equal(t, true, data["playable"])
}

func TestPlaybackHandlerGetPlaybackNotFound(t *testing.T) {
	playback := &playbackServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "video not found")}
	handler := NewPlaybackHandler(playback, &redemptionServiceMock{}, nil)

	c, w := newPlaybackTestContext(t, http.MethodGet, "/videos/missing/playback", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetPlayback(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaybackHandlerUnlockVideo(t *testing.T) {
	access := &redemptionServiceMock{level: models.AccessFullVideo}
	handler := NewPlaybackHandler(&playbackServiceMock{}, access, nil)

	body, _ := json.Marshal(dto.UnlockRequest{Code: "vip-access"})
	c, w := newPlaybackTestContext(t, http.MethodPost, "/videos/v1/unlock", body)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	c.Set(middleware.ContextViewerKey, models.RegisteredViewer("user-a"))

	handler.UnlockVideo(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeVideo, access.lastScope)
	assert.Equal(t, "vip-access", access.lastCode)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "full_video", data["access_level"])
}

func TestPlaybackHandlerUnlockCategory(t *testing.T) {
	access := &redemptionServiceMock{level: models.AccessCategoryUnlocked}
	handler := NewPlaybackHandler(&playbackServiceMock{}, access, nil)

	body, _ := json.Marshal(dto.UnlockRequest{Code: "CAT-CODE"})
	c, w := newPlaybackTestContext(t, http.MethodPost, "/categories/c1/unlock", body)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Set(middleware.ContextViewerKey, models.AnonymousViewer("session-1"))

	handler.UnlockCategory(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeCategory, access.lastScope)
}

func TestPlaybackHandlerUnlockInvalidBody(t *testing.T) {
	handler := NewPlaybackHandler(&playbackServiceMock{}, &redemptionServiceMock{}, nil)

	c, w := newPlaybackTestContext(t, http.MethodPost, "/videos/v1/unlock", []byte(`invalid`))
	c.Params = gin.Params{{Key: "id", Value: "v1"}}

	handler.UnlockVideo(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaybackHandlerUnlockRejected(t *testing.T) {
	access := &redemptionServiceMock{err: appErrors.ErrCodeRejected}
	handler := NewPlaybackHandler(&playbackServiceMock{}, access, nil)

	body, _ := json.Marshal(dto.UnlockRequest{Code: "WRONG-CODE"})
	c, w := newPlaybackTestContext(t, http.MethodPost, "/videos/v1/unlock", body)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	c.Set(middleware.ContextViewerKey, models.AnonymousViewer("session-1"))

	handler.UnlockVideo(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrCodeRejected.Code, envelope.Error.Code)
}

func TestPlaybackHandlerUnlockOracleUnavailable(t *testing.T) {
	access := &redemptionServiceMock{err: appErrors.ErrOracleUnavailable}
	handler := NewPlaybackHandler(&playbackServiceMock{}, access, nil)

	body, _ := json.Marshal(dto.UnlockRequest{Code: "VIP-ACCESS"})
	c, w := newPlaybackTestContext(t, http.MethodPost, "/videos/v1/unlock", body)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	c.Set(middleware.ContextViewerKey, models.AnonymousViewer("session-1"))

	handler.UnlockVideo(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
