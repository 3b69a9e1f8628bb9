package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcstream/vgate-api/internal/models"
)

const testJWTSecret = "viewer-test-secret"

func signViewerToken(t *testing.T, secret, userID string) string {
	t.Helper()
	claims := models.ViewerClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runViewerMiddleware(t *testing.T, configure func(req *http.Request)) (models.Viewer, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var viewer models.Viewer
	r := gin.New()
	r.Use(Viewer(testJWTSecret, time.Hour))
	r.GET("/probe", func(c *gin.Context) {
		viewer = ViewerFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/probe", nil)
	require.NoError(t, err)
	if configure != nil {
		configure(req)
	}
	r.ServeHTTP(w, req)
	return viewer, w
}

func TestViewerMiddlewareRegistered(t *testing.T) {
	token := signViewerToken(t, testJWTSecret, "user-a")
	viewer, _ := runViewerMiddleware(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	assert.True(t, viewer.Registered())
	assert.Equal(t, "user-a", viewer.UserID)
	assert.Empty(t, viewer.SessionToken)
}

func TestViewerMiddlewareInvalidTokenFallsBackToAnonymous(t *testing.T) {
	token := signViewerToken(t, "wrong-secret", "user-a")
	viewer, _ := runViewerMiddleware(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	assert.False(t, viewer.Registered())
	assert.NotEmpty(t, viewer.SessionToken, "a bad token downgrades to anonymous, it does not reject")
}

func TestViewerMiddlewareSessionHeader(t *testing.T) {
	viewer, _ := runViewerMiddleware(t, func(req *http.Request) {
		req.Header.Set(SessionHeader, "session-from-header")
	})

	assert.Equal(t, "session-from-header", viewer.SessionToken)
}

func TestViewerMiddlewareSessionCookie(t *testing.T) {
	viewer, _ := runViewerMiddleware(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-from-cookie"})
	})

	assert.Equal(t, "session-from-cookie", viewer.SessionToken)
}

func TestViewerMiddlewareHeaderWinsOverCookie(t *testing.T) {
	viewer, _ := runViewerMiddleware(t, func(req *http.Request) {
		req.Header.Set(SessionHeader, "from-header")
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	})

	assert.Equal(t, "from-header", viewer.SessionToken)
}

func TestViewerMiddlewareMintsSession(t *testing.T) {
	viewer, w := runViewerMiddleware(t, nil)

	require.NotEmpty(t, viewer.SessionToken)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, viewer.SessionToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestViewerFromContextWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	viewer := ViewerFromContext(c)
	assert.True(t, viewer.Empty())
}
