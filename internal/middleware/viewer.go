package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/arcstream/vgate-api/internal/models"
)

// ContextViewerKey is the gin context key storing the resolved viewer.
const ContextViewerKey = "currentViewer"

// SessionCookie carries the anonymous session token between requests.
const SessionCookie = "vgate_session"

// SessionHeader lets API clients pass the session token explicitly.
const SessionHeader = "X-Viewer-Session"

// Viewer resolves the viewer identity for every request. A valid bearer
// token yields a registered identity; anything else falls back to an
// anonymous session token from the header or cookie, minted on first
// contact. An invalid bearer token is ignored rather than rejected:
// access gating, not authentication, decides what the viewer sees.
func Viewer(jwtSecret string, sessionTTL time.Duration) gin.HandlerFunc {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		if userID := registeredUserID(c, jwtSecret); userID != "" {
			c.Set(ContextViewerKey, models.RegisteredViewer(userID))
			c.Next()
			return
		}

		token := c.GetHeader(SessionHeader)
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token == "" {
			token = uuid.NewString()
			c.SetCookie(SessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
		}

		c.Set(ContextViewerKey, models.AnonymousViewer(token))
		c.Next()
	}
}

// ViewerFromContext returns the viewer resolved by the middleware. The
// zero value means no middleware ran, which resolves as fully anonymous.
func ViewerFromContext(c *gin.Context) models.Viewer {
	if v, exists := c.Get(ContextViewerKey); exists {
		if viewer, ok := v.(models.Viewer); ok {
			return viewer
		}
	}
	return models.Viewer{}
}

func registeredUserID(c *gin.Context, jwtSecret string) string {
	if jwtSecret == "" {
		return ""
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	claims := &models.ViewerClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}
