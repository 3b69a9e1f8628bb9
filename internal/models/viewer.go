package models

import "github.com/golang-jwt/jwt/v5"

// Viewer identifies who is asking for access. Exactly one of UserID or
// SessionToken is set per request; both empty means a fully anonymous
// request for which redemption-dependent paths resolve to no access.
type Viewer struct {
	UserID       string
	SessionToken string
}

// RegisteredViewer returns a durable registered-user identity.
func RegisteredViewer(userID string) Viewer {
	return Viewer{UserID: userID}
}

// AnonymousViewer returns a session-scoped identity.
func AnonymousViewer(sessionToken string) Viewer {
	return Viewer{SessionToken: sessionToken}
}

// Registered reports whether the viewer is a registered user.
func (v Viewer) Registered() bool {
	return v.UserID != ""
}

// Empty reports whether no identity is present at all.
func (v Viewer) Empty() bool {
	return v.UserID == "" && v.SessionToken == ""
}

// ViewerClaims is the JWT payload identifying a registered viewer.
type ViewerClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
