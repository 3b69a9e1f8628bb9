package models

import "strings"

// ProtectionLevel classifies how a video or category is gated.
type ProtectionLevel string

const (
	ProtectionFree              ProtectionLevel = "free"
	ProtectionCodeRequired      ProtectionLevel = "code_required"
	ProtectionCategoryInherited ProtectionLevel = "category_inherited"
)

// AccessLevel is the outcome of access resolution. It is computed per
// request and never persisted.
type AccessLevel string

const (
	AccessPreviewOnly      AccessLevel = "preview_only"
	AccessFullVideo        AccessLevel = "full_video"
	AccessCategoryUnlocked AccessLevel = "category_unlocked"
	AccessSiteWide         AccessLevel = "site_wide"
)

// GrantsFull reports whether the level entitles the viewer to the full
// asset rather than the preview.
func (l AccessLevel) GrantsFull() bool {
	switch l {
	case AccessFullVideo, AccessCategoryUnlocked, AccessSiteWide:
		return true
	default:
		return false
	}
}

// SiteProtection is the site-wide perimeter gate configuration.
type SiteProtection struct {
	Enabled       bool
	AcceptedCodes []string
}

// NormalizeCode canonicalizes a redemption code for storage and
// comparison. Codes are case-insensitive throughout.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
