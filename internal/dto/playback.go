package dto

// UnlockRequest is the payload for video and category redemption.
type UnlockRequest struct {
	Code string `json:"code" binding:"required" validate:"required,min=3,max=50"`
}

// UnlockResponse carries the access level reached after a redemption.
type UnlockResponse struct {
	AccessLevel string `json:"access_level"`
}

// PlaybackResponse is what the playback consumer receives. An empty
// PlaybackURL means "no playable source"; Preview marks the URL as
// pointing at the preview asset rather than the full one.
type PlaybackResponse struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	AccessLevel  string `json:"access_level"`
	Playable     bool   `json:"playable"`
	Preview      bool   `json:"preview,omitempty"`
	PlaybackURL  string `json:"playback_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
