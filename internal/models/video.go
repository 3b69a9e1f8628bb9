package models

import (
	"time"

	"github.com/lib/pq"
)

// Video is a catalog entry. Owned by the admin subsystem; read-only here.
type Video struct {
	ID              string          `db:"id" json:"id"`
	Title           string          `db:"title" json:"title"`
	ProtectionLevel ProtectionLevel `db:"protection_level" json:"protection_level"`
	AcceptedCodes   pq.StringArray  `db:"accepted_codes" json:"-"`
	FullAssetID     *string         `db:"full_asset_id" json:"-"`
	PreviewAssetID  *string         `db:"preview_asset_id" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`

	// Categories is populated by the repository in a deterministic order.
	Categories []Category `db:"-" json:"-"`
}

// Category groups videos and can carry its own code gate.
type Category struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	ProtectionLevel ProtectionLevel `db:"protection_level" json:"protection_level"`
	AcceptedCodes   pq.StringArray  `db:"accepted_codes" json:"-"`
}
