package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arcstream/vgate-api/internal/models"
)

// GrantRepository persists access grants. The table is append-only: grants
// are never updated or deleted by this service, and expiry is evaluated at
// read time. Duplicate grants from concurrent redemptions are tolerated.
type GrantRepository struct {
	db *sqlx.DB
}

// NewGrantRepository constructs the repository.
func NewGrantRepository(db *sqlx.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Insert appends a grant.
func (r *GrantRepository) Insert(ctx context.Context, grant *models.AccessGrant) error {
	const query = `INSERT INTO access_grants (id, scope, scope_id, user_id, session_token, code, granted_at, expires_at)
VALUES (:id, :scope, :scope_id, :user_id, :session_token, :code, :granted_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("insert access grant: %w", err)
	}
	return nil
}

// ExistsUnexpired reports whether the viewer holds a live grant for the
// scope. Grants are keyed by user ID for registered viewers and by session
// token otherwise; a viewer with neither holds nothing.
func (r *GrantRepository) ExistsUnexpired(ctx context.Context, scope models.GrantScope, scopeID string, viewer models.Viewer) (bool, error) {
	if viewer.Empty() {
		return false, nil
	}

	identityColumn := "session_token"
	identityValue := viewer.SessionToken
	if viewer.Registered() {
		identityColumn = "user_id"
		identityValue = viewer.UserID
	}

	query := fmt.Sprintf(`SELECT EXISTS (
SELECT 1 FROM access_grants
WHERE scope = $1 AND scope_id = $2 AND %s = $3
AND (expires_at IS NULL OR expires_at > NOW()))`, identityColumn)

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, scope, scopeID, identityValue); err != nil {
		return false, fmt.Errorf("check access grant: %w", err)
	}
	return exists, nil
}
