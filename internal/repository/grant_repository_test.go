package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcstream/vgate-api/internal/models"
)

func newGrantRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func strPtr(value string) *string {
	return &value
}

func TestGrantRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newGrantRepoMock(t)
	defer cleanup()

	repo := NewGrantRepository(db)
	mock.ExpectExec("INSERT INTO access_grants").
		WithArgs("g1", "video", "v1", nil, "session-1", "VIP-ACCESS", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grant := &models.AccessGrant{
		ID:           "g1",
		Scope:        models.ScopeVideo,
		ScopeID:      "v1",
		SessionToken: strPtr("session-1"),
		Code:         "VIP-ACCESS",
		GrantedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), grant))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantRepositoryExistsUnexpired(t *testing.T) {
	db, mock, cleanup := newGrantRepoMock(t)
	defer cleanup()

	repo := NewGrantRepository(db)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("video", "v1", "user-a").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsUnexpired(context.Background(), models.ScopeVideo, "v1", models.RegisteredViewer("user-a"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGrantRepositoryExistsUnexpiredKeysAnonymousBySession(t *testing.T) {
	db, mock, cleanup := newGrantRepoMock(t)
	defer cleanup()

	repo := NewGrantRepository(db)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("category", "c1", "session-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsUnexpired(context.Background(), models.ScopeCategory, "c1", models.AnonymousViewer("session-1"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGrantRepositoryExistsUnexpiredEmptyViewer(t *testing.T) {
	db, _, cleanup := newGrantRepoMock(t)
	defer cleanup()

	repo := NewGrantRepository(db)
	exists, err := repo.ExistsUnexpired(context.Background(), models.ScopeVideo, "v1", models.Viewer{})
	require.NoError(t, err)
	assert.False(t, exists, "a viewer without identity holds no grants")
}
