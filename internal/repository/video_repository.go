package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arcstream/vgate-api/internal/models"
)

// VideoRepository reads the video catalog. The catalog is owned by the
// admin subsystem; this service never writes it.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs the repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// FindByID fetches a video with its categories. Categories are returned in
// position order so inherited-protection evaluation is deterministic.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	const query = `SELECT id, title, protection_level, accepted_codes, full_asset_id, preview_asset_id, created_at
FROM videos WHERE id = $1`
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}

	const categoriesQuery = `SELECT c.id, c.name, c.protection_level, c.accepted_codes
FROM categories c
JOIN video_categories vc ON vc.category_id = c.id
WHERE vc.video_id = $1
ORDER BY vc.position ASC, c.id ASC`
	if err := r.db.SelectContext(ctx, &video.Categories, categoriesQuery, id); err != nil {
		return nil, fmt.Errorf("load video categories: %w", err)
	}

	return &video, nil
}

// CategoryRepository reads the category catalog.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByID fetches a single category.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, name, protection_level, accepted_codes FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}
