package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arcstream/vgate-api/internal/models"
)

// CodeCacheRepository tracks which codes a viewer has successfully
// redeemed. Registered viewers keep their set indefinitely; anonymous
// sessions expire after the configured TTL, refreshed on every write.
//
// Unlike a read-through cache this is a primary store for anonymous
// viewers, so an unreachable Redis is an error, never an empty set.
type CodeCacheRepository struct {
	client  *redis.Client
	anonTTL time.Duration
	logger  *zap.Logger
}

// NewCodeCacheRepository constructs the repository.
func NewCodeCacheRepository(client *redis.Client, anonTTL time.Duration, logger *zap.Logger) *CodeCacheRepository {
	if anonTTL <= 0 {
		anonTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeCacheRepository{client: client, anonTTL: anonTTL, logger: logger}
}

// Get returns the viewer's redeemed codes. An unknown viewer has an empty
// set; a viewer with no identity at all holds nothing.
func (r *CodeCacheRepository) Get(ctx context.Context, viewer models.Viewer) ([]string, error) {
	if viewer.Empty() {
		return nil, nil
	}
	if r.client == nil {
		return nil, fmt.Errorf("code cache not configured")
	}

	codes, err := r.client.SMembers(ctx, r.key(viewer)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", r.key(viewer), err)
	}
	return codes, nil
}

// Add records a redeemed code for the viewer. The code is expected to be
// normalized by the caller.
func (r *CodeCacheRepository) Add(ctx context.Context, viewer models.Viewer, code string) error {
	if viewer.Empty() {
		return fmt.Errorf("viewer identity required")
	}
	if r.client == nil {
		return fmt.Errorf("code cache not configured")
	}

	key := r.key(viewer)
	if err := r.client.SAdd(ctx, key, code).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", key, err)
	}

	if !viewer.Registered() {
		if err := r.client.Expire(ctx, key, r.anonTTL).Err(); err != nil {
			return fmt.Errorf("redis expire %s: %w", key, err)
		}
	}

	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CodeCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *CodeCacheRepository) key(viewer models.Viewer) string {
	if viewer.Registered() {
		return "vgate:codes:user:" + viewer.UserID
	}
	return "vgate:codes:session:" + viewer.SessionToken
}
