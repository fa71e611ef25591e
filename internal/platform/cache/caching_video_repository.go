// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"video_backend/internal/feature/video/domain/entity"
	"video_backend/internal/feature/video/usecase"
)

// CachingVideoRepository decorates a VideoRepository with Redis caching of
// the catalog listings. Single-video lookups always go to the database.
type CachingVideoRepository struct {
	inner     usecase.VideoRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.VideoRepository = (*CachingVideoRepository)(nil)

// NewCachingVideoRepository decorates a VideoRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "videos".
// A nil rdb disables caching.
func NewCachingVideoRepository(rdb *redis.Client, ttl time.Duration, inner usecase.VideoRepository, namespace string) *CachingVideoRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "videos"
	}
	return &CachingVideoRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create inserts a video and invalidates the listings it appears in.
func (c *CachingVideoRepository) Create(ctx context.Context, v *entity.Video) error {
	if err := c.inner.Create(ctx, v); err != nil {
		return err
	}
	c.invalidate(ctx, v.UploaderID)
	return nil
}

// FindByID is not cached: visibility and ownership checks need the current row.
func (c *CachingVideoRepository) FindByID(ctx context.Context, id uint) (*entity.Video, error) {
	return c.inner.FindByID(ctx, id)
}

// ListPublic returns public videos, checking the cache first.
func (c *CachingVideoRepository) ListPublic(ctx context.Context) ([]entity.Video, error) {
	return c.cached(ctx, c.publicKey(), func() ([]entity.Video, error) {
		return c.inner.ListPublic(ctx)
	})
}

// ListByUploader returns a user's videos, checking the cache first.
func (c *CachingVideoRepository) ListByUploader(ctx context.Context, uploaderID uint) ([]entity.Video, error) {
	return c.cached(ctx, c.uploaderKey(uploaderID), func() ([]entity.Video, error) {
		return c.inner.ListByUploader(ctx, uploaderID)
	})
}

// Update writes through and invalidates affected listings.
func (c *CachingVideoRepository) Update(ctx context.Context, v *entity.Video) error {
	if err := c.inner.Update(ctx, v); err != nil {
		return err
	}
	c.invalidate(ctx, v.UploaderID)
	return nil
}

// Delete removes the video and invalidates affected listings.
func (c *CachingVideoRepository) Delete(ctx context.Context, v *entity.Video) error {
	if err := c.inner.Delete(ctx, v); err != nil {
		return err
	}
	c.invalidate(ctx, v.UploaderID)
	return nil
}

// ProfileUpdated drops listings that embed the user's name and email.
func (c *CachingVideoRepository) ProfileUpdated(ctx context.Context, userID uint) {
	c.invalidate(ctx, userID)
}

func (c *CachingVideoRepository) cached(ctx context.Context, key string, load func() ([]entity.Video, error)) ([]entity.Video, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Video
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// invalidate drops the public listing and the uploader's listing.
// Failures are logged only; stale entries expire with the TTL.
func (c *CachingVideoRepository) invalidate(ctx context.Context, uploaderID uint) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.publicKey(), c.uploaderKey(uploaderID)).Err(); err != nil {
		slog.Warn("failed to invalidate video cache", "error", err, "uploader_id", uploaderID)
	}
}

func (c *CachingVideoRepository) publicKey() string {
	return c.namespace + ":public"
}

func (c *CachingVideoRepository) uploaderKey(uploaderID uint) string {
	return fmt.Sprintf("%s:uploader:%d", c.namespace, uploaderID)
}
