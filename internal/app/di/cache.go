package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	videoadapters "video_backend/internal/feature/video/adapters"
	videousecase "video_backend/internal/feature/video/usecase"
	"video_backend/internal/platform/cache"
)

// NewVideoRepository creates a VideoRepository implementation.
// If Redis is available, the GORM repository is wrapped with the catalog cache.
// Otherwise, it reads the database directly.
func NewVideoRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) videousecase.VideoRepository {
	repo := videoadapters.NewVideoGorm(db)
	if rdb != nil {
		return cache.NewCachingVideoRepository(rdb, ttl, repo, "videos")
	}
	return repo
}
