// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"time"

	infrahttp "video_backend/internal/platform/http"
	"video_backend/internal/platform/storage"
)

// storageHTTPTimeout bounds a whole S3 request including the video body transfer.
const storageHTTPTimeout = 15 * time.Minute

// NewObjectStorage creates an S3Store configured from the environment with a
// dedicated HTTP client.
func NewObjectStorage(ctx context.Context) (*storage.S3Store, storage.Config, error) {
	cfg, err := storage.LoadConfigFromEnv()
	if err != nil {
		return nil, storage.Config{}, err
	}
	httpClient := infrahttp.NewHTTPClient(storageHTTPTimeout)
	store, err := storage.NewS3Store(ctx, cfg, httpClient)
	if err != nil {
		return nil, storage.Config{}, err
	}
	return store, cfg, nil
}
