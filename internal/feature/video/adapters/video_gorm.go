// Package adapters はvideoフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"video_backend/internal/feature/video/domain/entity"
	"video_backend/internal/feature/video/usecase"
)

// videoGorm はVideoRepositoryインターフェースのGORM実装です。
type videoGorm struct {
	db *gorm.DB
}

var _ usecase.VideoRepository = (*videoGorm)(nil)

// NewVideoGorm は指定されたgorm.DB接続でvideoGormの新しいインスタンスを生成します。
func NewVideoGorm(db *gorm.DB) *videoGorm {
	return &videoGorm{db: db}
}

// withUploader は投稿者のうち公開してよい列だけをプリロードします。
func (r *videoGorm) withUploader(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Uploader", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "email", "name")
	})
}

// Create は動画メタデータを追加します。関連するユーザーは書き込みません。
func (r *videoGorm) Create(ctx context.Context, v *entity.Video) error {
	if v == nil {
		return errors.New("video is nil")
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

// FindByID は動画を取得します。存在しない場合usecase.ErrVideoNotFoundを返します。
func (r *videoGorm) FindByID(ctx context.Context, id uint) (*entity.Video, error) {
	var v entity.Video
	if err := r.withUploader(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrVideoNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListPublic は公開動画を新しい順に返します。
func (r *videoGorm) ListPublic(ctx context.Context) ([]entity.Video, error) {
	var out []entity.Video
	err := r.withUploader(ctx).
		Where("is_private = ?", false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// ListByUploader はユーザーの動画を新しい順に返します。
func (r *videoGorm) ListByUploader(ctx context.Context, uploaderID uint) ([]entity.Video, error) {
	var out []entity.Video
	err := r.withUploader(ctx).
		Where("uploader_id = ?", uploaderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// Update は編集可能な列だけを書き戻します。ゼロ値（非公開解除など）も反映されます。
func (r *videoGorm) Update(ctx context.Context, v *entity.Video) error {
	result := r.db.WithContext(ctx).
		Model(v).
		Select("title", "description", "video_key", "content_type", "thumbnail_key", "thumbnail_content_type", "is_private").
		Updates(v)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrVideoNotFound
	}
	return nil
}

// Delete は動画メタデータを削除します。
func (r *videoGorm) Delete(ctx context.Context, v *entity.Video) error {
	result := r.db.WithContext(ctx).Delete(&entity.Video{}, v.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrVideoNotFound
	}
	return nil
}
