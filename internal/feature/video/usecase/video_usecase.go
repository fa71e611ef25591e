// Package usecase はvideoフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	authentity "video_backend/internal/feature/auth/domain/entity"
	"video_backend/internal/feature/video/domain/entity"
	"video_backend/internal/platform/storage"
)

var (
	// ErrValidation is returned when required input is missing.
	ErrValidation = errors.New("invalid input")
	// ErrVideoNotFound is returned for unknown ids and for private videos the caller may not see.
	ErrVideoNotFound = errors.New("video not found")
	// ErrForbidden is returned when a non-owner tries to modify a video.
	ErrForbidden = errors.New("not the owner of this video")
	// ErrInternal wraps store and object storage failures.
	ErrInternal = errors.New("internal error")
)

func internalError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

// VideoRepository は動画メタデータの永続化層を抽象化します。
type VideoRepository interface {
	Create(ctx context.Context, v *entity.Video) error
	// FindByID は存在しない場合ErrVideoNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.Video, error)
	// ListPublic は公開動画を新しい順に返します。
	ListPublic(ctx context.Context) ([]entity.Video, error)
	ListByUploader(ctx context.Context, uploaderID uint) ([]entity.Video, error)
	Update(ctx context.Context, v *entity.Video) error
	Delete(ctx context.Context, v *entity.Video) error
}

// ObjectStorage は動画本体とサムネイルの保存先です。
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get は存在しない場合storage.ErrObjectNotFoundを返します。
	Get(ctx context.Context, key string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// UsageCounter はユーザーごとのアップロード・ダウンロード回数を更新します。
type UsageCounter interface {
	IncrementUploadCount(ctx context.Context, userID uint) error
	IncrementDownloadCount(ctx context.Context, userID uint) error
}

// FileInput はアップロードされた1ファイルです。Sizeが不明な場合は-1を指定します。
type FileInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadInput は新規アップロードの入力です。Videoは必須です。
type UploadInput struct {
	Title       string
	Description string
	IsPrivate   bool
	Video       *FileInput
	Thumbnail   *FileInput
}

// UpdateInput は部分更新の入力です。nilのフィールドは変更しません。
type UpdateInput struct {
	Title       *string
	Description *string
	IsPrivate   *bool
	Video       *FileInput
	Thumbnail   *FileInput
}

type videoUsecase struct {
	videos   VideoRepository
	objects  ObjectStorage
	counters UsageCounter
	prefix   string
	newID    func() string
}

// NewVideoUsecase はvideoUsecaseの新しいインスタンスを生成します。
// prefixはオブジェクトキーの先頭に付くフォルダ名です。
func NewVideoUsecase(videos VideoRepository, objects ObjectStorage, counters UsageCounter, prefix string) *videoUsecase {
	if prefix == "" {
		prefix = storage.DefaultPrefix
	}
	return &videoUsecase{
		videos:   videos,
		objects:  objects,
		counters: counters,
		prefix:   prefix,
		newID:    uuid.NewString,
	}
}

// Upload は動画（と任意のサムネイル）を保存し、メタデータを登録します。
// タイトルが空の場合は動画ファイル名から拡張子を除いたものを使います。
func (u *videoUsecase) Upload(ctx context.Context, uploader *authentity.User, in UploadInput) (*entity.Video, error) {
	if uploader == nil || in.Video == nil || in.Video.Body == nil {
		return nil, fmt.Errorf("%w: video file is required", ErrValidation)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = baseName(in.Video.Filename)
	}

	v := &entity.Video{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		UploaderID:  uploader.ID,
		IsPrivate:   in.IsPrivate,
	}

	var stored []string
	var err error
	v.VideoKey, v.ContentType, err = u.putFile(ctx, in.Video, "video")
	if err != nil {
		return nil, err
	}
	stored = append(stored, v.VideoKey)

	if in.Thumbnail != nil {
		v.ThumbnailKey, v.ThumbnailContentType, err = u.putFile(ctx, in.Thumbnail, "thumbnail")
		if err != nil {
			u.removeObjects(ctx, stored...)
			return nil, err
		}
		stored = append(stored, v.ThumbnailKey)
	}

	if err := u.videos.Create(ctx, v); err != nil {
		u.removeObjects(ctx, stored...)
		return nil, internalError("create video", err)
	}

	if err := u.counters.IncrementUploadCount(ctx, uploader.ID); err != nil {
		slog.Error("failed to increment upload count", "error", err, "user_id", uploader.ID)
	}

	v.Uploader = uploader
	slog.Info("video uploaded", "video_id", v.ID, "user_id", uploader.ID, "key", v.VideoKey)
	return v, nil
}

// ListPublic は公開動画を新しい順に返します。
func (u *videoUsecase) ListPublic(ctx context.Context) ([]entity.Video, error) {
	videos, err := u.videos.ListPublic(ctx)
	if err != nil {
		return nil, internalError("list public videos", err)
	}
	return videos, nil
}

// Search はタイトルまたは説明に部分一致（大文字小文字を区別しない）する公開動画を返します。
// 公開動画を順に走査するだけで、索引は使いません。
func (u *videoUsecase) Search(ctx context.Context, query string) ([]entity.Video, error) {
	videos, err := u.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return videos, nil
	}

	matched := make([]entity.Video, 0, len(videos))
	for _, v := range videos {
		if strings.Contains(strings.ToLower(v.Title), q) || strings.Contains(strings.ToLower(v.Description), q) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// Get は動画を1件返します。非公開動画は投稿者以外には存在しないものとして扱います。
func (u *videoUsecase) Get(ctx context.Context, id, viewerID uint) (*entity.Video, error) {
	v, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.VisibleTo(viewerID) {
		return nil, ErrVideoNotFound
	}
	return v, nil
}

// ListMine はユーザー自身の動画を公開・非公開を問わず返します。
func (u *videoUsecase) ListMine(ctx context.Context, userID uint) ([]entity.Video, error) {
	videos, err := u.videos.ListByUploader(ctx, userID)
	if err != nil {
		return nil, internalError("list videos by uploader", err)
	}
	return videos, nil
}

// Update は投稿者本人のみが実行できます。ファイルが差し替えられた場合、
// 更新が成功した後に古いオブジェクトを削除します。
func (u *videoUsecase) Update(ctx context.Context, userID, id uint, in UpdateInput) (*entity.Video, error) {
	v, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.OwnedBy(userID) {
		return nil, ErrForbidden
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		v.Title = title
	}
	if in.Description != nil {
		v.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsPrivate != nil {
		v.IsPrivate = *in.IsPrivate
	}

	var stored, replaced []string
	if in.Video != nil {
		key, contentType, err := u.putFile(ctx, in.Video, "video")
		if err != nil {
			return nil, err
		}
		stored = append(stored, key)
		replaced = append(replaced, v.VideoKey)
		v.VideoKey, v.ContentType = key, contentType
	}
	if in.Thumbnail != nil {
		key, contentType, err := u.putFile(ctx, in.Thumbnail, "thumbnail")
		if err != nil {
			u.removeObjects(ctx, stored...)
			return nil, err
		}
		stored = append(stored, key)
		if v.ThumbnailKey != "" {
			replaced = append(replaced, v.ThumbnailKey)
		}
		v.ThumbnailKey, v.ThumbnailContentType = key, contentType
	}

	if err := u.videos.Update(ctx, v); err != nil {
		u.removeObjects(ctx, stored...)
		return nil, internalError("update video", err)
	}
	u.removeObjects(ctx, replaced...)
	return v, nil
}

// Delete は投稿者本人のみが実行できます。メタデータを削除した後、
// オブジェクトの削除はベストエフォートで行います。
func (u *videoUsecase) Delete(ctx context.Context, userID, id uint) error {
	v, err := u.find(ctx, id)
	if err != nil {
		return err
	}
	if !v.OwnedBy(userID) {
		return ErrForbidden
	}
	if err := u.videos.Delete(ctx, v); err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return err
		}
		return internalError("delete video", err)
	}
	u.removeObjects(ctx, v.VideoKey, v.ThumbnailKey)
	slog.Info("video deleted", "video_id", v.ID, "user_id", userID)
	return nil
}

// Download は動画本体を返します。viewerIDが0でなければその利用者のダウンロード回数を増やします。
// 呼び出し元はObject.Bodyを閉じる必要があります。
func (u *videoUsecase) Download(ctx context.Context, id, viewerID uint) (*entity.Video, *storage.Object, error) {
	v, err := u.Get(ctx, id, viewerID)
	if err != nil {
		return nil, nil, err
	}
	obj, err := u.getObject(ctx, v.VideoKey)
	if err != nil {
		return nil, nil, err
	}
	if obj.ContentType == "" {
		obj.ContentType = v.ContentType
	}

	if viewerID != 0 {
		if err := u.counters.IncrementDownloadCount(ctx, viewerID); err != nil {
			slog.Error("failed to increment download count", "error", err, "user_id", viewerID)
		}
	}
	return v, obj, nil
}

// Thumbnail はサムネイル画像を返します。サムネイルがない場合はErrVideoNotFoundです。
func (u *videoUsecase) Thumbnail(ctx context.Context, id, viewerID uint) (*storage.Object, error) {
	v, err := u.Get(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if v.ThumbnailKey == "" {
		return nil, ErrVideoNotFound
	}
	obj, err := u.getObject(ctx, v.ThumbnailKey)
	if err != nil {
		return nil, err
	}
	if obj.ContentType == "" {
		obj.ContentType = v.ThumbnailContentType
	}
	return obj, nil
}

func (u *videoUsecase) find(ctx context.Context, id uint) (*entity.Video, error) {
	if id == 0 {
		return nil, ErrVideoNotFound
	}
	v, err := u.videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			return nil, err
		}
		return nil, internalError("find video", err)
	}
	return v, nil
}

func (u *videoUsecase) getObject(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := u.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			slog.Warn("object missing for video", "key", key)
			return nil, ErrVideoNotFound
		}
		return nil, internalError("get object", err)
	}
	return obj, nil
}

// putFile はファイルを保存し、生成したキーとContent-Typeを返します。
func (u *videoUsecase) putFile(ctx context.Context, f *FileInput, field string) (string, string, error) {
	if f.Body == nil {
		return "", "", fmt.Errorf("%w: %s file is empty", ErrValidation, field)
	}
	key := u.objectKey(f.Filename, field)
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(f.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := u.objects.Put(ctx, key, f.Body, f.Size, contentType); err != nil {
		return "", "", internalError("put "+field, err)
	}
	return key, contentType, nil
}

// objectKey は <prefix>/<basename>-<uuid>-<field><ext> 形式のキーを返します。
func (u *videoUsecase) objectKey(filename, field string) string {
	ext := path.Ext(cleanFilename(filename))
	if ext == "." {
		ext = ""
	}
	return fmt.Sprintf("%s/%s-%s-%s%s", u.prefix, baseName(filename), u.newID(), field, ext)
}

func (u *videoUsecase) removeObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := u.objects.Delete(ctx, key); err != nil {
			slog.Warn("failed to remove object", "error", err, "key", key)
		}
	}
}

// cleanFilename はクライアントから送られたパス区切りを取り除きます。
func cleanFilename(filename string) string {
	return path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// baseName はファイル名から拡張子を除いた部分を返します。
func baseName(filename string) string {
	name := cleanFilename(filename)
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
