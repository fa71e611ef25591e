// Package handler はvideoフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	authentity "video_backend/internal/feature/auth/domain/entity"
	"video_backend/internal/feature/video/domain/entity"
	"video_backend/internal/feature/video/transport/http/dto"
	"video_backend/internal/feature/video/usecase"
	"video_backend/internal/platform/http/response"
	jwtmw "video_backend/internal/platform/jwt"
	"video_backend/internal/platform/storage"
)

// VideoUsecase は動画カタログのユースケースを定義します。
type VideoUsecase interface {
	Upload(ctx context.Context, uploader *authentity.User, in usecase.UploadInput) (*entity.Video, error)
	ListPublic(ctx context.Context) ([]entity.Video, error)
	Search(ctx context.Context, query string) ([]entity.Video, error)
	Get(ctx context.Context, id, viewerID uint) (*entity.Video, error)
	ListMine(ctx context.Context, userID uint) ([]entity.Video, error)
	Update(ctx context.Context, userID, id uint, in usecase.UpdateInput) (*entity.Video, error)
	Delete(ctx context.Context, userID, id uint) error
	Download(ctx context.Context, id, viewerID uint) (*entity.Video, *storage.Object, error)
	Thumbnail(ctx context.Context, id, viewerID uint) (*storage.Object, error)
}

// VideoHandler は動画のアップロード・閲覧・配信を処理します。
type VideoHandler struct {
	videos VideoUsecase
}

// NewVideoHandler はVideoHandlerの新しいインスタンスを生成します。
func NewVideoHandler(videos VideoUsecase) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// Upload はmultipartで送られた動画とサムネイルを保存します（要認証）。
func (h *VideoHandler) Upload(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	videoFile, closeVideo, err := formFile(c, "video")
	if err != nil || videoFile == nil {
		response.Failure(c, http.StatusBadRequest, "video file is required")
		return
	}
	defer closeVideo()

	thumbnail, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		response.Failure(c, http.StatusBadRequest, "invalid thumbnail file")
		return
	}
	defer closeThumb()

	isPrivate, err := parseBool(c.PostForm("isPrivate"))
	if err != nil {
		response.Failure(c, http.StatusBadRequest, "isPrivate must be a boolean")
		return
	}

	v, err := h.videos.Upload(c.Request.Context(), user, usecase.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		IsPrivate:   isPrivate,
		Video:       videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Video uploaded successfully", dto.NewVideoRes(v))
}

// ListPublic は公開動画を新しい順に返します。
func (h *VideoHandler) ListPublic(c *gin.Context) {
	videos, err := h.videos.ListPublic(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Videos fetched successfully", dto.NewVideoListRes(videos))
}

// Search はクエリパラメータqで公開動画を検索します。
func (h *VideoHandler) Search(c *gin.Context) {
	videos, err := h.videos.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Videos fetched successfully", dto.NewVideoListRes(videos))
}

// Get は動画1件を返します。非公開動画は投稿者のみ取得できます。
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	v, err := h.videos.Get(c.Request.Context(), id, viewerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Video fetched successfully", dto.NewVideoRes(v))
}

// ListMine はログイン中のユーザーの動画を返します（要認証）。
func (h *VideoHandler) ListMine(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	videos, err := h.videos.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Videos fetched successfully", dto.NewVideoListRes(videos))
}

// Update は動画情報を部分更新します（要認証・投稿者のみ）。
// 送信されなかったフォーム項目は変更しません。
func (h *VideoHandler) Update(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}

	var in usecase.UpdateInput
	if title, ok := c.GetPostForm("title"); ok {
		in.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		in.Description = &description
	}
	if raw, ok := c.GetPostForm("isPrivate"); ok {
		isPrivate, err := parseBool(raw)
		if err != nil {
			response.Failure(c, http.StatusBadRequest, "isPrivate must be a boolean")
			return
		}
		in.IsPrivate = &isPrivate
	}

	var closeVideo, closeThumb func()
	var err error
	if in.Video, closeVideo, err = formFile(c, "video"); err != nil {
		response.Failure(c, http.StatusBadRequest, "invalid video file")
		return
	}
	defer closeVideo()
	if in.Thumbnail, closeThumb, err = formFile(c, "thumbnail"); err != nil {
		response.Failure(c, http.StatusBadRequest, "invalid thumbnail file")
		return
	}
	defer closeThumb()

	v, err := h.videos.Update(c.Request.Context(), user.ID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Video updated successfully", dto.NewVideoRes(v))
}

// Delete は動画を削除します（要認証・投稿者のみ）。
func (h *VideoHandler) Delete(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), user.ID, id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Video deleted successfully", nil)
}

// Download は動画本体を添付ファイルとしてストリーミングします。
// 有効なトークンがあればダウンロード回数を記録します（任意認証）。
func (h *VideoHandler) Download(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	v, obj, err := h.videos.Download(c.Request.Context(), id, viewerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	defer obj.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": v.Title + path.Ext(v.VideoKey),
	})
	c.DataFromReader(http.StatusOK, contentLength(obj), obj.ContentType, obj.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Thumbnail はサムネイル画像をストリーミングします。
func (h *VideoHandler) Thumbnail(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	obj, err := h.videos.Thumbnail(c.Request.Context(), id, viewerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, contentLength(obj), obj.ContentType, obj.Body, nil)
}

// formFile はフォームのファイルを開きます。フィールドがない場合はnilを返します。
// 返されたclose関数は常に呼び出して構いません。
func formFile(c *gin.Context, field string) (*usecase.FileInput, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &usecase.FileInput{
		Filename:    fh.Filename,
		ContentType: headerContentType(fh),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func headerContentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func videoID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Failure(c, http.StatusBadRequest, "Invalid video id")
		return 0, false
	}
	return uint(id), true
}

// viewerID は任意認証で設定されたユーザーのIDを返します。匿名の場合は0です。
func viewerID(c *gin.Context) uint {
	if user, ok := jwtmw.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

func contentLength(obj *storage.Object) int64 {
	if obj.ContentLength <= 0 {
		return -1
	}
	return obj.ContentLength
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		response.Failure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrVideoNotFound):
		response.Failure(c, http.StatusNotFound, "Video not found")
	case errors.Is(err, usecase.ErrForbidden):
		response.Failure(c, http.StatusForbidden, "You are not allowed to modify this video")
	default:
		slog.Error("video request failed", "error", err, "path", c.FullPath())
		response.Failure(c, http.StatusInternalServerError, response.InternalErrorMessage)
	}
}
