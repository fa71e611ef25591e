// Package dto はvideoフィーチャーのレスポンスを定義します。
package dto

import (
	"time"

	"video_backend/internal/feature/video/domain/entity"
)

// UploaderView は動画に埋め込む投稿者情報です。
// 一覧では投稿者の一部の列しか読み込まないため、カウンタや日時は含めません。
type UploaderView struct {
	ID    uint   `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VideoView は動画1件のレスポンス表現です。
type VideoView struct {
	ID           uint          `json:"_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	UploaderID   uint          `json:"uploaderId"`
	Uploader     *UploaderView `json:"uploadedBy,omitempty"`
	Key          string        `json:"key"`
	ContentType  string        `json:"contentType"`
	ThumbnailKey string        `json:"thumbnailKey,omitempty"`
	IsPrivate    bool          `json:"isPrivate"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// NewVideoView はentity.Videoをレスポンス表現に変換します。
func NewVideoView(v *entity.Video) VideoView {
	view := VideoView{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		UploaderID:   v.UploaderID,
		Key:          v.VideoKey,
		ContentType:  v.ContentType,
		ThumbnailKey: v.ThumbnailKey,
		IsPrivate:    v.IsPrivate,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.Uploader != nil {
		view.Uploader = &UploaderView{ID: v.Uploader.ID, Email: v.Uploader.Email, Name: v.Uploader.Name}
	}
	return view
}

// VideoRes は動画1件を返すエンドポイントのdataです。
type VideoRes struct {
	Video VideoView `json:"video"`
}

// NewVideoRes はVideoResを生成します。
func NewVideoRes(v *entity.Video) VideoRes {
	return VideoRes{Video: NewVideoView(v)}
}

// VideoListRes は動画一覧を返すエンドポイントのdataです。videosは空でも配列で返します。
type VideoListRes struct {
	Videos []VideoView `json:"videos"`
}

// NewVideoListRes は一覧をレスポンス表現に変換します。
func NewVideoListRes(videos []entity.Video) VideoListRes {
	views := make([]VideoView, 0, len(videos))
	for i := range videos {
		views = append(views, NewVideoView(&videos[i]))
	}
	return VideoListRes{Videos: views}
}
