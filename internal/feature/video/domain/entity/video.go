// Package entity はvideoフィーチャーのドメインエンティティを定義します。
package entity

import (
	"time"

	authentity "video_backend/internal/feature/auth/domain/entity"
)

// Video はアップロードされた動画1件のメタデータです。
// 本体とサムネイルはオブジェクトストレージに置かれ、ここにはキーのみを保持します。
type Video struct {
	ID          uint   `gorm:"primaryKey" json:"_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	UploaderID uint             `gorm:"index;not null" json:"uploaderId"`
	Uploader   *authentity.User `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"uploadedBy,omitempty"`

	VideoKey             string `gorm:"size:512;not null" json:"key"`
	ContentType          string `gorm:"size:128" json:"contentType"`
	ThumbnailKey         string `gorm:"size:512" json:"thumbnailKey,omitempty"`
	ThumbnailContentType string `gorm:"size:128" json:"-"`

	IsPrivate bool `gorm:"index;not null;default:false" json:"isPrivate"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VisibleTo は指定ユーザーがこの動画を閲覧できるかを返します。viewerIDが0の場合は匿名です。
func (v *Video) VisibleTo(viewerID uint) bool {
	return !v.IsPrivate || (viewerID != 0 && v.UploaderID == viewerID)
}

// OwnedBy reports whether userID uploaded the video.
func (v *Video) OwnedBy(userID uint) bool {
	return userID != 0 && v.UploaderID == userID
}
