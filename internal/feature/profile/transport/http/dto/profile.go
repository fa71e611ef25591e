// Package dto はprofileフィーチャーのリクエスト/レスポンスを定義します。
package dto

import "video_backend/internal/feature/auth/domain/entity"

// UpdateProfileReq は/user/updateのリクエストボディです。
type UpdateProfileReq struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ProfileRes は/user/profileのdataです。
type ProfileRes struct {
	User *entity.User `json:"user"`
}

// UpdateProfileRes は/user/updateのdataです。
type UpdateProfileRes struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
