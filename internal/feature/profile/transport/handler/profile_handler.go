// Package handler はprofileフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"video_backend/internal/feature/auth/domain/entity"
	authusecase "video_backend/internal/feature/auth/usecase"
	"video_backend/internal/feature/profile/transport/http/dto"
	"video_backend/internal/platform/http/response"
	jwtmw "video_backend/internal/platform/jwt"
)

// ProfileUsecase はプロフィール操作のユースケースを定義します。
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uint) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint, name, email string) (*entity.User, error)
}

// ProfileHandler は認証済みユーザー自身のプロフィールを扱います。
// どちらのルートもAuthRequiredの後ろに登録される前提です。
type ProfileHandler struct {
	profiles ProfileUsecase
}

// NewProfileHandler はProfileHandlerの新しいインスタンスを生成します。
func NewProfileHandler(profiles ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetProfile はログイン中のユーザー情報を返します。パスワードと復旧トークンは含みません。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	current, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.profiles.GetProfile(c.Request.Context(), current.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User profile fetched successfully", dto.ProfileRes{User: user})
}

// UpdateProfile は表示名と任意でメールアドレスを更新します。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	current, ok := jwtmw.CurrentUser(c)
	if !ok {
		response.Failure(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("profile update validation failed", "error", err, "user_id", current.ID)
		response.Failure(c, http.StatusBadRequest, "name is required")
		return
	}
	user, err := h.profiles.UpdateProfile(c.Request.Context(), current.ID, req.Name, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("profile updated", "user_id", user.ID)
	response.Success(c, http.StatusOK, "Profile updated successfully", dto.UpdateProfileRes{Name: user.Name, Email: user.Email})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authusecase.ErrValidation):
		response.Failure(c, http.StatusBadRequest, "name is required")
	case errors.Is(err, authusecase.ErrEmailAlreadyExists):
		response.Failure(c, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, authusecase.ErrUserNotFound):
		response.Failure(c, http.StatusNotFound, "User not found")
	default:
		slog.Error("profile request failed", "error", err, "path", c.FullPath())
		response.Failure(c, http.StatusInternalServerError, response.InternalErrorMessage)
	}
}
