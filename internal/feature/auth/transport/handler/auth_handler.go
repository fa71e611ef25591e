// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"video_backend/internal/feature/auth/transport/http/dto"
	"video_backend/internal/feature/auth/usecase"
	"video_backend/internal/platform/http/response"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は指定されたメールアドレスとパスワードで新規ユーザーを登録します。
	Signup(ctx context.Context, email, password string) error
	// Login はユーザーを認証し、成功時にBearerトークンを返します。
	Login(ctx context.Context, email, password string) (string, error)
	// RequestPasswordReset は現在の復旧トークンをユーザーへ送信します。
	RequestPasswordReset(ctx context.Context, email string) error
	// ChangePassword は復旧トークンを消費してパスワードを変更します。
	ChangePassword(ctx context.Context, recoveryToken, newPassword string) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

const invalidRequestMessage = "invalid request"

// Signup はユーザー登録APIエンドポイントを処理します。
// - リクエストJSONをSignupReqにバインド
// - バリデーションエラー・メール重複時は400を返却
// - 成功時は201を返却（トークンは発行しない）
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		response.Failure(c, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	if err := h.auth.Signup(c.Request.Context(), req.Email, req.Password); err != nil {
		slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	response.Success(c, http.StatusCreated, "User created successfully", nil)
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 未登録のメールアドレスは404、パスワード不一致は401を返却
// - 認証成功時はトークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		response.Failure(c, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	response.Success(c, http.StatusOK, "Login successful", dto.LoginRes{Token: token})
}

// SendEmailForChangePassword はパスワード再設定メールの送信要求を処理します。
// メール送信の失敗はユースケース内でログに記録され、レスポンスには影響しません。
func (h *AuthHandler) SendEmailForChangePassword(c *gin.Context) {
	var req dto.ResetRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("reset request validation failed", "error", err, "remote_addr", c.ClientIP())
		response.Failure(c, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		slog.Warn("reset request failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Email sent successfully", nil)
}

// ChangePassword はURLの復旧トークンを消費してパスワードを変更します。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("change password validation failed", "error", err, "remote_addr", c.ClientIP())
		response.Failure(c, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		// トークン自体はログに出さない
		slog.Warn("change password failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("password changed", "remote_addr", c.ClientIP())
	response.Success(c, http.StatusOK, "Password changed successfully", nil)
}

// writeError はユースケースのエラーをHTTPステータスとメッセージに変換します。
// 想定外のエラーは内部の詳細を返さず500とします。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		response.Failure(c, http.StatusBadRequest, invalidRequestMessage)
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		response.Failure(c, http.StatusBadRequest, "User already exists")
	case errors.Is(err, usecase.ErrUserNotFound):
		response.Failure(c, http.StatusNotFound, "User not found")
	case errors.Is(err, usecase.ErrInvalidRecoveryToken):
		response.Failure(c, http.StatusNotFound, "Invalid or expired token")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Failure(c, http.StatusUnauthorized, "Invalid credentials")
	default:
		slog.Error("auth request failed", "error", err, "path", c.FullPath())
		response.Failure(c, http.StatusInternalServerError, response.InternalErrorMessage)
	}
}
