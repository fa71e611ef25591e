// Package usecase はprofileフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"video_backend/internal/feature/auth/domain/entity"
	authusecase "video_backend/internal/feature/auth/usecase"
)

// ProfileRepository はプロフィールの参照と更新に必要な永続化操作です。
type ProfileRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	// UpdateProfile はemailが空の場合はメールアドレスを変更しません。
	UpdateProfile(ctx context.Context, id uint, name, email string) error
}

// ProfileListener はプロフィール更新後に通知を受けます。
// 投稿者情報を埋め込んだキャッシュの破棄などに使います。
type ProfileListener interface {
	ProfileUpdated(ctx context.Context, userID uint)
}

type profileUsecase struct {
	users     ProfileRepository
	listeners []ProfileListener
}

// NewProfileUsecase はprofileUsecaseの新しいインスタンスを生成します。
func NewProfileUsecase(users ProfileRepository, listeners ...ProfileListener) *profileUsecase {
	return &profileUsecase{users: users, listeners: listeners}
}

// GetProfile は最新のユーザー情報を取得します。
func (u *profileUsecase) GetProfile(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, authusecase.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w: %w", authusecase.ErrInternal, err)
	}
	return user, nil
}

// UpdateProfile は表示名とメールアドレスを更新し、更新後のユーザーを返します。
// メールアドレスは登録時と同じく小文字化され、既存ユーザーとの重複は許されません。
func (u *profileUsecase) UpdateProfile(ctx context.Context, userID uint, name, email string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", authusecase.ErrValidation)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	if err := u.users.UpdateProfile(ctx, userID, name, email); err != nil {
		if errors.Is(err, authusecase.ErrEmailAlreadyExists) || errors.Is(err, authusecase.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w: %w", authusecase.ErrInternal, err)
	}
	for _, l := range u.listeners {
		l.ProfileUpdated(ctx, userID)
	}
	return u.GetProfile(ctx, userID)
}
