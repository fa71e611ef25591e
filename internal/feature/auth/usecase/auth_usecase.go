package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"video_backend/internal/feature/auth/domain/entity"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByRecoveryToken は復旧トークンが完全一致するユーザーを取得します。
	// 一致しない場合、ErrInvalidRecoveryTokenを返します。
	FindByRecoveryToken(ctx context.Context, token string) (*entity.User, error)

	// UpdatePasswordAndRotateToken は、保存されている復旧トークンがcurrentTokenと
	// 一致する場合に限り、パスワードハッシュと復旧トークンを1回の更新で書き換えます。
	// 一致する行がない場合（消費済みを含む）、ErrInvalidRecoveryTokenを返します。
	UpdatePasswordAndRotateToken(ctx context.Context, currentToken, passwordHash, nextToken string) error
}

// PasswordHasher はパスワードの一方向ハッシュ化と照合を定義します。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify は不一致と不正なハッシュを区別せず、どちらもfalseを返します。
	Verify(plaintext, hash string) bool
}

// TokenIssuer はBearerトークンの発行を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

// RecoveryTokenGenerator はパスワード再設定用のランダムトークンを生成します。
type RecoveryTokenGenerator interface {
	Generate() (string, error)
}

// RecoveryNotifier は現在の復旧トークンをユーザーへ届けます。
type RecoveryNotifier interface {
	SendRecoveryMessage(ctx context.Context, user *entity.User) error
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users    UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	recovery RecoveryTokenGenerator
	notifier RecoveryNotifier
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(
	users UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	recovery RecoveryTokenGenerator,
	notifier RecoveryNotifier,
) *authUsecase {
	return &authUsecase{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		recovery: recovery,
		notifier: notifier,
	}
}

// normalizeEmail はメールアドレスの前後の空白を除去し小文字化します。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup はハッシュ化されたパスワードと初期復旧トークンで新規ユーザーを登録します。
// 登録だけではログイン状態にならず、トークンは発行しません。
func (u *authUsecase) Signup(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	_, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailAlreadyExists
	case !errors.Is(err, ErrUserNotFound):
		return internalError("find user by email", err)
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return internalError("hash password", err)
	}
	token, err := u.recovery.Generate()
	if err != nil {
		return internalError("generate recovery token", err)
	}

	user := &entity.User{Email: email, Password: hashed, RecoveryToken: token}
	if err := u.users.Create(ctx, user); err != nil {
		// 同時登録で一意制約に引っかかった場合はConflictのまま返す
		if errors.Is(err, ErrEmailAlreadyExists) {
			return err
		}
		return internalError("create user", err)
	}
	return nil
}

// Login はユーザーを認証し、成功時にBearerトークンを返します。
// 復旧トークンはローテーションしません。
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", err
		}
		return "", internalError("find user by email", err)
	}

	if !u.hasher.Verify(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := u.issuer.Issue(user.ID)
	if err != nil {
		return "", internalError("issue token", err)
	}
	return token, nil
}

// RequestPasswordReset は現在の復旧トークンをユーザーへ送信します。
// トークンは消費されるまで変わらないため、繰り返し呼んでも同じトークンが送られます。
// 送信失敗はログに記録するだけで呼び出し元には返しません。
func (u *authUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return internalError("find user by email", err)
	}

	if err := u.notifier.SendRecoveryMessage(ctx, user); err != nil {
		slog.Error("failed to send recovery message", "error", err, "user_id", user.ID)
	}
	return nil
}

// ChangePassword は復旧トークンを消費してパスワードを変更します。
// パスワードの更新とトークンのローテーションは、トークンがまだ一致していることを条件にした
// 1回の更新で行うため、同じトークンで競合した場合に成功するのは1件だけです。
// 変更前に発行されたBearerトークンは引き続き有効です（失効の仕組みはありません）。
func (u *authUsecase) ChangePassword(ctx context.Context, recoveryToken, newPassword string) error {
	if recoveryToken == "" || newPassword == "" {
		return fmt.Errorf("%w: token and password are required", ErrValidation)
	}

	if _, err := u.users.FindByRecoveryToken(ctx, recoveryToken); err != nil {
		if errors.Is(err, ErrInvalidRecoveryToken) {
			return err
		}
		return internalError("find user by recovery token", err)
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return internalError("hash password", err)
	}
	next, err := u.recovery.Generate()
	if err != nil {
		return internalError("generate recovery token", err)
	}

	if err := u.users.UpdatePasswordAndRotateToken(ctx, recoveryToken, hashed, next); err != nil {
		if errors.Is(err, ErrInvalidRecoveryToken) {
			return err
		}
		return internalError("update password", err)
	}
	return nil
}
