// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"video_backend/internal/feature/auth/domain/entity"
	"video_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のエラーコードです。
const pgUniqueViolation = "23505"

// userGorm はUserRepositoryインターフェースのGORM実装です。
// プロフィール更新と利用回数カウンタの更新もここで扱います。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// isDuplicateKey は一意制約違反かどうかを判定します。
// TranslateErrorが有効な場合はgorm.ErrDuplicatedKey、無効な場合はpgxのエラーコードで判定します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByRecoveryToken は復旧トークンでユーザーを取得します。
// 一致するユーザーがいない場合、usecase.ErrInvalidRecoveryTokenを返します。
func (r *userGorm) FindByRecoveryToken(ctx context.Context, token string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("recovery_token = ?", token).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrInvalidRecoveryToken
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePasswordAndRotateToken はrecovery_tokenが一致する行だけを条件付きで更新します。
// WHERE句にトークンを含めることで、読み取りと書き込みの間に別のリクエストが
// トークンを消費していた場合は0行更新となり、usecase.ErrInvalidRecoveryTokenを返します。
func (r *userGorm) UpdatePasswordAndRotateToken(ctx context.Context, currentToken, passwordHash, nextToken string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("recovery_token = ?", currentToken).
		Updates(map[string]any{
			"password":       passwordHash,
			"recovery_token": nextToken,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrInvalidRecoveryToken
	}
	return nil
}

// UpdateProfile は表示名と（指定された場合は）メールアドレスを更新します。
func (r *userGorm) UpdateProfile(ctx context.Context, id uint, name, email string) error {
	fields := map[string]any{"name": name}
	if email != "" {
		fields["email"] = email
	}
	result := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return usecase.ErrEmailAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// IncrementUploadCount はアップロード回数を1増やします。
func (r *userGorm) IncrementUploadCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "upload_count")
}

// IncrementDownloadCount はダウンロード回数を1増やします。
func (r *userGorm) IncrementDownloadCount(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "download_count")
}

func (r *userGorm) increment(ctx context.Context, id uint, column string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
