package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"video_backend/internal/app/router"
	authadapters "video_backend/internal/feature/auth/adapters"
	authhandler "video_backend/internal/feature/auth/transport/handler"
	authusecase "video_backend/internal/feature/auth/usecase"
	profilehandler "video_backend/internal/feature/profile/transport/handler"
	profileusecase "video_backend/internal/feature/profile/usecase"
	videohandler "video_backend/internal/feature/video/transport/handler"
	videousecase "video_backend/internal/feature/video/usecase"
	platformhandler "video_backend/internal/platform/http/handler"
	jwtmw "video_backend/internal/platform/jwt"
	"video_backend/internal/platform/password"
	"video_backend/internal/platform/recovery"
)

// Deps holds the external resources the application is built from.
// Redis may be nil; the catalog is then served without a cache.
type Deps struct {
	DB            *gorm.DB
	Redis         *redis.Client
	Objects       videousecase.ObjectStorage
	Notifier      authusecase.RecoveryNotifier
	JWTSecret     string
	BcryptCost    int
	CacheTTL      time.Duration
	StoragePrefix string
}

// pinger is implemented by object stores that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewApp wires repositories, usecases and handlers.
func NewApp(d Deps) (router.Handlers, router.Middlewares) {
	// Repository
	userRepo := authadapters.NewUserGorm(d.DB)
	videoRepo := NewVideoRepository(d.Redis, d.DB, d.CacheTTL)

	// Platform
	issuer := jwtmw.NewIssuer(d.JWTSecret)
	hasher := password.NewBcryptHasher(d.BcryptCost)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, hasher, issuer, recovery.NewGenerator(), d.Notifier)
	// 一覧キャッシュは投稿者の名前とメールを含むため、プロフィール更新で破棄する
	var profileListeners []profileusecase.ProfileListener
	if l, ok := videoRepo.(profileusecase.ProfileListener); ok {
		profileListeners = append(profileListeners, l)
	}
	profileUC := profileusecase.NewProfileUsecase(userRepo, profileListeners...)
	videoUC := videousecase.NewVideoUsecase(videoRepo, d.Objects, userRepo, d.StoragePrefix)

	handlers := router.Handlers{
		Auth:    authhandler.NewAuthHandler(authUC),
		Profile: profilehandler.NewProfileHandler(profileUC),
		Video:   videohandler.NewVideoHandler(videoUC),
		Health:  platformhandler.NewHealthHandler(healthChecks(d)...),
	}
	mw := router.Middlewares{
		AuthRequired: jwtmw.AuthRequired(issuer, userRepo),
		OptionalAuth: jwtmw.OptionalAuth(issuer, userRepo),
	}
	return handlers, mw
}

func healthChecks(d Deps) []platformhandler.Check {
	checks := []platformhandler.Check{{
		Name: "database",
		Ping: func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if d.Redis != nil {
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() },
		})
	}
	if p, ok := d.Objects.(pinger); ok {
		checks = append(checks, platformhandler.Check{Name: "storage", Ping: p.Ping})
	}
	return checks
}
