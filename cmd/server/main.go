package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"video_backend/internal/app/di"
	"video_backend/internal/app/router"
	infradb "video_backend/internal/platform/db"
	jwtmw "video_backend/internal/platform/jwt"
	"video_backend/internal/platform/mailer"
	"video_backend/internal/platform/password"
	infraredis "video_backend/internal/platform/redis"
)

func main() {
	ctx := context.Background()

	// JWT_SECRETは必須（起動時に一度だけ読み込む）
	secret, err := jwtmw.LoadSecretFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}

	// Redis
	var rdb *redisv9.Client
	if cfg, ok := infraredis.LoadConfigFromEnv(); !ok {
		log.Println("[WARN] REDIS_HOST is not set. Running without cache.")
	} else if tmp, err := infraredis.NewRedisClient(ctx, cfg); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// オブジェクトストレージ（S3）
	objects, storageCfg, err := di.NewObjectStorage(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// メール送信（SMTP未設定ならログのみ）
	mailCfg := mailer.LoadConfigFromEnv()
	if !mailCfg.Enabled() {
		log.Println("[WARN] SMTP is not configured. Change password emails will only be logged.")
	}
	notifier, err := di.NewRecoveryNotifier(mailCfg)
	if err != nil {
		log.Fatal(err)
	}

	handlers, mw := di.NewApp(di.Deps{
		DB:            db,
		Redis:         rdb,
		Objects:       objects,
		Notifier:      notifier,
		JWTSecret:     secret,
		BcryptCost:    envInt("BCRYPT_COST", password.DefaultCost),
		CacheTTL:      envDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		StoragePrefix: storageCfg.Prefix,
	})

	// ルータ生成
	r := router.NewRouter(handlers, mw, router.CORSConfigFromEnv())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
