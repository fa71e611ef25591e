package router

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "video_backend/internal/feature/auth/transport/handler"
	profilehandler "video_backend/internal/feature/profile/transport/handler"
	videohandler "video_backend/internal/feature/video/transport/handler"
	platformhandler "video_backend/internal/platform/http/handler"
)

const (
	// APIPrefix は全APIの共通パスです（/healthzを除く）。
	APIPrefix = "/api/v1"

	defaultAllowedOrigin = "http://localhost:5173"
	maxMultipartMemory   = 32 << 20
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Auth    *authhandler.AuthHandler
	Profile *profilehandler.ProfileHandler
	Video   *videohandler.VideoHandler
	Health  *platformhandler.HealthHandler
}

// Middlewares は認証ミドルウェアです。
// AuthRequiredは未認証のリクエストを拒否し、OptionalAuthは拒否しません。
type Middlewares struct {
	AuthRequired gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
}

// CORSConfigFromEnv はCORS_ALLOWED_ORIGINS（カンマ区切り）からCORS設定を生成します。
// 未設定の場合はローカルのフロントエンドのみ許可します。
func CORSConfigFromEnv() cors.Config {
	origins := []string{defaultAllowedOrigin}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func NewRouter(h Handlers, mw Middlewares, corsCfg cors.Config) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(cors.New(corsCfg))

	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)

	api := r.Group(APIPrefix)

	// 認証不要
	auth := api.Group("/auth")
	{
		// 新規ユーザー登録
		auth.POST("/sign-up", h.Auth.Signup)
		// ログイン（JWT 発行）
		auth.POST("/sign-in", h.Auth.Login)
		auth.POST("/send-email-for-change-password", h.Auth.SendEmailForChangePassword)
		auth.POST("/change-password/:token", h.Auth.ChangePassword)
	}

	// 任意認証: トークンがあればユーザーを設定する
	public := api.Group("/")
	public.Use(mw.OptionalAuth)
	{
		public.GET("/fetch-videos", h.Video.ListPublic)
		public.GET("/search-videos", h.Video.Search)
		public.GET("/fetch-video/:id", h.Video.Get)
		public.GET("/download/file/:id", h.Video.Download)
		public.GET("/thumbnail/:id", h.Video.Thumbnail)
	}

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	user := api.Group("/user")
	user.Use(mw.AuthRequired)
	{
		user.GET("/profile", h.Profile.GetProfile)
		user.POST("/update", h.Profile.UpdateProfile)
	}

	files := api.Group("/aws")
	files.Use(mw.AuthRequired)
	{
		files.POST("/upload-file", h.Video.Upload)
		files.GET("/fetch-videos", h.Video.ListMine)
		files.PUT("/update/video/:id", h.Video.Update)
		files.DELETE("/delete-single/video/:id", h.Video.Delete)
	}

	return r
}
