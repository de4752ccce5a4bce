package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/keepsake/internal/middleware"
	"github.com/hitoshi/keepsake/internal/storage"
)

// HealthChecker はDB接続の生存確認インターフェース。*sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionValidator  middleware.SessionValidator
	CORSAllowedOrigin string
	CookieSecure      bool
	CookieDomain      string
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 記念品
	ItemService ItemServiceInterface

	// 画像
	BlobStore    storage.BlobStore
	UploadConfig UploadHandlerConfig

	// メトリクス公開エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Session → Logging
//
// セッションミドルウェアはリクエストを拒否せず、識別情報をコンテキストに
// 載せるだけに留める。認証必須の/api配下はRequireAuth + CSRFで保護する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	sessionConfig := middleware.SessionConfig{
		CookieSecure: deps.CookieSecure,
		CookieDomain: deps.CookieDomain,
	}
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.CookieSecure,
		CookieDomain: deps.CookieDomain,
	}

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionValidator, sessionConfig))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	itemHandler := NewItemHandler(deps.ItemService)
	uploadHandler := NewUploadHandler(deps.BlobStore, deps.UploadConfig)
	imageHandler := NewImageHandler(deps.BlobStore)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 画像配信（URLが推測困難なため公開）
	r.Get("/api/images/*", imageHandler.Serve)

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: CSRF → RequireAuth
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Use(middleware.NewRequireAuthMiddleware())

		// 記念品管理
		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Post("/reorder", itemHandler.ReorderItems)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", itemHandler.UpdateItem)
				r.Delete("/", itemHandler.DeleteItem)
			})
		})

		// 画像アップロード
		r.Post("/api/upload", uploadHandler.Upload)
	})

	return r
}
