package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kanushi/kanushi-api/internal/metrics"
	"github.com/kanushi/kanushi-api/internal/middleware"
	"github.com/kanushi/kanushi-api/internal/validation"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 可観測性
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// ドメインサービス
	FollowService  FollowServiceInterface
	PostService    PostServiceInterface
	OfflineService OfflineServiceInterface

	// メディアURLの静的検証
	MediaURLValidator validation.MediaURLValidator
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Auth → RateLimit(General)
//
// /health と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	followHandler := NewFollowHandler(deps.FollowService, deps.Collector)
	postHandler := NewPostHandler(deps.PostService, deps.MediaURLValidator, deps.Collector)
	offlineHandler := NewOfflineHandler(deps.OfflineService, deps.Collector)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General) → メトリクス記録
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(newMetricsMiddleware(deps.Collector))

		// フォロー関係管理
		r.Route("/api/follows", func(r chi.Router) {
			r.Post("/", followHandler.CreateFollow)
			r.Get("/", followHandler.ListFollows)
			r.Get("/{followId}", followHandler.GetFollow)
			r.Delete("/{followId}", followHandler.Unfollow)
		})

		// 投稿管理
		r.Route("/api/posts", func(r chi.Router) {
			r.Post("/", postHandler.CreatePost)
			r.Get("/{id}", postHandler.GetPost)
		})

		// オフラインキャッシュ管理
		r.Route("/api/offline-content", func(r chi.Router) {
			r.Get("/", offlineHandler.ListOffline)
			r.Post("/{postId}", offlineHandler.SaveOffline)
			r.Delete("/{postId}", offlineHandler.RemoveOffline)
		})
	})

	return r
}

// statusRecorder はレスポンスのステータスコードをキャプチャするラッパー。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// newMetricsMiddleware はHTTPステータスとレイテンシをメトリクスに記録するミドルウェアを返す。
func newMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			collector.RecordHTTPStatus(rec.status)
			collector.RecordRequestLatency(time.Since(start))
		})
	}
}
