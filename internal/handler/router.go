package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wellbeat/internal/metrics"
	"github.com/hitoshi/wellbeat/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ウェルネスエンジン
	AnalyzerService AnalyzerService
	WellnessReader  WellnessReader

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Identity → RateLimit(General)
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	wellnessHandler := NewWellnessHandler(deps.AnalyzerService, deps.WellnessReader)

	// --- 認証不要のルート ---

	// ヘルスチェック（ロードバランサ・Dockerヘルスチェック用）
	r.Get("/health", healthHandler(deps.HealthChecker))

	// Prometheusスクレイプ用
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- ユーザー識別が必要なルート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/wellness", func(r chi.Router) {
			// POST /api/wellness/analyze - 分析実行（専用レート制限を追加）
			r.With(deps.RateLimiter.AnalyzeMiddleware()).Post("/analyze", wellnessHandler.Analyze)

			// スコア
			r.Route("/scores", func(r chi.Router) {
				r.Get("/", wellnessHandler.GetHistory)
				r.Get("/latest", wellnessHandler.GetLatest)
			})

			// パターン
			r.Route("/patterns", func(r chi.Router) {
				r.Get("/", wellnessHandler.GetPatterns)
				r.Get("/active", wellnessHandler.GetActivePatterns)
			})
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
