package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wellbeat/internal/analyzer"
	"github.com/hitoshi/wellbeat/internal/calendar"
	"github.com/hitoshi/wellbeat/internal/config"
	"github.com/hitoshi/wellbeat/internal/database"
	"github.com/hitoshi/wellbeat/internal/handler"
	"github.com/hitoshi/wellbeat/internal/insight"
	"github.com/hitoshi/wellbeat/internal/logger"
	"github.com/hitoshi/wellbeat/internal/metrics"
	"github.com/hitoshi/wellbeat/internal/middleware"
	"github.com/hitoshi/wellbeat/internal/repository"
	"github.com/hitoshi/wellbeat/internal/security"
	"github.com/hitoshi/wellbeat/internal/worker/daily"
	"github.com/hitoshi/wellbeat/internal/worker/retention"
	"golang.org/x/time/rate"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	scoreRepo := repository.NewPostgresScoreRepo(db)
	patternRepo := repository.NewPostgresPatternRepo(db)

	// 3. メトリクスレジストリの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. インサイト生成クライアントとサニタイザーの初期化
	annotator := insight.NewOpenAIClient(insight.ClientConfig{
		APIKey:  cfg.InsightAPIKey,
		BaseURL: cfg.InsightBaseURL,
		Model:   cfg.InsightModel,
		Timeout: cfg.InsightTimeout,
		Retries: cfg.InsightRetries,
	}, slog.Default())
	sanitizer := security.NewInsightSanitizer()

	// 5. 分析オーケストレーターの初期化
	wellnessAnalyzer := analyzer.New(
		annotator, sanitizer, scoreRepo, patternRepo, collector, slog.Default(),
	)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート設定はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.AnalyzeRate = rate.Limit(float64(cfg.RateLimitAnalyze) / 60.0)
	rateLimiterCfg.AnalyzeBurst = cfg.RateLimitAnalyze
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AnalyzerService: wellnessAnalyzer,
		WellnessReader:  handler.NewWellnessReaderAdapter(scoreRepo, patternRepo),

		HealthChecker: db,
		Gatherer:      registry,
		Logger:        slog.Default(),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、日次スコアリングバッチとパターン保持ジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	scoreRepo := repository.NewPostgresScoreRepo(db)
	patternRepo := repository.NewPostgresPatternRepo(db)

	// 3. インサイト生成クライアントとサニタイザーの初期化
	annotator := insight.NewOpenAIClient(insight.ClientConfig{
		APIKey:  cfg.InsightAPIKey,
		BaseURL: cfg.InsightBaseURL,
		Model:   cfg.InsightModel,
		Timeout: cfg.InsightTimeout,
		Retries: cfg.InsightRetries,
	}, slog.Default())
	sanitizer := security.NewInsightSanitizer()

	// 4. 分析オーケストレーターの初期化
	// ワーカーは/metricsを公開しないためNopCollectorを使用する
	wellnessAnalyzer := analyzer.New(
		annotator, sanitizer, scoreRepo, patternRepo, metrics.NopCollector{}, slog.Default(),
	)

	// 5. カレンダーイベント取得クライアントの初期化
	calendarClient := calendar.NewClient(
		&http.Client{Timeout: cfg.CalendarTimeout},
		slog.Default(),
		cfg.CalendarServiceURL,
	)

	// 6. 日次スコアリングバッチの初期化
	dailyJob := daily.NewJob(
		userRepo, calendarClient, wellnessAnalyzer,
		slog.Default(), cfg.AnalyzeMaxConcurrent,
	)

	// 7. パターン保持ジョブの初期化（PATTERN_RETENTION_DAYS未設定なら無効）
	retentionJob := retention.NewJob(db, slog.Default())
	retentionJob.RetentionDays = cfg.PatternRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("batch_interval", cfg.BatchInterval),
		slog.Int("max_concurrent", cfg.AnalyzeMaxConcurrent),
	)

	if cfg.PatternRetentionDays <= 0 {
		slog.Info("pattern retention is disabled")
	}

	// パターン保持ジョブを日次でバックグラウンド実行（無効時はno-op）
	go func() {
		// 起動直後に1回実行
		if err := retentionJob.Run(ctx); err != nil {
			slog.Error("retention job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := retentionJob.Run(ctx); err != nil {
					slog.Error("retention job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 日次スコアリングバッチをメインgoroutineで実行（ブロッキング）
	dailyJob.Start(ctx, cfg.BatchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
