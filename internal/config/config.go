package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Insight (OpenAI互換API)
	InsightAPIKey  string
	InsightBaseURL string
	InsightModel   string
	InsightTimeout time.Duration
	InsightRetries int

	// Calendar
	CalendarServiceURL string
	CalendarTimeout    time.Duration

	// Batch
	BatchInterval        time.Duration
	AnalyzeMaxConcurrent int
	PatternRetentionDays int // 0の場合はパターンの自動削除を行わない

	// Rate Limit
	RateLimitGeneral int
	RateLimitAnalyze int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.InsightAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.InsightAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	cfg.CalendarServiceURL = os.Getenv("CALENDAR_SERVICE_URL")
	if cfg.CalendarServiceURL == "" {
		missing = append(missing, "CALENDAR_SERVICE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.InsightBaseURL = getEnvString("OPENAI_BASE_URL", "")
	cfg.InsightModel = getEnvString("INSIGHT_MODEL", "")
	cfg.InsightTimeout = getEnvDuration("INSIGHT_TIMEOUT", 20*time.Second)
	// タイムアウト込みで1回だけ再試行する（呼び出し元はフェイルクローズド）
	cfg.InsightRetries = getEnvInt("INSIGHT_RETRIES", 1)
	cfg.CalendarTimeout = getEnvDuration("CALENDAR_TIMEOUT", 10*time.Second)
	cfg.BatchInterval = getEnvDuration("BATCH_INTERVAL", 24*time.Hour)
	cfg.AnalyzeMaxConcurrent = getEnvInt("ANALYZE_MAX_CONCURRENT", 4)
	// 0は保持期間管理の無効を意味する（パターンは削除されない）
	cfg.PatternRetentionDays = getEnvInt("PATTERN_RETENTION_DAYS", 0)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAnalyze = getEnvInt("RATE_LIMIT_ANALYZE", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
