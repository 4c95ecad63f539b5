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

	// Redis（投稿レート制限の共有カウンタストア）
	RedisURL string

	// Auth
	AuthJWTSecret string

	// 投稿レート制限
	PostRateLimit  int           // ウィンドウあたりの投稿上限
	PostRateWindow time.Duration // スライディングウィンドウ幅

	// オフラインキャッシュ
	OfflineMaxBytes  int64         // ユーザーあたりの容量上限（バイト）
	OfflineRetention time.Duration // エントリの保持期間

	// メディアサイズ計測
	MediaHeadTimeout time.Duration

	// API全般のスロットル（インスタンスローカル）
	RateLimitGeneral int // req/min/user

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
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

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	cfg.AuthJWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.AuthJWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.PostRateLimit = getEnvInt("POST_RATE_LIMIT", 10)
	cfg.PostRateWindow = getEnvDuration("POST_RATE_WINDOW", time.Minute)
	cfg.OfflineMaxBytes = getEnvInt64("OFFLINE_MAX_BYTES", 524288000) // 500 MB
	cfg.OfflineRetention = getEnvDuration("OFFLINE_RETENTION", 720*time.Hour)
	cfg.MediaHeadTimeout = getEnvDuration("MEDIA_HEAD_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
