package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultAddr             = ":8080"
	DefaultImageModel       = "gemini-2.5-flash-image"
	DefaultAPIKeyEnv        = "GEMINI_API_KEY"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultEditTimeout      = 2 * time.Minute
	DefaultSessionTTL       = 30 * time.Minute
	DefaultURLCacheTTL      = 10 * time.Minute
	DefaultRateInterval     = 2 * time.Second
	DefaultMaxConcurrent    = 4
	DefaultMaxUploadBytes   = 20 << 20
	DefaultCompressQuality  = 0 // 0 なら再圧縮しない
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultLocalOutputImage = "output/edited.png"
)

// Config はアプリケーション全体の環境設定を保持する構造体です。
type Config struct {
	Addr            string
	ImageModel      string
	APIKeyEnv       string // API キーを読む環境変数の名前。値そのものは保持しない
	HTTPTimeout     time.Duration
	EditTimeout     time.Duration
	SessionTTL      time.Duration
	URLCacheTTL     time.Duration
	RateInterval    time.Duration
	MaxConcurrent   int
	MaxUploadBytes  int64
	CompressQuality int
	ShutdownTimeout time.Duration
	EnableGCS       bool // gs:// の URL からの取り込みを許可する
}

// LoadConfig は .env（あれば）と環境変数から設定を読み込みます。
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug(".env を読み込みました")
	}

	addr := stringEnv("ADDR", "")
	if addr == "" {
		if port := stringEnv("PORT", ""); port != "" {
			addr = ":" + port
		} else {
			addr = DefaultAddr
		}
	}

	cfg := &Config{
		Addr:       addr,
		ImageModel: stringEnv("IMAGE_MODEL", DefaultImageModel),
		APIKeyEnv:  stringEnv("API_KEY_ENV", DefaultAPIKeyEnv),
	}

	var err error
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.EditTimeout, err = durationEnv("EDIT_TIMEOUT", DefaultEditTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", DefaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.URLCacheTTL, err = durationEnv("URL_CACHE_TTL", DefaultURLCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RateInterval, err = durationEnv("RATE_INTERVAL", DefaultRateInterval); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = intEnv("MAX_CONCURRENT", DefaultMaxConcurrent); err != nil {
		return nil, err
	}
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.CompressQuality, err = intEnv("COMPRESS_QUALITY", DefaultCompressQuality); err != nil {
		return nil, err
	}

	if raw := stringEnv("ENABLE_GCS", ""); raw != "" {
		if cfg.EnableGCS, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("ENABLE_GCS の値が不正です (%q): %w", raw, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if c.APIKeyEnv == "" {
		return fmt.Errorf("API_KEY_ENV が空です")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT は1以上が必要です: %d", c.MaxConcurrent)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES は1以上が必要です: %d", c.MaxUploadBytes)
	}
	if c.CompressQuality < 0 || c.CompressQuality > 100 {
		return fmt.Errorf("COMPRESS_QUALITY は0から100の範囲で指定してください: %d", c.CompressQuality)
	}
	return nil
}

// stringEnv は空文字も未設定として扱います。
func stringEnv(key, def string) string {
	if v := envutil.GetEnv(key, ""); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := stringEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です (%q): %w", key, raw, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := stringEnv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です (%q): %w", key, raw, err)
	}
	return n, nil
}
