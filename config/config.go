// Package config loads service settings from the environment (and an optional .env file).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// --- Server ---
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	Port           string `envconfig:"PORT" default:"5200"`
	GatewayToken   string `envconfig:"GATEWAY_TOKEN" required:"true"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// --- Logging ---
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogPath       string `envconfig:"LOG_PATH" default:""`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
	LogCompress   bool   `envconfig:"LOG_COMPRESS" default:"false"`

	// --- Database ---
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpen   int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdle   int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// --- Redis (leaderboard cache) ---
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_TTL" default:"10m"`

	// --- Object storage (Cloudflare R2) ---
	R2AccountID       string `envconfig:"CLOUDFLARE_ACCOUNT_ID" default:""`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID" default:""`
	R2AccessKeySecret string `envconfig:"R2_ACCESS_KEY_SECRET" default:""`
	R2Bucket          string `envconfig:"R2_BUCKET_NAME" default:""`
	CDNBaseURL        string `envconfig:"CDN_BASE_URL" default:""`
	UploadDir         string `envconfig:"UPLOAD_DIR" default:"uploads"`

	// --- Certificates ---
	CertificateSecret    string `envconfig:"CERTIFICATE_SECRET" required:"true"`
	CertificateVerifyURL string `envconfig:"CERTIFICATE_VERIFY_URL" default:"http://localhost:5200/certificates/verify"`

	// --- Auth service (token checks for event streams) ---
	AuthServiceURL   string `envconfig:"AUTH_SERVICE_URL" default:""`
	AuthServiceToken string `envconfig:"AUTH_SERVICE_TOKEN" default:""`

	// --- Payments ---
	PaymentServiceURL   string        `envconfig:"PAYMENT_SERVICE_URL" default:""`
	PaymentServiceToken string        `envconfig:"PAYMENT_SERVICE_TOKEN" default:""`
	PaymentPollInterval time.Duration `envconfig:"PAYMENT_POLL_INTERVAL" default:"30s"`

	// --- Background jobs ---
	ExpiryInterval time.Duration `envconfig:"SUBSCRIPTION_EXPIRY_INTERVAL" default:"1h"`
	StreamInterval time.Duration `envconfig:"NOTIFICATION_STREAM_INTERVAL" default:"2s"`

	// --- Rewards ---
	HighRatingBonus      int64 `envconfig:"REWARD_HIGH_RATING_BONUS" default:"5"`
	ExcellentRatingBonus int64 `envconfig:"REWARD_EXCELLENT_RATING_BONUS" default:"5"`
	PublicationPoints    int64 `envconfig:"REWARD_PUBLICATION_POINTS" default:"20"`

	// --- Rate limiting ---
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
}

// R2Enabled reports whether certificate files go to R2 instead of the local upload dir.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2Bucket != ""
}

// Origins returns ALLOWED_ORIGINS with whitespace trimmed, joined the way fiber's cors expects.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func (c *Config) Validate() error {
	if c.HighRatingBonus < 0 || c.ExcellentRatingBonus < 0 {
		return fmt.Errorf("rating bonuses must be >= 0")
	}
	if c.PublicationPoints <= 0 {
		return fmt.Errorf("REWARD_PUBLICATION_POINTS must be > 0")
	}
	if c.DBMaxOpen <= 0 || c.DBMaxIdle < 0 || c.DBMaxIdle > c.DBMaxOpen {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS/DB_MAX_IDLE_CONNS")
	}
	if c.PaymentServiceURL != "" && c.PaymentPollInterval <= 0 {
		return fmt.Errorf("PAYMENT_POLL_INTERVAL must be > 0")
	}
	if c.ExpiryInterval <= 0 || c.StreamInterval <= 0 {
		return fmt.Errorf("SUBSCRIPTION_EXPIRY_INTERVAL and NOTIFICATION_STREAM_INTERVAL must be > 0")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	return nil
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
