package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`
	LogMode string `mapstructure:"LOG_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	FeedDriver  string `mapstructure:"FEED_DRIVER"`
	FeedChannel string `mapstructure:"FEED_CHANNEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	GCSBucketName string `mapstructure:"GCS_BUCKET_NAME"`
	GCSCDNDomain  string `mapstructure:"GCS_CDN_DOMAIN"`
	// Service account JSON or file path; falls back to GOOGLE_APPLICATION_CREDENTIALS(_JSON)
	GCSCredentials string `mapstructure:"GCS_CREDENTIALS"`
	MaxUploadSize  int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	IdentityMode       string        `mapstructure:"IDENTITY_MODE"`
	WhopAPIBaseURL     string        `mapstructure:"WHOP_API_BASE_URL"`
	WhopAPIKey         string        `mapstructure:"WHOP_API_KEY"`
	WhopAppID          string        `mapstructure:"WHOP_APP_ID"`
	WhopTokenPublicKey string        `mapstructure:"WHOP_TOKEN_PUBLIC_KEY"`
	DevCompanyID       string        `mapstructure:"DEV_COMPANY_ID"`
	MembershipCacheTTL time.Duration `mapstructure:"MEMBERSHIP_CACHE_TTL"`

	XPAssignmentPosted int64 `mapstructure:"XP_ASSIGNMENT_POSTED"`
	XPCommentPosted    int64 `mapstructure:"XP_COMMENT_POSTED"`
	XPUpvoteReceived   int64 `mapstructure:"XP_UPVOTE_RECEIVED"`

	DiscordBotToken         string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordRewardsChannelID string `mapstructure:"DISCORD_REWARDS_CHANNEL_ID"`

	// Comma separated; the Whop iframe origin in production
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
}

var keys = []string{
	"PORT", "GIN_MODE", "LOG_MODE",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PATH",
	"REDIS_HOST", "REDIS_PORT", "SESSION_SECRET",
	"FEED_DRIVER", "FEED_CHANNEL",
	"STORAGE_DRIVER", "GCS_BUCKET_NAME", "GCS_CDN_DOMAIN", "MAX_UPLOAD_BYTES",
	"IDENTITY_MODE", "WHOP_API_BASE_URL", "WHOP_API_KEY", "WHOP_APP_ID", "WHOP_TOKEN_PUBLIC_KEY",
	"DEV_COMPANY_ID", "MEMBERSHIP_CACHE_TTL",
	"XP_ASSIGNMENT_POSTED", "XP_COMMENT_POSTED", "XP_UPVOTE_RECEIVED",
	"DISCORD_BOT_TOKEN", "DISCORD_REWARDS_CHANNEL_ID",
	"CORS_ALLOWED_ORIGINS",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLER_RATIO", "OTEL_SERVICE_NAME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_MODE", "development")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "questboard")
	v.SetDefault("DB_PASSWORD", "questboard")
	v.SetDefault("DB_NAME", "questboard")
	v.SetDefault("DB_PATH", "questboard.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")

	v.SetDefault("FEED_DRIVER", "memory")
	v.SetDefault("FEED_CHANNEL", "progress_changes")

	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("MAX_UPLOAD_BYTES", 25<<20)

	v.SetDefault("IDENTITY_MODE", "whop")
	v.SetDefault("WHOP_API_BASE_URL", "https://api.whop.com/api/v5")
	v.SetDefault("DEV_COMPANY_ID", "biz_dev")
	v.SetDefault("MEMBERSHIP_CACHE_TTL", "5m")

	v.SetDefault("XP_ASSIGNMENT_POSTED", 10)
	v.SetDefault("XP_COMMENT_POSTED", 2)
	v.SetDefault("XP_UPVOTE_RECEIVED", 5)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
	v.SetDefault("OTEL_SERVICE_NAME", "questboard-api")
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("GCS_CREDENTIALS", "GCS_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations of settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.FeedDriver {
	case "memory", "redis":
	case "postgres":
		if c.DBDriver != "postgres" {
			return fmt.Errorf("FEED_DRIVER=postgres requires DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported FEED_DRIVER %q", c.FeedDriver)
	}
	switch c.StorageDriver {
	case "memory":
	case "gcs":
		if c.GCSBucketName == "" {
			return fmt.Errorf("missing GCS_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.IdentityMode {
	case "dev":
	case "whop":
		if c.WhopTokenPublicKey == "" {
			return fmt.Errorf("missing WHOP_TOKEN_PUBLIC_KEY")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_MODE %q", c.IdentityMode)
	}
	if c.OtelSampleRatio < 0 || c.OtelSampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLER_RATIO must be between 0 and 1")
	}
	if c.XPAssignmentPosted < 0 || c.XPCommentPosted < 0 || c.XPUpvoteReceived < 0 {
		return fmt.Errorf("XP awards must not be negative")
	}
	return nil
}

// RedisAddr joins the Redis host and port.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
