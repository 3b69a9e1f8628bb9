package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string `validate:"required,oneof=development production"`
	Port      int    `validate:"required,min=1,max=65535"`
	APIPrefix string `validate:"required,startswith=/"`

	Database DatabaseConfig
	Redis    RedisConfig
	Viewer   ViewerConfig
	Oracle   OracleConfig
	Delivery DeliveryConfig
	Site     SiteConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"required,min=1,max=65535"`
	User         string `validate:"required"`
	Password     string
	Name         string `validate:"required"`
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,min=1,max=65535"`
	Password string
	DB       int
}

// ViewerConfig governs viewer identity resolution and per-viewer caching.
type ViewerConfig struct {
	JWTSecret        string
	SessionTTL       time.Duration
	AnonymousCodeTTL time.Duration
}

// OracleConfig points at the external redemption-code validator.
type OracleConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DeliveryConfig holds the CDN integration used to mint playback URLs.
// TokenSecret enables the claims-token strategy; SecurityKey enables the
// legacy hash-token strategy. TokenSecret wins when both are set.
type DeliveryConfig struct {
	CDNHostname   string
	LibraryID     string
	TokenSecret   string
	SecurityKey   string
	URLTTL        time.Duration
	PreviewURLTTL time.Duration
}

// SiteConfig controls the site-wide perimeter gate.
type SiteConfig struct {
	ProtectionEnabled bool
	ProtectionCodes   []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Viewer = ViewerConfig{
		JWTSecret:        v.GetString("VIEWER_JWT_SECRET"),
		SessionTTL:       parseDuration(v.GetString("VIEWER_SESSION_TTL"), 24*time.Hour),
		AnonymousCodeTTL: parseDuration(v.GetString("VIEWER_ANON_CODE_TTL"), 24*time.Hour),
	}

	cfg.Oracle = OracleConfig{
		BaseURL: v.GetString("ORACLE_BASE_URL"),
		APIKey:  v.GetString("ORACLE_API_KEY"),
		Timeout: parseDuration(v.GetString("ORACLE_TIMEOUT"), 5*time.Second),
	}

	cfg.Delivery = DeliveryConfig{
		CDNHostname:   v.GetString("DELIVERY_CDN_HOSTNAME"),
		LibraryID:     v.GetString("DELIVERY_LIBRARY_ID"),
		TokenSecret:   v.GetString("DELIVERY_TOKEN_SECRET"),
		SecurityKey:   v.GetString("DELIVERY_SECURITY_KEY"),
		URLTTL:        parseDuration(v.GetString("DELIVERY_URL_TTL"), time.Hour),
		PreviewURLTTL: parseDuration(v.GetString("DELIVERY_PREVIEW_URL_TTL"), 15*time.Minute),
	}

	cfg.Site = SiteConfig{
		ProtectionEnabled: v.GetBool("SITE_PROTECTION_ENABLED"),
		ProtectionCodes:   splitAndTrim(v.GetString("SITE_PROTECTION_CODES")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vgate")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("VIEWER_JWT_SECRET", "dev_secret")
	v.SetDefault("VIEWER_SESSION_TTL", "24h")
	v.SetDefault("VIEWER_ANON_CODE_TTL", "24h")

	v.SetDefault("ORACLE_BASE_URL", "")
	v.SetDefault("ORACLE_API_KEY", "")
	v.SetDefault("ORACLE_TIMEOUT", "5s")

	v.SetDefault("DELIVERY_CDN_HOSTNAME", "")
	v.SetDefault("DELIVERY_LIBRARY_ID", "")
	v.SetDefault("DELIVERY_TOKEN_SECRET", "")
	v.SetDefault("DELIVERY_SECURITY_KEY", "")
	v.SetDefault("DELIVERY_URL_TTL", "1h")
	v.SetDefault("DELIVERY_PREVIEW_URL_TTL", "15m")

	v.SetDefault("SITE_PROTECTION_ENABLED", false)
	v.SetDefault("SITE_PROTECTION_CODES", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
