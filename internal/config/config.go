package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Payment   PaymentConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PaymentConfig covers the gateway client and the polling confirmation
// channel. The polling bounds are product defaults, not correctness
// requirements; both attempt and wall-clock bounds are always enforced.
type PaymentConfig struct {
	GatewayURL      string
	GatewayTimeout  time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
	PollMaxElapsed  time.Duration
	SessionTTL      time.Duration
	PresignTTL      time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// AuthConfig configures reviewer-API authentication: an OIDC issuer when
// available, otherwise a locally signed HS256 token.
type AuthConfig struct {
	OIDCIssuer   string
	OIDCClientID string
	JWTSecret    string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "lexfirma")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("PAYMENT_GATEWAY_TIMEOUT", 10)
	viper.SetDefault("PAYMENT_POLL_INTERVAL_SECONDS", 3)
	viper.SetDefault("PAYMENT_POLL_MAX_ATTEMPTS", 40)
	viper.SetDefault("PAYMENT_POLL_MAX_ELAPSED_SECONDS", 120)
	viper.SetDefault("PAYMENT_SESSION_TTL_MINUTES", 60)
	viper.SetDefault("ARTIFACT_PRESIGN_TTL_MINUTES", 15)
	viper.SetDefault("MINIO_BUCKET", "lexfirma")
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Payment: PaymentConfig{
			GatewayURL:      viper.GetString("PAYMENT_GATEWAY_URL"),
			GatewayTimeout:  time.Duration(viper.GetInt("PAYMENT_GATEWAY_TIMEOUT")) * time.Second,
			PollInterval:    time.Duration(viper.GetInt("PAYMENT_POLL_INTERVAL_SECONDS")) * time.Second,
			PollMaxAttempts: viper.GetInt("PAYMENT_POLL_MAX_ATTEMPTS"),
			PollMaxElapsed:  time.Duration(viper.GetInt("PAYMENT_POLL_MAX_ELAPSED_SECONDS")) * time.Second,
			SessionTTL:      time.Duration(viper.GetInt("PAYMENT_SESSION_TTL_MINUTES")) * time.Minute,
			PresignTTL:      time.Duration(viper.GetInt("ARTIFACT_PRESIGN_TTL_MINUTES")) * time.Minute,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetString("MINIO_USE_SSL") == "true",
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Auth: AuthConfig{
			OIDCIssuer:   viper.GetString("OIDC_ISSUER"),
			OIDCClientID: viper.GetString("OIDC_CLIENT_ID"),
			JWTSecret:    os.Getenv("JWT_SECRET"),
		},
	}

	// Basic validation
	if cfg.Payment.GatewayURL == "" {
		log.Println("WARNING: PAYMENT_GATEWAY_URL is not set; paid checkout will be unavailable")
	}
	if cfg.Auth.OIDCIssuer == "" && cfg.Auth.JWTSecret == "" {
		log.Println("WARNING: neither OIDC_ISSUER nor JWT_SECRET is set; reviewer endpoints will reject all requests")
	}

	return cfg, nil
}
