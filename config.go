package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	aws_pkg "storefront-service/pkg/aws"
)

const secretsName = "storefront/credentials"

type Config struct {
	Env         string
	Port        string
	ServiceName string

	MongoURI string
	MongoDB  string
	RedisURL string

	CacheTTL time.Duration

	SupabaseJWTSecret string
	SupabaseAudience  string

	Currency string

	PayHereMerchantID     string
	PayHereMerchantSecret string
	PayHereReturnURL      string
	PayHereCancelURL      string
	PayHereNotifyURL      string
	PayHereSandbox        bool

	StripeSecretKey     string
	StripeWebhookSecret string

	OrderEventsTopicArn   string
	PaymentEventsTopicArn string

	CORSOrigins     string
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	MetricsEnabled  bool
	MetricsNS       string
	CloudWatchGroup string
	UseSecrets      bool
}

// LoadConfig reads the environment, overlays Secrets Manager when
// AWS_USE_SECRETS is on, then validates the result.
func LoadConfig(ctx context.Context, log *zap.Logger) (*Config, error) {
	cfg := fromEnv()
	if cfg.UseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("AWS config unavailable, skipping secrets", zap.Error(err))
		} else {
			cfg.applySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg), log)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "storefront-service"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "storefront"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		CacheTTL: getDuration("PRODUCT_CACHE_TTL", 10*time.Minute),

		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		SupabaseAudience:  getEnv("SUPABASE_JWT_AUDIENCE", "authenticated"),

		Currency: strings.ToUpper(getEnv("STORE_CURRENCY", "LKR")),

		PayHereMerchantID:     os.Getenv("PAYHERE_MERCHANT_ID"),
		PayHereMerchantSecret: os.Getenv("PAYHERE_MERCHANT_SECRET"),
		PayHereReturnURL:      os.Getenv("PAYHERE_RETURN_URL"),
		PayHereCancelURL:      os.Getenv("PAYHERE_CANCEL_URL"),
		PayHereNotifyURL:      os.Getenv("PAYHERE_NOTIFY_URL"),
		PayHereSandbox:        getEnv("PAYHERE_SANDBOX", "true") == "true",

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		OrderEventsTopicArn:   os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		PaymentEventsTopicArn: os.Getenv("PAYMENT_EVENTS_TOPIC_ARN"),

		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		MetricsEnabled:  os.Getenv("METRICS_ENABLED") == "true",
		MetricsNS:       getEnv("METRICS_NAMESPACE", "Storefront"),
		CloudWatchGroup: os.Getenv("CLOUDWATCH_LOG_GROUP"),
		UseSecrets:      os.Getenv("AWS_USE_SECRETS") == "true",
	}
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.PayHereMerchantID != "" && c.PayHereMerchantSecret == "" {
		return fmt.Errorf("PAYHERE_MERCHANT_SECRET is required when PAYHERE_MERCHANT_ID is set")
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// secretSource is the part of the Secrets Manager client the overlay needs
type secretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// applySecrets overrides credentials with values from Secrets Manager. Keys
// missing from the secret keep their environment values.
func (c *Config) applySecrets(ctx context.Context, sm secretSource, log *zap.Logger) {
	m, err := sm.GetSecretMap(ctx, secretsName)
	if err != nil {
		log.Warn("Failed to load secrets, using environment", zap.String("secret", secretsName), zap.Error(err))
		return
	}

	overlay := map[string]*string{
		"MONGO_URI":               &c.MongoURI,
		"REDIS_URL":               &c.RedisURL,
		"SUPABASE_JWT_SECRET":     &c.SupabaseJWTSecret,
		"PAYHERE_MERCHANT_ID":     &c.PayHereMerchantID,
		"PAYHERE_MERCHANT_SECRET": &c.PayHereMerchantSecret,
		"STRIPE_SECRET_KEY":       &c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET":   &c.StripeWebhookSecret,
	}
	for key, dst := range overlay {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
