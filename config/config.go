package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Delivery queue.
	QueueConcurrency int `mapstructure:"QUEUE_CONCURRENCY"`
	QueueMaxRetry    int `mapstructure:"QUEUE_MAX_RETRY"`

	// Push (Firebase Cloud Messaging). Empty path runs the push channel in mock mode.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Email (Postmark). Empty server token runs the email channel in mock mode.
	PostmarkServerToken  string `mapstructure:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `mapstructure:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `mapstructure:"SENDER_EMAIL"`
	SupportEmail         string `mapstructure:"SUPPORT_EMAIL"`

	// Stripe.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// License expiration sweeps.
	LicenseWarningCron string `mapstructure:"LICENSE_WARNING_CRON"`
	LicenseExpiryCron  string `mapstructure:"LICENSE_EXPIRY_CRON"`
	SchedulerTimezone  string `mapstructure:"SCHEDULER_TIMEZONE"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "deployhub")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_QUEUE_DB", 0)
	viper.SetDefault("QUEUE_CONCURRENCY", 10)
	viper.SetDefault("QUEUE_MAX_RETRY", 5)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("POSTMARK_SERVER_TOKEN", "")
	viper.SetDefault("POSTMARK_ACCOUNT_TOKEN", "")
	viper.SetDefault("SENDER_EMAIL", "no-reply@deployhub.local")
	viper.SetDefault("SUPPORT_EMAIL", "support@deployhub.local")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("LICENSE_WARNING_CRON", "0 9 * * *")
	viper.SetDefault("LICENSE_EXPIRY_CRON", "0 0 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
