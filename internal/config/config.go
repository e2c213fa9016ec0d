package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Keys       APIKeys
	Withdrawal WithdrawalConfig
	Tracing    TracingConfig
}

type AppConfig struct {
	Port                    string
	BaseURL                 string
	Environment             string
	LogFilePath             string
	NotificationLogFilePath string
	CorsAllowedOrigins      string
	NatsURL                 string
	RedisURL                string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	JwtSecret      string
	EmailTopicName string
}

// WithdrawalConfig tunes locking and email delivery around withdrawals.
type WithdrawalConfig struct {
	LockTTL          time.Duration
	LockRetries      int
	LockRetryDelay   time.Duration
	EmailDedupWindow time.Duration
	EmailMaxAttempts int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:                    getEnv("APP_PORT", "3000"),
			BaseURL:                 getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:             getEnv("GO_ENV", "development"),
			LogFilePath:             getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLogFilePath: getEnv("NOTIFICATION_LOG_FILE_PATH", "logs/notification.log"),
			CorsAllowedOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:                 getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Approved Premises"),
		},
		Keys: APIKeys{
			JwtSecret:      getEnv("JWT_SECRET", ""),
			EmailTopicName: getEnv("EMAIL_TOPIC_NAME", "WITHDRAWAL_EMAILS"),
		},
		Withdrawal: WithdrawalConfig{
			LockTTL:          time.Duration(getEnvAsInt("WITHDRAWAL_LOCK_TTL_SECONDS", 30)) * time.Second,
			LockRetries:      getEnvAsInt("WITHDRAWAL_LOCK_RETRIES", 20),
			LockRetryDelay:   time.Duration(getEnvAsInt("WITHDRAWAL_LOCK_RETRY_DELAY_MS", 100)) * time.Millisecond,
			EmailDedupWindow: time.Duration(getEnvAsInt("EMAIL_DEDUP_TTL_MINUTES", 30)) * time.Minute,
			EmailMaxAttempts: getEnvAsInt("EMAIL_MAX_ATTEMPTS", 5),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "approved-premises-withdrawals"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}
