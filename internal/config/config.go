package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Storage    StorageConfig
	OpenRouter OpenRouterConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	UploadTopic        string
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

type StorageConfig struct {
	Driver       string // "local" or "s3"
	LocalDir     string
	AwsRegion    string
	AwsAccessKey string
	AwsSecretKey string
	BucketName   string
}

type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	SiteURL     string // sent as HTTP-Referer
	SiteTitle   string // sent as X-Title
	MaxTokens   int
	Temperature float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			UploadTopic:        getEnv("DOCUMENT_UPLOADED_TOPIC_NAME", "DOCUMENT_UPLOADED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Knowledge Hub"),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "local"),
			LocalDir:     getEnv("STORAGE_LOCAL_DIR", "secure-uploads"),
			AwsRegion:    getEnv("AWS_REGION", ""),
			AwsAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			AwsSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BucketName:   getEnv("S3_BUCKET_NAME", ""),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.2-3b-instruct:free"),
			SiteURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),
			SiteTitle:   getEnv("OPENROUTER_SITE_TITLE", "AI Knowledge Hub"),
			MaxTokens:   getEnvAsInt("OPENROUTER_MAX_TOKENS", 1000),
			Temperature: getEnvAsFloat("OPENROUTER_TEMPERATURE", 0.7),
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
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
