package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the blob storage backend at deployment time.
// Backend is either "minio" or "local"; the choice is fixed per deployment,
// never per request.
type StorageConfig struct {
	Backend          string
	LocalDir         string
	PublicBaseURL    string
	PresignExpirySec int
}

// OCRConfig holds settings for the Mistral OCR provider.
// FailurePolicy is either "degrade" (log the provider failure and persist the
// document with a null OCR result) or "abort" (fail the whole upload).
type OCRConfig struct {
	APIKey        string
	Endpoint      string
	Model         string
	TimeoutSec    int
	FailurePolicy string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Storage  StorageConfig
	OCR      OCRConfig
}

// Failure policy values for OCRConfig.FailurePolicy.
const (
	OCRPolicyDegrade = "degrade"
	OCRPolicyAbort   = "abort"
)

// Storage backend values for StorageConfig.Backend.
const (
	StorageBackendMinIO = "minio"
	StorageBackendLocal = "local"
)

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend:          getEnv("STORAGE_BACKEND", StorageBackendMinIO),
			LocalDir:         getEnv("STORAGE_LOCAL_DIR", "uploads"),
			PublicBaseURL:    getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			PresignExpirySec: getEnvInt("STORAGE_PRESIGN_EXPIRY_SEC", 3600),
		},
		OCR: OCRConfig{
			APIKey:        getEnv("MISTRAL_API_KEY", ""),
			Endpoint:      getEnv("MISTRAL_OCR_ENDPOINT", "https://api.mistral.ai"),
			Model:         getEnv("MISTRAL_OCR_MODEL", "mistral-ocr-latest"),
			TimeoutSec:    getEnvInt("OCR_TIMEOUT_SEC", 60),
			FailurePolicy: getEnv("OCR_FAILURE_POLICY", OCRPolicyDegrade),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
