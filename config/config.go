package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Media    MediaConfig
	Auth     AuthConfig
	Firebase FirebaseConfig
	Sweep    SweepConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MediaConfig struct {
	Backend   string // local, minio or s3
	Dir       string
	BaseURL   string
	MaxBytes  int64
	Bucket    string
	Prefix    string
	PublicURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	S3Region string
}

type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
	CookieSecure      bool
}

type FirebaseConfig struct {
	CredentialsPath string
}

type SweepConfig struct {
	Schedule string
	Grace    time.Duration
}

type AppConfig struct {
	ServiceName string
	Environment string
	LogLevel    string
	LogFile     string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "portfolio"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Migrate:  getEnvAsBool("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Media: MediaConfig{
			Backend:        strings.ToLower(getEnv("MEDIA_BACKEND", "local")),
			Dir:            getEnv("MEDIA_DIR", "public/uploads"),
			BaseURL:        getEnv("MEDIA_BASE_URL", "/uploads"),
			MaxBytes:       int64(getEnvAsInt("MEDIA_MAX_BYTES", 50<<20)),
			Bucket:         getEnv("MEDIA_BUCKET", ""),
			Prefix:         getEnv("MEDIA_PREFIX", ""),
			PublicURL:      getEnv("MEDIA_PUBLIC_URL", ""),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			S3Region:       getEnv("AWS_REGION", ""),
		},
		Auth: AuthConfig{
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionSecret:     getEnv("SESSION_SECRET", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieSecure:      getEnvAsBool("COOKIE_SECURE", env == "production"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Sweep: SweepConfig{
			Schedule: getEnv("SWEEP_SCHEDULE", "0 30 3 * * *"),
			Grace:    getEnvAsDuration("SWEEP_GRACE", 24*time.Hour),
		},
		App: AppConfig{
			ServiceName: getEnv("SERVICE_NAME", "portfolio-backend"),
			Environment: env,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFile:     getEnv("LOG_FILE", ""),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	switch c.Media.Backend {
	case "local":
		if c.Media.Dir == "" {
			return fmt.Errorf("MEDIA_DIR is required for the local media backend")
		}
	case "minio":
		if c.Media.MinioEndpoint == "" || c.Media.Bucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MEDIA_BUCKET are required for the minio media backend")
		}
	case "s3":
		if c.Media.Bucket == "" {
			return fmt.Errorf("MEDIA_BUCKET is required for the s3 media backend")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be local, minio or s3, got %q", c.Media.Backend)
	}

	if c.App.Environment == "production" {
		if c.Auth.AdminEmail == "" || c.Auth.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required in production")
		}
		if len(c.Auth.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
