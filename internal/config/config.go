package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Uploads    UploadsConfig
	MinIO      MinIOConfig
	Cloudinary CloudinaryConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Search     SearchConfig
	Admin      AdminConfig
	LogLevel   string
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

	// Transactions requires a replica set; when false apply() compensates instead.
	Transactions bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret          string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type UploadsConfig struct {
	Dir          string
	BaseURL      string
	MaxFiles     int
	MaxFileBytes int64
	Driver       string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

type CloudinaryConfig struct {
	URL    string
	Folder string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SearchConfig struct {
	Host   string
	APIKey string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development" || c.Server.Environment == "test"
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "campusnet")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_TRANSACTIONS", false)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 1440)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("UPLOADS_URL", "http://localhost:5000/uploads/")
	v.SetDefault("UPLOADS_MAX_FILES", 5)
	v.SetDefault("UPLOADS_MAX_BYTES", 10<<20)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("MINIO_BUCKET", "campusnet")
	v.SetDefault("CLOUDINARY_FOLDER", "campusnet")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("ADMIN_NAME", "Administrator")
	v.SetDefault("LOG_LEVEL", "info")

	port := firstNonEmpty(v.GetString("PORT"), v.GetString("SERVER_PORT"))
	mongoURI := firstNonEmpty(v.GetString("MONGO_URI"), v.GetString("MONGODB_URI"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:          mongoURI,
			Database:     v.GetString("MONGODB_DATABASE"),
			Timeout:      time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			Transactions: v.GetBool("MONGODB_TRANSACTIONS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			RefreshSecret:   v.GetString("REFRESH_SECRET"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Uploads: UploadsConfig{
			Dir:          v.GetString("UPLOADS_DIR"),
			BaseURL:      withTrailingSlash(v.GetString("UPLOADS_URL")),
			MaxFiles:     v.GetInt("UPLOADS_MAX_FILES"),
			MaxFileBytes: v.GetInt64("UPLOADS_MAX_BYTES"),
			Driver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			PublicURL: v.GetString("MINIO_PUBLIC_URL"),
		},
		Cloudinary: CloudinaryConfig{
			URL:    v.GetString("CLOUDINARY_URL"),
			Folder: v.GetString("CLOUDINARY_FOLDER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Search: SearchConfig{
			Host:   v.GetString("MEILISEARCH_HOST"),
			APIKey: v.GetString("MEILISEARCH_API_KEY"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoDB.URI == "" {
		return fmt.Errorf("environment variable MONGO_URI (or MONGODB_URI) is required")
	}
	if !c.IsDevelopment() && (c.JWT.Secret == "" || c.JWT.RefreshSecret == "") {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET are required in %s", c.Server.Environment)
	}
	if c.JWT.Secret != "" && c.JWT.Secret == c.JWT.RefreshSecret {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must differ")
	}
	switch c.Uploads.Driver {
	case "local", "minio", "cloudinary":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Uploads.Driver)
	}
	if c.Uploads.MaxFiles <= 0 {
		c.Uploads.MaxFiles = 5
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func withTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
