package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "campusnet_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "access-secret-32-bytes-xxxxxxxxxxxx")
	t.Setenv("REFRESH_SECRET", "refresh-secret-32-bytes-xxxxxxxxxxx")
}

func TestLoadConfig(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	require.Equal(t, "http://localhost:5000/uploads/", cfg.Uploads.BaseURL)
	require.Equal(t, 5, cfg.Uploads.MaxFiles)
	require.Equal(t, "local", cfg.Uploads.Driver)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "5000", cfg.Server.Port)
}

func TestLoadConfig_PortAndUploadsOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("UPLOADS_URL", "https://cdn.example.com/files")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "https://cdn.example.com/files/", cfg.Uploads.BaseURL)
	require.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoadConfig_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_SecretsRequiredOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_ENVIRONMENT", "production")
	t.Setenv("REFRESH_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_RejectsUnknownStorageDriver(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "STORAGE_DRIVER")
}
