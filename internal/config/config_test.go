package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maynagashev/autojob/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.EnvDevelopment, cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, int64(2*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, config.StorageLocal, cfg.StorageBackend)
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRES_IN", "30m")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.LoginRateLimit)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, config.StorageMinio, cfg.StorageBackend)
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "jwt_secret: from-file\nserver_port: \"9000\"\nupload_dir: /srv/cv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "/srv/cv", cfg.UploadDir)
	assert.Equal(t, "9100", cfg.Port, "переменная окружения важнее файла")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "Нет секрета",
			env:  map[string]string{},
		},
		{
			name: "Короткий секрет в production",
			env:  map[string]string{"JWT_SECRET": "short", "APP_ENV": "production"},
		},
		{
			name: "Неизвестное хранилище",
			env:  map[string]string{"JWT_SECRET": "s", "STORAGE_BACKEND": "ftp"},
		},
		{
			name: "Только сертификат без ключа",
			env:  map[string]string{"JWT_SECRET": "s", "TLS_CERT_FILE": "cert.pem"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := config.Load("")
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
