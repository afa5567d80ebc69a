package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("正常系: デフォルト値で読み込み", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, "storefront_db", cfg.Database.Database)
		assert.Equal(t, "catalog.json", cfg.Catalog.Path)
		assert.Equal(t, "storefront-server", cfg.JWT.Issuer)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.AdminAPI.Enabled)
	})

	t.Run("正常系: 環境変数で上書き", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_HOST", "db.example.com")
		t.Setenv("CATALOG_PATH", "/etc/storefront/catalog.json")
		t.Setenv("REDIS_ENABLED", "true")
		t.Setenv("REDIS_BALANCE_TTL", "30s")
		t.Setenv("ADMIN_API_ENABLED", "true")
		t.Setenv("ADMIN_API_KEY", "admin-key")
		t.Setenv("ADMIN_API_ALLOWED_IPS", "10.0.0.1, 10.0.0.2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "db.example.com", cfg.Database.Host)
		assert.Equal(t, "/etc/storefront/catalog.json", cfg.Catalog.Path)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
		assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.AdminAPI.AllowedIPs)
	})

	t.Run("異常系: JWT_SECRET未設定", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("異常系: 管理API有効時にAPIキー未設定", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("ADMIN_API_ENABLED", "true")
		t.Setenv("ADMIN_API_KEY", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "password",
		Database: "storefront_db",
	}

	want := "root:password@tcp(localhost:3306)/storefront_db?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, want, cfg.DSN())
}

func TestRedisConfig_Address(t *testing.T) {
	cfg := &RedisConfig{Host: "localhost", Port: 6379}
	assert.Equal(t, "localhost:6379", cfg.Address())
}
