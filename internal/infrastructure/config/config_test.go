package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "coltrade-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8000", cfg.App.Port)
		assert.Equal(t, "data", cfg.Data.Dir)
		assert.Equal(t, "login.json", cfg.Data.LoginFile)
		assert.Equal(t, 30*time.Second, cfg.Import.Cooldown)
		assert.Equal(t, "memory", cfg.Import.Backend)
		assert.False(t, cfg.Forecast.IncludeUncatalogued)
		assert.False(t, cfg.Storage.Enabled())
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, time.Now().Year(), cfg.Odoo.Year)
		assert.Equal(t, cfg.App.Name, cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with COLTRADE prefix", func(t *testing.T) {
		t.Setenv("COLTRADE_APP_PORT", "9000")
		t.Setenv("COLTRADE_DATA_DIR", "/srv/data")
		t.Setenv("COLTRADE_IMPORT_COOLDOWN", "45s")
		t.Setenv("COLTRADE_IMPORT_BACKEND", "redis")
		t.Setenv("COLTRADE_FORECAST_INCLUDE_UNCATALOGUED", "true")
		t.Setenv("COLTRADE_STORAGE_BUCKET", "exports")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "/srv/data", cfg.Data.Dir)
		assert.Equal(t, 45*time.Second, cfg.Import.Cooldown)
		assert.Equal(t, "redis", cfg.Import.Backend)
		assert.True(t, cfg.Forecast.IncludeUncatalogued)
		assert.True(t, cfg.Storage.Enabled())
	})

	t.Run("falls back to plain ODOO variables", func(t *testing.T) {
		t.Setenv("ODOO_URL", "https://erp.example.com")
		t.Setenv("ODOO_DB", "prod")
		t.Setenv("COLTRADE_ODOO_USERNAME", "bot@example.com")
		t.Setenv("ODOO_USERNAME", "ignored@example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://erp.example.com", cfg.Odoo.URL)
		assert.Equal(t, "prod", cfg.Odoo.DB)
		assert.Equal(t, "bot@example.com", cfg.Odoo.Username)
	})

	t.Run("rejects unknown import backend", func(t *testing.T) {
		t.Setenv("COLTRADE_IMPORT_BACKEND", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import.backend")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Setenv("COLTRADE_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("COLTRADE_APP_ENV", "production")
		t.Setenv("COLTRADE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("COLTRADE_COOKIE_SECURE", "true")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		t.Setenv("COLTRADE_APP_ENV", "production")
		t.Setenv("COLTRADE_COOKIE_SECURE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COLTRADE_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires secure cookies in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COLTRADE_COOKIE_SECURE", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cookie.secure must be true")
	})

	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("COLTRADE_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}
