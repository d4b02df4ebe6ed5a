package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	base := func(t *testing.T) {
		for _, k := range []string{
			"APP_ENV", "DATABASE_URL", "JWT_SECRET", "ANON_COOKIE_SECRET", "REDIS_URL",
			"SEARCH_PROVIDERS", "CACHE_FEED_MAX_BYTES", "CACHE_MAX_BYTES", "UPSTREAM_TIMEOUT",
			"SEARCH_DEFAULT_LIMIT", "SEARCH_MAX_LIMIT", "RL_ENABLED",
		} {
			t.Setenv(k, "")
		}
	}

	t.Run("should_return_error_if_database_url_is_missing", func(t *testing.T) {
		base(t)
		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.EqualError(t, err, "missing DATABASE_URL")
	})

	t.Run("should_return_error_if_jwt_secret_is_missing", func(t *testing.T) {
		base(t)
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.EqualError(t, err, "missing JWT_SECRET")
	})

	t.Run("should_load_defaults", func(t *testing.T) {
		base(t)
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "dev", cfg.AppEnv)
		assert.Equal(t, "", cfg.RedisURL)
		assert.Equal(t, 64*1024, cfg.CacheFeedMaxBytes)
		assert.Equal(t, 512*1024, cfg.CacheMaxBytes)
		assert.Equal(t, 4*time.Second, cfg.UpstreamTimeout)
		assert.Empty(t, cfg.SearchProviders)
		assert.True(t, cfg.RLEnabled)
	})

	t.Run("should_parse_search_providers", func(t *testing.T) {
		base(t)
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SEARCH_PROVIDERS", "shopping=http://a.local/search, visual=http://b.local/q")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []Provider{
			{Name: "shopping", URL: "http://a.local/search"},
			{Name: "visual", URL: "http://b.local/q"},
		}, cfg.SearchProviders)
	})

	t.Run("should_reject_malformed_provider", func(t *testing.T) {
		base(t)
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SEARCH_PROVIDERS", "shopping")

		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.Error(t, err)
	})

	t.Run("should_fail_in_prod_without_anon_secret", func(t *testing.T) {
		base(t)
		t.Setenv("APP_ENV", "prod")
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.Error(t, err)
	})

	t.Run("should_fall_back_on_unparsable_values", func(t *testing.T) {
		base(t)
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("UPSTREAM_TIMEOUT", "soon")
		t.Setenv("CACHE_FEED_MAX_BYTES", "lots")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 4*time.Second, cfg.UpstreamTimeout)
		assert.Equal(t, 64*1024, cfg.CacheFeedMaxBytes)
	})
}
