package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CATALOGUE_CACHE_TTL", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 2*time.Minute, cfg.CatalogueCacheTTL)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.IsProduction())
}
