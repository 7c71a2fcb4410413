package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_ENABLED", "not-a-bool")
	t.Setenv("AUTH_BCRYPT_COST", "x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	app := AppConfig{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, app.AllowedOrigins())
}

func TestDurations(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, time.Hour, EvidenceConfig{}.SweepGrace())
	assert.Equal(t, 5*time.Minute, EvidenceConfig{SweepGraceMinutes: 5}.SweepGrace())
}
