package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/leadflow/internal/entity"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORAGE_DRIVER", "JWT_TTL_HOURS", "LEAD_STRICT_TRANSITIONS", "LEAD_MAX_NOTES", "MAIL_HOST"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.LeadStrictTransitions)
	assert.Equal(t, entity.MaxNotesPerLead, cfg.LeadMaxNotes)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	t.Setenv("USER_CACHE_TTL", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("LEAD_STRICT_TRANSITIONS", "false")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("MAIL_HOST", "smtp.example.com")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.LeadStrictTransitions)
	assert.Equal(t, 7, cfg.RateLimitBurst)
	assert.True(t, cfg.Mail.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorageDriver:      DriverPostgres,
			DatabaseURL:        "postgres://localhost/leads",
			JWTSecret:          "secret",
			JWTTTL:             time.Hour,
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
		}
	}

	assert.NoError(t, valid().Validate())

	noSecret := valid()
	noSecret.JWTSecret = ""
	assert.ErrorContains(t, noSecret.Validate(), "JWT_SECRET")

	noDB := valid()
	noDB.DatabaseURL = ""
	assert.ErrorContains(t, noDB.Validate(), "DATABASE_URL")

	memory := valid()
	memory.StorageDriver = DriverMemory
	memory.DatabaseURL = ""
	assert.NoError(t, memory.Validate())

	unknown := valid()
	unknown.StorageDriver = "sqlite"
	assert.ErrorContains(t, unknown.Validate(), "STORAGE_DRIVER")
}
