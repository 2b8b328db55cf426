package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.False(t, cfg.EventsEnabled)
	assert.NotEmpty(t, cfg.InstanceID)
	assert.Equal(t, cfg.InstanceID, cfg.Tracing.InstanceID)
	assert.Equal(t, 30*time.Second, cfg.JWT.Leeway)
	assert.Equal(t, "https://www.googleapis.com/books/v1", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INSTANCE_ID", "web-1")
	t.Setenv("CATALOG_API_KEY", "key")
	t.Setenv("CATALOG_HTTP_MAX_RETRIES", "4")
	t.Setenv("OTEL_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "web-1", cfg.InstanceID)
	assert.Equal(t, "key", cfg.Catalog.APIKey)
	assert.Equal(t, 4, cfg.HTTPClient.MaxRetries)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	assert.Equal(t, "production", cfg.Tracing.Environment)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "short secret in production", env: map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "short"}},
		{name: "bad port", env: map[string]string{"JWT_SECRET": "dev", "HTTP_PORT": "70000"}},
		{name: "unknown backend", env: map[string]string{"JWT_SECRET": "dev", "STORE_BACKEND": "sqlite"}},
		{name: "events on memory store", env: map[string]string{"JWT_SECRET": "dev", "EVENTS_ENABLED": "true"}},
		{name: "sample rate", env: map[string]string{"JWT_SECRET": "dev", "OTEL_SAMPLE_RATE": "1.5"}},
		{name: "negative retries", env: map[string]string{"JWT_SECRET": "dev", "CATALOG_HTTP_MAX_RETRIES": "-1"}},
		{name: "negative rate limit", env: map[string]string{"JWT_SECRET": "dev", "RATE_LIMIT_RPS": "-1"}},
		{name: "unparsable duration", env: map[string]string{"JWT_SECRET": "dev", "SHUTDOWN_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPostgresConfig(t *testing.T) {
	cfg := &Config{
		PostgresHost:          "db",
		PostgresPort:          5433,
		PostgresUser:          "u",
		PostgresPass:          "p",
		PostgresDB:            "reviews",
		PostgresSSL:           "require",
		DBMaxConnLifetimeMins: 2,
	}
	pg := cfg.PostgresConfig()
	assert.Equal(t, "postgres://u:p@db:5433/reviews?sslmode=require", pg.DSN())
	assert.Equal(t, 2*time.Minute, pg.MaxConnLifetime)
	assert.Equal(t, "db:6379", (&Config{RedisHost: "db", RedisPort: 6379}).RedisConfig().Addr())
}
