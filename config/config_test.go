package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	unsetEnv(t, "PORT", "AWS_REGION", "CORS_ALLOWED_ORIGINS", "WS_WRITE_TIMEOUT",
		"WS_PONG_TIMEOUT", "WS_SEND_BUFFER", "WS_MAX_MESSAGE_BYTES", "MAX_PAGE_SIZE")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.WSPongTimeout)
	assert.Equal(t, 64, cfg.WSSendBuffer)
	assert.Equal(t, int64(8192), cfg.WSMaxMessageBytes)
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://localhost/rentyatra_test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://rentyatra.in,https://admin.rentyatra.in")
	t.Setenv("WS_WRITE_TIMEOUT", "3s")
	t.Setenv("MAX_PAGE_SIZE", "20")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://rentyatra.in", "https://admin.rentyatra.in"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 20, cfg.MaxPageSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{DatabaseURL: "x", WSSendBuffer: 1, MaxPageSize: 1}, false},
		{"missing database url", Config{WSSendBuffer: 1, MaxPageSize: 1}, true},
		{"zero send buffer", Config{DatabaseURL: "x", MaxPageSize: 1}, true},
		{"zero page size", Config{DatabaseURL: "x", WSSendBuffer: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	assert.True(t, (&Config{GoEnv: "production"}).IsProduction())
	assert.True(t, (&Config{GoEnv: "test"}).IsTest())
	assert.True(t, (&Config{GoEnv: "development"}).IsDevelopment())
	assert.False(t, (&Config{AWSS3Bucket: "b"}).S3Enabled())
	assert.True(t, (&Config{AWSS3Bucket: "b", AWSAccessKeyID: "k", AWSSecretAccessKey: "s"}).S3Enabled())
}

// unsetEnv clears the given variables for the duration of the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}
