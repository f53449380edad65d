package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:            "stockcount-archive",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Region:            "us-east-1",
		Endpoint:          "http://localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 15 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	cases := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		message string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}

	t.Run("valid config creates storage", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig(), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "stockcount-archive", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("zero presign expiration falls back to default", func(t *testing.T) {
		cfg := validConfig()
		cfg.PresignExpiration = 0
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
	})

	t.Run("option overrides presign expiration", func(t *testing.T) {
		s, err := NewS3ObjectStorage(validConfig(), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		expected string
	}{
		{"", false, defaultEndpoint},
		{"localhost:9000", false, "http://localhost:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestS3ObjectStorage_DownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("presigns a path-style GET", func(t *testing.T) {
		before := time.Now()
		u, expiresAt, err := s.DownloadURL(ctx, "counts/t/IC-20260101-0001/snapshot.json", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "http://localhost:9000/stockcount-archive/counts/t/IC-20260101-0001/snapshot.json?"), u)
		assert.Contains(t, u, "X-Amz-Signature=")
		assert.Contains(t, u, "X-Amz-Expires=900")
		assert.WithinDuration(t, before.Add(15*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		_, _, err := s.DownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
	})
}

func TestS3ObjectStorage_Upload_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(validConfig())
	require.NoError(t, err)

	err = s.Upload(context.Background(), "", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage key is required")
}

// Runs against a local MinIO/RustFS when STOCKCOUNT_S3_TEST_ENDPOINT is set.
func TestS3ObjectStorage_Live(t *testing.T) {
	endpoint := os.Getenv("STOCKCOUNT_S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("set STOCKCOUNT_S3_TEST_ENDPOINT to run against a live S3 endpoint")
	}
	cfg := validConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "stockcount-test"
	cfg.AccessKey = os.Getenv("STOCKCOUNT_S3_TEST_ACCESS_KEY")
	cfg.SecretKey = os.Getenv("STOCKCOUNT_S3_TEST_SECRET_KEY")

	s, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.Upload(ctx, "live/snapshot.json", []byte(`{"ok":true}`), "application/json"))
	require.NoError(t, s.Ping(ctx))
}
