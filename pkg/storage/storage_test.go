package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageExtension(t *testing.T) {
	tests := []struct {
		ct   string
		ext  string
		okay bool
	}{
		{"image/jpeg", ".jpg", true},
		{"IMAGE/PNG", ".png", true},
		{"image/webp; charset=binary", ".webp", true},
		{"image/gif", ".gif", true},
		{"image/svg+xml", "", false},
		{"application/pdf", "", false},
	}
	for _, tt := range tests {
		ext, ok := ImageExtension(tt.ct)
		assert.Equal(t, tt.okay, ok, tt.ct)
		assert.Equal(t, tt.ext, ext, tt.ct)
	}
}

func TestProductImageKey(t *testing.T) {
	a, b := ProductImageKey(".png"), ProductImageKey(".png")
	assert.True(t, strings.HasPrefix(a, "products/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.ErrorContains(t, err, "S3_BUCKET")
	assert.False(t, S3Config{}.Enabled())
}

func TestS3Store_URL(t *testing.T) {
	s, err := NewS3(context.Background(), S3Config{
		Bucket:   "shop",
		Key:      "k",
		Secret:   "s",
		Endpoint: "http://localhost:9000",
		BaseURL:  "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/a.png", s.URL("products/a.png"))
}
