package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

func TestDataURIStore(t *testing.T) {
	url, err := DataURIStore{}.Put(context.Background(), outbound.GeneratedImage{Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGk=", url)

	url, err = DataURIStore{}.Put(context.Background(), outbound.GeneratedImage{Data: []byte("hi"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	key := objectKey("/recipes/", "image/png", now)
	assert.True(t, strings.HasPrefix(key, "recipes/2024/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, objectKey("recipes", "image/png", now), "keys are unique")
}

func TestPublicURL(t *testing.T) {
	key := "recipes/2024/03/a.png"

	assert.Equal(t, "https://cdn.example.com/recipes/2024/03/a.png",
		publicURL(config.StorageConfig{PublicBaseURL: "https://cdn.example.com/"}, key))
	assert.Equal(t, "http://localhost:9000/images/recipes/2024/03/a.png",
		publicURL(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "images"}, key))
	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/recipes/2024/03/a.png",
		publicURL(config.StorageConfig{Bucket: "images", Region: "eu-west-1"}, key))
}

func TestNewImageStore_DefaultsToDataURIs(t *testing.T) {
	store, err := NewImageStore(config.StorageConfig{Provider: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, DataURIStore{}, store)
}
