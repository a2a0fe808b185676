// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// DecodeData unwraps the data field of a success envelope into dst
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	require.True(t, envelope.Success, resp.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dst))
	}
}

// AssertAPIError checks status and error code of an error body and returns its details
func AssertAPIError(t *testing.T, resp *httptest.ResponseRecorder, status int, code apperrors.ErrorCode) apperrors.ErrorDetails {
	t.Helper()
	assert.Equal(t, status, resp.Code, resp.Body.String())

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	assert.Equal(t, code, body.Error.Code)
	assert.NotEmpty(t, body.Error.Timestamp)
	return body.Error
}

// AssertFeedSorted checks that items are ordered by key
func AssertFeedSorted(t *testing.T, items []recipe.FeedItem, key recipe.SortKey) {
	t.Helper()
	less, ok := recipe.ComparatorFor(key)
	require.True(t, ok, "unknown sort key %q", key)
	for i := 1; i < len(items); i++ {
		assert.False(t, less(items[i], items[i-1]),
			"item %d (%d) sorts before item %d (%d) by %s", i, items[i].ID, i-1, items[i-1].ID, key)
	}
}

// AssertUniqueIDs checks the feed never shows an id twice
func AssertUniqueIDs(t *testing.T, items []recipe.FeedItem) {
	t.Helper()
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		_, dup := seen[it.ID]
		assert.False(t, dup, "duplicate feed id %d", it.ID)
		seen[it.ID] = struct{}{}
	}
}
