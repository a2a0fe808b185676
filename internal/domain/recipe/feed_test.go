package recipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []FeedItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestParseSortKey(t *testing.T) {
	for _, k := range SortKeys {
		got, err := ParseSortKey(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseSortKey("views")
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}

func TestSortItems(t *testing.T) {
	now := time.Now()

	t.Run("LatestBreaksTimestampTiesByID", func(t *testing.T) {
		items := []FeedItem{
			{ID: 1, CreatedAt: now},
			{ID: 3, CreatedAt: now},
			{ID: 2, CreatedAt: now.Add(time.Minute)},
		}
		SortItems(items, SortLatest)
		assert.Equal(t, []int64{2, 3, 1}, ids(items))
	})

	t.Run("RatingTreatsUnratedAsZeroAndBreaksTiesByCount", func(t *testing.T) {
		items := []FeedItem{
			{ID: 1, Stats: Stats{}},
			{ID: 2, Stats: Stats{RatingSum: 4, RatingCount: 1}},
			{ID: 3, Stats: Stats{RatingSum: 8, RatingCount: 2}},
			{ID: 4, Stats: Stats{RatingSum: 9, RatingCount: 2}},
		}
		SortItems(items, SortRating)
		assert.Equal(t, []int64{4, 3, 2, 1}, ids(items))
	})

	t.Run("SuccessCommentsPopular", func(t *testing.T) {
		items := []FeedItem{
			{ID: 1, Stats: Stats{VoteSuccess: 1, CommentCount: 9, DownloadCount: 5}},
			{ID: 2, Stats: Stats{VoteSuccess: 5, CommentCount: 1, DownloadCount: 9}},
			{ID: 3, Stats: Stats{VoteSuccess: 3, CommentCount: 4, DownloadCount: 1}},
		}
		SortItems(items, SortSuccess)
		assert.Equal(t, []int64{2, 3, 1}, ids(items))
		SortItems(items, SortComments)
		assert.Equal(t, []int64{1, 3, 2}, ids(items))
		SortItems(items, SortPopular)
		assert.Equal(t, []int64{2, 1, 3}, ids(items))
	})

	t.Run("StableForEqualKeys", func(t *testing.T) {
		items := []FeedItem{{ID: 5}, {ID: 1}, {ID: 9}}
		SortItems(items, SortSuccess)
		assert.Equal(t, []int64{5, 1, 9}, ids(items))
	})

	t.Run("UnknownKeyKeepsOrder", func(t *testing.T) {
		items := []FeedItem{{ID: 2}, {ID: 1}}
		SortItems(items, SortKey("nope"))
		assert.Equal(t, []int64{2, 1}, ids(items))
	})
}

func TestFeedQuery_Paging(t *testing.T) {
	q := FeedQuery{Page: 2}
	assert.Equal(t, DefaultPageSize, q.Limit())
	assert.Equal(t, 2*DefaultPageSize, q.Offset())

	q = FeedQuery{Page: 3, PageSize: 4}
	assert.Equal(t, 12, q.Offset())
}
