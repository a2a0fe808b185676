package recipe

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite provides a test suite for the Result value and its aggregates
type RecipeTestSuite struct {
	suite.Suite
	base Result
}

func (suite *RecipeTestSuite) SetupTest() {
	suite.base = Result{
		DishName:       "김치 리조또",
		Comment:        "Creamy and sharp",
		SimilarRecipes: []SimilarRecipe{{Title: "김치볶음밥", Reason: "same base"}},
		ReferenceLinks: []ReferenceLink{{Title: "risotto", URL: "https://example.com"}},
	}
}

func (suite *RecipeTestSuite) TestCopiesAreIndependent() {
	suite.Run("Clone_DoesNotShareSlices", func() {
		c := suite.base.Clone()
		c.SimilarRecipes[0].Title = "changed"
		assert.Equal(suite.T(), "김치볶음밥", suite.base.SimilarRecipes[0].Title)
	})

	suite.Run("WithImage_LeavesOriginalUntouched", func() {
		withImage := suite.base.WithImage("https://cdn/img.png")
		assert.Empty(suite.T(), suite.base.ImageURL)
		assert.Equal(suite.T(), "https://cdn/img.png", withImage.ImageURL)
	})

	suite.Run("WithIdentity_StartsWithZeroStats", func() {
		saved := suite.base.WithIdentity(Identity{ID: 7, CreatedAt: time.Now()})
		require.True(suite.T(), saved.Persisted())
		assert.Equal(suite.T(), int64(7), saved.ID())
		assert.Equal(suite.T(), Stats{}, saved.CurrentStats())
		assert.False(suite.T(), suite.base.Persisted())
		assert.Zero(suite.T(), suite.base.ID())
	})
}

func (suite *RecipeTestSuite) TestValidate() {
	assert.NoError(suite.T(), suite.base.Validate())
	assert.ErrorIs(suite.T(), Result{}.Validate(), ErrMissingDishName)
}

func (suite *RecipeTestSuite) TestFeedItemProjection() {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := suite.base.WithIdentity(Identity{ID: 3, CreatedAt: created}).WithStats(Stats{RatingSum: 9, RatingCount: 2})

	item := r.FeedItem()
	assert.Equal(suite.T(), int64(3), item.ID)
	assert.Equal(suite.T(), created, item.CreatedAt)
	assert.Equal(suite.T(), "4.5", item.AverageRating())
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func TestStats_AverageRating(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  string
	}{
		{"Unrated", Stats{}, "0.0"},
		{"NineOverTwo", Stats{RatingSum: 9, RatingCount: 2}, "4.5"},
		{"Perfect", Stats{RatingSum: 15, RatingCount: 3}, "5.0"},
		{"RoundsToOneDecimal", Stats{RatingSum: 10, RatingCount: 3}, "3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.AverageRating())
		})
	}
}

func TestStats_ApplyVoteFloorsAtZero(t *testing.T) {
	s := Stats{VoteSuccess: 0, VoteFail: 2}
	s = s.ApplyVote(VoteDelta{Success: -1, Fail: 1})
	assert.Equal(t, int64(0), s.VoteSuccess)
	assert.Equal(t, int64(3), s.VoteFail)
}

func TestStats_ApplyRating(t *testing.T) {
	s := Stats{}.ApplyRating(4).ApplyRating(5)
	assert.Equal(t, int64(9), s.RatingSum)
	assert.Equal(t, int64(2), s.RatingCount)
	assert.Equal(t, "4.5", s.AverageRating())
}

func TestValidateScore(t *testing.T) {
	for score := MinScore; score <= MaxScore; score++ {
		assert.NoError(t, ValidateScore(score))
	}
	assert.ErrorIs(t, ValidateScore(0), ErrInvalidScore)
	assert.ErrorIs(t, ValidateScore(6), ErrInvalidScore)
}

func TestNormalizeCommentText(t *testing.T) {
	text, err := NormalizeCommentText("  맛있어요  ")
	require.NoError(t, err)
	assert.Equal(t, "맛있어요", text)

	_, err = NormalizeCommentText("   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	// The limit counts characters, not bytes.
	_, err = NormalizeCommentText(strings.Repeat("맛", MaxCommentLength))
	assert.NoError(t, err)
	_, err = NormalizeCommentText(strings.Repeat("a", MaxCommentLength+1))
	assert.ErrorIs(t, err, ErrCommentTooLong)
}
