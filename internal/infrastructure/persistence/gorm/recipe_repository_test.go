package gorm_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	gormrepo "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/fusionchef/test/testutils"
)

// RecipeRepositorySuite runs the repository against an in-memory sqlite database
type RecipeRepositorySuite struct {
	suite.Suite
	repo    *gormrepo.RecipeRepository
	factory *testutils.RecipeFactory
	ctx     context.Context
}

func (s *RecipeRepositorySuite) SetupTest() {
	db, err := sqlite.SetupDatabase(config.DatabaseConfig{
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(s.T().Name(), "/", "_")),
		LogLevel:   "silent",
	}, zap.NewNop())
	s.Require().NoError(err)

	s.T().Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s.repo = gormrepo.NewRecipeRepository(db)
	s.factory = testutils.NewRecipeFactory(42)
	s.ctx = context.Background()
}

func (s *RecipeRepositorySuite) save(name string) int64 {
	r := s.factory.Result()
	r.DishName = name
	id, err := s.repo.SaveRecipe(s.ctx, r)
	s.Require().NoError(err)
	return id.ID
}

func (s *RecipeRepositorySuite) TestSaveAndFetch() {
	in := s.factory.Result()
	id, err := s.repo.SaveRecipe(s.ctx, in)
	s.Require().NoError(err)
	s.Positive(id.ID)
	s.False(id.CreatedAt.IsZero())

	out, err := s.repo.FetchRecipeByID(s.ctx, id.ID)
	s.Require().NoError(err)
	s.Equal(in.DishName, out.DishName)
	s.Equal(in.SimilarRecipes, out.SimilarRecipes)
	s.Equal(in.ReferenceLinks, out.ReferenceLinks)
	s.Equal(recipe.Stats{}, out.CurrentStats())

	_, err = s.repo.FetchRecipeByID(s.ctx, 9999)
	s.ErrorIs(err, recipe.ErrRecipeNotFound)

	_, err = s.repo.SaveRecipe(s.ctx, recipe.Result{})
	s.ErrorIs(err, recipe.ErrMissingDishName)
}

func (s *RecipeRepositorySuite) TestVoteCountsFloorAtZero() {
	id := s.save("마라 떡볶이")

	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, id, 1, 0))
	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, id, -1, 1))
	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, id, -1, 0))
	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, id, 0, 0))

	r, err := s.repo.FetchRecipeByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(int64(0), r.CurrentStats().VoteSuccess)
	s.Equal(int64(1), r.CurrentStats().VoteFail)

	s.ErrorIs(s.repo.UpdateVoteCounts(s.ctx, 9999, 1, 0), recipe.ErrRecipeNotFound)
}

func (s *RecipeRepositorySuite) TestRatingDownloadsAndComments() {
	id := s.save("트러플 비빔밥")

	s.Require().NoError(s.repo.UpdateRating(s.ctx, id, 4))
	s.Require().NoError(s.repo.UpdateRating(s.ctx, id, 5))
	s.ErrorIs(s.repo.UpdateRating(s.ctx, id, 0), recipe.ErrInvalidScore)
	s.Require().NoError(s.repo.IncrementDownloadCount(s.ctx, id))

	first, err := s.repo.AddComment(s.ctx, s.factory.Comment(id))
	s.Require().NoError(err)
	second, err := s.repo.AddComment(s.ctx, s.factory.Comment(id))
	s.Require().NoError(err)

	_, err = s.repo.AddComment(s.ctx, s.factory.Comment(9999))
	s.ErrorIs(err, recipe.ErrRecipeNotFound)

	r, err := s.repo.FetchRecipeByID(s.ctx, id)
	s.Require().NoError(err)
	stats := r.CurrentStats()
	s.Equal("4.5", stats.AverageRating())
	s.Equal(int64(1), stats.DownloadCount)
	s.Equal(int64(2), stats.CommentCount)

	comments, err := s.repo.FetchComments(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(comments, 2)
	s.Equal(first.ID, comments[0].ID)
	s.Equal(second.ID, comments[1].ID)
}

func (s *RecipeRepositorySuite) TestFetchFeed() {
	a := s.save("김치 파스타")
	b := s.save("유자 샐러드")
	c := s.save("김치 피자")

	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, b, 3, 0))
	s.Require().NoError(s.repo.UpdateVoteCounts(s.ctx, a, 1, 0))
	s.Require().NoError(s.repo.UpdateRating(s.ctx, c, 5))

	s.Run("SuccessOrder", func() {
		items, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Sort: recipe.SortSuccess, PageSize: 10})
		s.Require().NoError(err)
		s.Require().Len(items, 3)
		s.Equal(b, items[0].ID)
		s.Equal(a, items[1].ID)
		testutils.AssertFeedSorted(s.T(), items, recipe.SortSuccess)
	})

	s.Run("RatingOrder", func() {
		items, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Sort: recipe.SortRating, PageSize: 10})
		s.Require().NoError(err)
		s.Equal(c, items[0].ID)
		s.Equal("5.0", items[0].AverageRating())
	})

	s.Run("SearchIsCaseInsensitiveSubstring", func() {
		items, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Search: "김치", Sort: recipe.SortLatest, PageSize: 10})
		s.Require().NoError(err)
		s.Len(items, 2)
		for _, it := range items {
			s.Contains(it.DishName, "김치")
		}
	})

	s.Run("Paging", func() {
		page0, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Sort: recipe.SortLatest, PageSize: 2})
		s.Require().NoError(err)
		page1, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Sort: recipe.SortLatest, Page: 1, PageSize: 2})
		s.Require().NoError(err)
		s.Len(page0, 2)
		s.Len(page1, 1)
		testutils.AssertUniqueIDs(s.T(), append(page0, page1...))
	})
}

func (s *RecipeRepositorySuite) TestSearchMatchesWildcardsLiterally() {
	percent := s.save("반값 50% 덮밥")
	s.save("500원 덮밥")
	underscore := s.save("a_b 볶음")
	s.save("axb 볶음")

	items, err := s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Search: "50%", Sort: recipe.SortLatest, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(percent, items[0].ID)

	items, err = s.repo.FetchFeed(s.ctx, recipe.FeedQuery{Search: "A_B", Sort: recipe.SortLatest, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(underscore, items[0].ID)
}

func TestRecipeRepositorySuite(t *testing.T) {
	suite.Run(t, new(RecipeRepositorySuite))
}

func TestSeedDatabase_Idempotent(t *testing.T) {
	db, err := sqlite.SetupDatabase(config.DatabaseConfig{
		SQLitePath: "file:seed_idempotent?mode=memory&cache=shared",
		LogLevel:   "silent",
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sqlite.SeedDatabase(db))
	require.NoError(t, sqlite.SeedDatabase(db))

	var count int64
	require.NoError(t, db.Model(&gormrepo.RecipeModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
