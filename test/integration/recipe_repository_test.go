//go:build integration

// Package integration provides integration tests using real database instances
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	gormRepo "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/fusionchef/test/testutils"
)

// RecipeRepositoryIntegrationTestSuite runs the GORM store against postgres
type RecipeRepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB        *testutils.TestDatabase
	repository    *gormRepo.RecipeRepository
	recipeFactory *testutils.RecipeFactory
	ctx           context.Context
}

// SetupSuite starts postgres and applies the embedded migrations
func (suite *RecipeRepositoryIntegrationTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.testDB = testutils.SetupTestDatabase(suite.T())
	require.NoError(suite.T(), suite.testDB.RunMigrations(), "Failed to run database migrations")

	suite.repository = gormRepo.NewRecipeRepository(suite.testDB.GormDB)
	suite.recipeFactory = testutils.NewRecipeFactory(time.Now().UnixNano())
}

// SetupTest prepares each test with clean database state
func (suite *RecipeRepositoryIntegrationTestSuite) SetupTest() {
	require.NoError(suite.T(), suite.testDB.TruncateAllTables(), "Failed to clean database")
}

func (suite *RecipeRepositoryIntegrationTestSuite) save(r recipe.Result) int64 {
	id, err := suite.repository.SaveRecipe(suite.ctx, r)
	require.NoError(suite.T(), err)
	return id.ID
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestSaveAndFetch() {
	original := suite.recipeFactory.Result()
	id := suite.save(original)

	got, err := suite.repository.FetchRecipeByID(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), original.DishName, got.DishName)
	assert.Equal(suite.T(), original.GourmetRecipe, got.GourmetRecipe)
	assert.Equal(suite.T(), original.SimilarRecipes, got.SimilarRecipes)
	assert.Equal(suite.T(), recipe.Stats{}, got.CurrentStats())

	_, err = suite.repository.FetchRecipeByID(suite.ctx, id+1000)
	assert.ErrorIs(suite.T(), err, recipe.ErrRecipeNotFound)
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestVoteCountsNeverNegative() {
	id := suite.save(suite.recipeFactory.Result())

	require.NoError(suite.T(), suite.repository.UpdateVoteCounts(suite.ctx, id, 1, 0))
	require.NoError(suite.T(), suite.repository.UpdateVoteCounts(suite.ctx, id, -1, 1))
	require.NoError(suite.T(), suite.repository.UpdateVoteCounts(suite.ctx, id, -1, 0))

	got, err := suite.repository.FetchRecipeByID(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), got.CurrentStats().VoteSuccess)
	assert.Equal(suite.T(), int64(1), got.CurrentStats().VoteFail)
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestRatingAndComments() {
	id := suite.save(suite.recipeFactory.Result())

	require.NoError(suite.T(), suite.repository.UpdateRating(suite.ctx, id, 4))
	require.NoError(suite.T(), suite.repository.UpdateRating(suite.ctx, id, 5))
	assert.ErrorIs(suite.T(), suite.repository.UpdateRating(suite.ctx, id, 6), recipe.ErrInvalidScore)

	c := suite.recipeFactory.Comment(id)
	saved, err := suite.repository.AddComment(suite.ctx, c)
	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), saved.ID)

	comments, err := suite.repository.FetchComments(suite.ctx, id)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), comments, 1)
	assert.Equal(suite.T(), c.Text, comments[0].Text)

	got, err := suite.repository.FetchRecipeByID(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "4.5", got.CurrentStats().AverageRating())
	assert.Equal(suite.T(), int64(1), got.CurrentStats().CommentCount)
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestFetchFeedOrderingAndPaging() {
	for i := 0; i < 5; i++ {
		id := suite.save(suite.recipeFactory.Result())
		for d := 0; d < i; d++ {
			require.NoError(suite.T(), suite.repository.IncrementDownloadCount(suite.ctx, id))
		}
	}

	first, err := suite.repository.FetchFeed(suite.ctx, recipe.FeedQuery{Sort: recipe.SortPopular, PageSize: 3})
	require.NoError(suite.T(), err)
	second, err := suite.repository.FetchFeed(suite.ctx, recipe.FeedQuery{Sort: recipe.SortPopular, Page: 1, PageSize: 3})
	require.NoError(suite.T(), err)

	assert.Len(suite.T(), first, 3)
	assert.Len(suite.T(), second, 2)
	all := append(first, second...)
	testutils.AssertFeedSorted(suite.T(), all, recipe.SortPopular)
	testutils.AssertUniqueIDs(suite.T(), all)
}

func TestRecipeRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RecipeRepositoryIntegrationTestSuite))
}
