package navigation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/cache"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/history"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/memory"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

type change struct {
	entry    session.NavigationEntry
	restored bool
}

// ControllerTestSuite drives the controller against a real in-process history stack
type ControllerTestSuite struct {
	suite.Suite
	stack     *history.Stack
	cacheRepo *memory.CacheRepository
	snapshots *cache.SnapshotStore
	changes   []change
	ctrl      *Controller
}

func (s *ControllerTestSuite) SetupTest() {
	s.stack = history.NewStack()
	s.cacheRepo = memory.NewCacheRepository()
	s.snapshots = cache.NewSnapshotStore(s.cacheRepo)
	s.changes = nil
	s.ctrl = NewController(s.stack, s.snapshots, Config{SnapshotTTL: time.Minute},
		func(e session.NavigationEntry, restored bool) {
			s.changes = append(s.changes, change{e, restored})
		}, zap.NewNop())
}

func (s *ControllerTestSuite) TearDownTest() {
	_ = s.cacheRepo.Close()
}

func (s *ControllerTestSuite) steps() []session.Step {
	var out []session.Step
	for _, e := range s.stack.Entries() {
		out = append(out, e.Step)
	}
	return out
}

func (s *ControllerTestSuite) walkToIngredients() {
	s.Require().NoError(s.ctrl.Next(session.EventStart))
	s.Require().NoError(s.ctrl.Next(session.EventChooseFridge))
	s.Equal(session.StepIngredients, s.ctrl.Current().Step)
}

func (s *ControllerTestSuite) TestSeededWithHome() {
	s.Equal(session.Home(), s.ctrl.Current())
	s.Equal([]session.Step{session.StepWelcome}, s.steps())
}

func (s *ControllerTestSuite) TestLoadingNeverStaysInBackStack() {
	s.walkToIngredients()

	s.ctrl.NavigateTo(session.Entry(session.StepLoading, session.TabHome), Push)
	s.Equal([]session.Step{session.StepWelcome, session.StepModeSelection, session.StepLoading}, s.steps(),
		"loading overwrites the current slot even when asked to push")

	result := session.Entry(session.StepResult, session.TabHome)
	result.RecipeIndex = 0
	s.ctrl.NavigateTo(result, Push)
	s.Equal([]session.Step{session.StepWelcome, session.StepModeSelection, session.StepIngredients, session.StepResult}, s.steps())
	for _, e := range s.stack.Entries() {
		s.NotEqual(session.StepLoading, e.Step)
	}

	s.ctrl.Back(session.ModeFridge)
	s.Equal(session.StepIngredients, s.ctrl.Current().Step)
	last := s.changes[len(s.changes)-1]
	s.True(last.restored)
}

func (s *ControllerTestSuite) TestLoadingToWelcomeOnFailure() {
	s.walkToIngredients()
	s.ctrl.NavigateTo(session.Entry(session.StepLoading, session.TabHome), Replace)
	s.ctrl.NavigateTo(session.Home(), Replace)

	s.Equal(session.Home(), s.ctrl.Current())
	s.NotContains(s.steps(), session.StepLoading)
}

func (s *ControllerTestSuite) TestBackDependsOnMode() {
	s.Require().NoError(s.ctrl.Next(session.EventStart))
	s.Require().NoError(s.ctrl.Next(session.EventChooseSeasonal))
	s.Require().NoError(s.ctrl.Next(session.EventSubmit))
	s.Equal(session.StepCuisineSelection, s.ctrl.Current().Step)

	s.ctrl.Back(session.ModeSeasonal)
	s.Equal(session.StepSeasonalSelection, s.ctrl.Current().Step)
	s.True(s.changes[len(s.changes)-1].restored, "platform back is used when it lands on the predecessor")

	s.Require().NoError(s.ctrl.Next(session.EventSubmit))
	s.ctrl.Back(session.ModeFridge)
	s.Equal(session.StepIngredients, s.ctrl.Current().Step)
}

func (s *ControllerTestSuite) TestBackIgnoredWhileLoading() {
	s.walkToIngredients()
	s.ctrl.NavigateTo(session.Entry(session.StepLoading, session.TabHome), Replace)
	s.ctrl.Back(session.ModeFridge)
	s.Equal(session.StepLoading, s.ctrl.Current().Step)
}

func (s *ControllerTestSuite) TestInvalidTransition() {
	err := s.ctrl.Next(session.EventSubmit)
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeInvalidTransition))
	s.Equal(session.StepWelcome, s.ctrl.Current().Step)
}

func (s *ControllerTestSuite) TestSelectTabResumesLastHomeScreen() {
	s.walkToIngredients()
	s.ctrl.SelectTab(session.TabCommunity)
	s.Equal(session.Entry(session.StepCommunity, session.TabCommunity), s.ctrl.Current())

	s.ctrl.SelectTab(session.TabCommunity)
	s.Equal(4, s.stack.Len(), "selecting the active tab is a no-op")

	s.ctrl.SelectTab(session.TabHome)
	s.Equal(session.StepIngredients, s.ctrl.Current().Step)
}

func (s *ControllerTestSuite) TestGoBackWithEmptyStackResetsHome() {
	s.ctrl.GoBack()
	s.Equal(session.Home(), s.ctrl.Current())
}

func (s *ControllerTestSuite) TestRedirectSnapshotIsSingleUse() {
	ctx := context.Background()
	snap := session.Snapshot{
		History:      []recipe.Result{{DishName: "a"}, {DishName: "b"}},
		CurrentIndex: 1,
	}
	nonce, err := s.ctrl.PrepareRedirect(ctx, snap)
	s.Require().NoError(err)
	s.NotEmpty(nonce)

	applied := 0
	apply := func(got session.Snapshot) int {
		applied++
		s.Len(got.History, 2)
		return got.CurrentIndex
	}

	s.True(s.ctrl.RestoreAfterRedirect(ctx, nonce, apply))
	s.Equal(session.StepResult, s.ctrl.Current().Step)
	s.Equal(1, s.ctrl.Current().RecipeIndex)

	s.False(s.ctrl.RestoreAfterRedirect(ctx, nonce, apply))
	s.False(s.ctrl.RestoreAfterRedirect(ctx, "", apply))
	s.Equal(1, applied)
}

func (s *ControllerTestSuite) TestRedirectWithEmptyHistoryGoesHome() {
	ctx := context.Background()
	nonce, err := s.ctrl.PrepareRedirect(ctx, session.Snapshot{CurrentIndex: -1})
	s.Require().NoError(err)

	s.True(s.ctrl.RestoreAfterRedirect(ctx, nonce, func(session.Snapshot) int { return -1 }))
	s.Equal(session.Home(), s.ctrl.Current())
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func TestController_RestrictedStackNavigatesInMemory(t *testing.T) {
	repo := memory.NewCacheRepository()
	defer repo.Close()

	ctrl := NewController(history.NewRestrictedStack(), cache.NewSnapshotStore(repo), Config{}, nil, zap.NewNop())
	require.NoError(t, ctrl.Next(session.EventStart))
	assert.Equal(t, session.StepModeSelection, ctrl.Current().Step)

	ctrl.Back(session.ModeFridge)
	assert.Equal(t, session.StepWelcome, ctrl.Current().Step)

	ctrl.OnRestore(nil)
	assert.Equal(t, session.Home(), ctrl.Current())
}
