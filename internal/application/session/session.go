// Package session ties the wizard together: choices, recipe history, navigation,
// generation, the community feed and engagement of one browser tab.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/application/engagement"
	"github.com/alchemorsel/fusionchef/internal/application/feed"
	"github.com/alchemorsel/fusionchef/internal/application/generation"
	"github.com/alchemorsel/fusionchef/internal/application/navigation"
	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	domain "github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/domain/shared"
	"github.com/alchemorsel/fusionchef/internal/domain/user"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// ErrSuperseded is returned by Generate when the session moved on before the result arrived
var ErrSuperseded = errors.New("generation result discarded")

// Dependencies are shared by every session of a registry
type Dependencies struct {
	Generator  *generation.Service
	Ideas      outbound.IdeaService
	Recipes    outbound.RecipeStore
	Snapshots  outbound.SnapshotStore
	Publisher  outbound.EventPublisher
	Metrics    outbound.Metrics
	NewHistory func() outbound.HistoryStack

	Navigation navigation.Config
	Feed       feed.Config
	Logger     *zap.Logger
}

// Session is the server-side state of one wizard
type Session struct {
	id string

	mu          sync.Mutex
	choices     domain.UserChoices
	history     *domain.RecipeHistory
	user        *user.User
	community   *recipe.Result
	notice      string
	generating  bool
	seq         uint64
	suggestions recipe.Suggestions
	seasonal    ideaList
	convenience ideaList
	category    recipe.Category

	nav        *navigation.Controller
	feed       *feed.Controller
	engagement *engagement.Service
	deps       Dependencies
	logger     *zap.Logger
}

// ideaList accumulates picks across "show more" requests. Seen names are sent as
// exclusions so the generator does not repeat itself.
type ideaList struct {
	items []recipe.Idea
	seen  []string
}

func (l *ideaList) merge(items []recipe.Idea, more bool) {
	if !more {
		l.items = nil
	}
	for _, it := range items {
		l.items = append(l.items, it)
		l.seen = append(l.seen, it.Name)
	}
}

// New creates a session at (Welcome, home)
func New(id string, deps Dependencies) *Session {
	s := &Session{
		id:       id,
		choices:  domain.DefaultChoices(),
		history:  domain.NewRecipeHistory(),
		category: recipe.CategoryMeal,
		deps:     deps,
		logger:   deps.Logger.With(zap.String("session_id", id)),
	}
	s.nav = navigation.NewController(deps.NewHistory(), deps.Snapshots, deps.Navigation, s.onNavigation, s.logger)
	s.feed = feed.NewController(deps.Recipes, deps.Feed, deps.Metrics, s.onFeedUpdate, s.logger)
	s.engagement = engagement.NewService(deps.Recipes, deps.Metrics, s.logger)
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Feed exposes the community feed controller
func (s *Session) Feed() *feed.Controller {
	return s.feed
}

// Navigation exposes the navigation controller
func (s *Session) Navigation() *navigation.Controller {
	return s.nav
}

// Close releases timers held by the session
func (s *Session) Close() {
	s.feed.Close()
}

// UpdateChoices applies a partial update of the user's picks
func (s *Session) UpdateChoices(p domain.ChoicesPatch) domain.UserChoices {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choices.Apply(p)
	return s.choices.Clone()
}

// Next applies a forward event of the current screen
func (s *Session) Next(event domain.Event) error {
	if event == domain.EventReset {
		s.Reset()
		return nil
	}
	cur := s.nav.Current()
	if _, ok := domain.NextStep(cur.Step, event); !ok {
		return apperrors.NewInvalidTransitionError(string(cur.Step), string(event))
	}
	if mode, ok := event.ModeFor(); ok {
		s.mu.Lock()
		s.choices.Mode = mode
		s.mu.Unlock()
	}
	return s.nav.Next(event)
}

// Back returns to the previous screen
func (s *Session) Back() {
	s.mu.Lock()
	mode := s.choices.Mode
	s.mu.Unlock()
	s.nav.Back(mode)
}

// SelectTab switches the bottom tab. Opening the community tab attaches the feed and
// loads the first page once.
func (s *Session) SelectTab(ctx context.Context, tab domain.Tab) {
	s.nav.SelectTab(tab)
	if tab != domain.TabCommunity {
		s.feed.Detach()
		return
	}
	s.feed.Attach()
	if !s.feed.Loaded() {
		_ = s.feed.Reload(ctx)
	}
}

// SubmitIngredients fetches side ingredient and sauce suggestions for the typed
// ingredients, then moves on. A failed lookup leaves the suggestions empty.
func (s *Session) SubmitIngredients(ctx context.Context) error {
	s.mu.Lock()
	ingredients := s.choices.Ingredients
	s.mu.Unlock()

	if strings.TrimSpace(ingredients) == "" {
		return apperrors.NewValidationError("ingredients are required")
	}
	sugg := s.deps.Ideas.FetchSuggestions(ctx, ingredients)

	s.mu.Lock()
	s.suggestions = sugg
	s.mu.Unlock()
	return s.Next(domain.EventSubmit)
}

// LoadSeasonal fetches seasonal ingredients. With more the new picks are appended and
// everything offered before is excluded.
func (s *Session) LoadSeasonal(ctx context.Context, more bool) []recipe.Idea {
	s.mu.Lock()
	if !more {
		s.seasonal = ideaList{}
	}
	exclude := append([]string(nil), s.seasonal.seen...)
	s.mu.Unlock()

	items := s.deps.Ideas.FetchSeasonalIngredients(ctx, exclude)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seasonal.merge(items, more)
	return append([]recipe.Idea(nil), s.seasonal.items...)
}

// LoadConvenience fetches convenience-store combos for a category. Switching the
// category starts a fresh list.
func (s *Session) LoadConvenience(ctx context.Context, category recipe.Category, more bool) []recipe.Idea {
	s.mu.Lock()
	if !more || category != s.category {
		s.convenience = ideaList{}
		more = false
	}
	s.category = category
	exclude := append([]string(nil), s.convenience.seen...)
	s.mu.Unlock()

	items := s.deps.Ideas.FetchConvenienceTopics(ctx, exclude, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.convenience.merge(items, more)
	return append([]recipe.Idea(nil), s.convenience.items...)
}

// SelectConvenience generates a recipe for the picked combo
func (s *Session) SelectConvenience(ctx context.Context, name string) (*generation.Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("combo name is required")
	}
	s.mu.Lock()
	s.choices.Mode = domain.ModeConvenience
	s.mu.Unlock()
	return s.Generate(ctx, false, &name)
}

// Generate runs the recipe pipeline for the current choices. The spinner replaces the
// current history entry; on success the recipe is appended and Result is pushed. A
// fatal error returns to Welcome with a notice.
func (s *Session) Generate(ctx context.Context, isRegenerate bool, override *string) (*generation.Outcome, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError("A recipe is already being generated")
	}
	s.generating = true
	s.seq++
	seq := s.seq
	s.notice = ""
	choices := s.choices.Clone()
	s.mu.Unlock()

	s.nav.NavigateTo(domain.Entry(domain.StepLoading, domain.TabHome), navigation.Replace)

	out, err := s.deps.Generator.Generate(ctx, choices, isRegenerate, override)

	stillLoading := s.nav.Current().Step == domain.StepLoading
	s.mu.Lock()
	if seq != s.seq || !stillLoading {
		// a reset already released the flag; it may belong to a newer run by now
		if seq == s.seq {
			s.generating = false
		}
		s.mu.Unlock()
		s.logger.Info("Discarding generation result, session moved on")
		return nil, ErrSuperseded
	}
	s.generating = false
	if err != nil {
		s.notice = apperrors.Wrap(err, "generation failed").Message
		notice := s.notice
		s.mu.Unlock()

		s.nav.NavigateTo(domain.Home(), navigation.Replace)
		s.publish(recipe.GenerationFailedEvent{
			Notice:   notice,
			TimedOut: apperrors.Is(err, apperrors.CodeGenerationTimedOut),
			FailedAt: time.Now(),
		})
		return nil, err
	}
	idx := s.history.Append(out.Recipe)
	key := s.history.KeyAt(idx)
	s.mu.Unlock()

	entry := domain.Entry(domain.StepResult, domain.TabHome)
	entry.RecipeIndex = idx
	entry.RecipeKey = key
	s.nav.NavigateTo(entry, navigation.Push)

	s.publish(recipe.RecipeGeneratedEvent{
		DishName:     out.Recipe.DishName,
		RecipeID:     out.Recipe.ID(),
		Saved:        out.Saved,
		HasImage:     out.Recipe.ImageURL != "",
		Regenerated:  isRegenerate,
		HistoryIndex: idx,
		GeneratedAt:  time.Now(),
	})
	return out, nil
}

// PreviousRecipe moves the history cursor back and shows that recipe
func (s *Session) PreviousRecipe() bool {
	return s.moveRecipe((*domain.RecipeHistory).Back)
}

// NextRecipe moves the history cursor forward and shows that recipe
func (s *Session) NextRecipe() bool {
	return s.moveRecipe((*domain.RecipeHistory).Forward)
}

func (s *Session) moveRecipe(move func(*domain.RecipeHistory) bool) bool {
	s.mu.Lock()
	if !move(s.history) {
		s.mu.Unlock()
		return false
	}
	idx := s.history.CurrentIndex()
	key := s.history.KeyAt(idx)
	s.mu.Unlock()

	cur := s.nav.Current()
	if cur.Step == domain.StepResult {
		entry := cur
		entry.RecipeIndex = idx
		entry.RecipeKey = key
		s.nav.NavigateTo(entry, navigation.Replace)
	}
	return true
}

// OpenCommunityRecipe loads a persisted recipe for the community detail view
func (s *Session) OpenCommunityRecipe(ctx context.Context, id int64) (*recipe.Result, error) {
	r, err := s.deps.Recipes.FetchRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, apperrors.NewRecipeNotFoundError(id)
		}
		return nil, apperrors.Wrap(err, "Failed to load recipe")
	}
	s.mu.Lock()
	c := r.Clone()
	s.community = &c
	s.mu.Unlock()
	return r, nil
}

// CloseCommunityRecipe leaves the community detail view
func (s *Session) CloseCommunityRecipe() {
	s.mu.Lock()
	s.community = nil
	s.mu.Unlock()
}

// Reset returns to Welcome. Choices and generated recipes are kept, a running
// generation is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	s.seq++
	s.generating = false
	s.suggestions = recipe.Suggestions{}
	s.seasonal = ideaList{}
	s.convenience = ideaList{}
	s.mu.Unlock()
	s.nav.NavigateTo(domain.Home(), navigation.Replace)
}

// PrepareRedirect snapshots the recipe history before an external login and returns
// the nonce to carry through the redirect
func (s *Session) PrepareRedirect(ctx context.Context) (string, error) {
	s.mu.Lock()
	snap := s.history.Snapshot()
	s.mu.Unlock()
	return s.nav.PrepareRedirect(ctx, snap)
}

// RestoreAfterRedirect installs the snapshot stored under nonce, at most once
func (s *Session) RestoreAfterRedirect(ctx context.Context, nonce string) bool {
	return s.nav.RestoreAfterRedirect(ctx, nonce, func(snap domain.Snapshot) int {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.history.Restore(snap)
		return s.history.CurrentIndex()
	})
}

// OnRestore adopts an entry reported by the client's popstate
func (s *Session) OnRestore(entry *domain.NavigationEntry) {
	s.nav.OnRestore(entry)
}

// SetUser records the signed-in user, nil on sign out
func (s *Session) SetUser(u *user.User) {
	s.mu.Lock()
	prev := s.user
	s.user = u
	s.mu.Unlock()

	if prev == nil && u == nil {
		return
	}
	if prev != nil && u != nil && prev.ID == u.ID {
		return
	}
	s.publish(user.AuthChangedEvent{User: u, SignedIn: u != nil, ChangedAt: time.Now()})
}

// User returns the signed-in user
func (s *Session) User() *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) onNavigation(entry domain.NavigationEntry, restored bool) {
	if restored && entry.Step == domain.StepResult && entry.RecipeIndex != domain.NoRecipe {
		if fixed, ok := s.selectRestored(entry); !ok {
			// the recipe this entry showed was dropped by a later generation
			s.nav.NavigateTo(fixed, navigation.Replace)
			return
		}
	}
	s.publish(domain.NavigationChangedEvent{Entry: entry, Restored: restored, ChangedAt: time.Now()})
}

// selectRestored moves the history cursor to the recipe a restored entry names. When
// that recipe is gone the cursor stays and the returned entry describes it instead.
func (s *Session) selectRestored(entry domain.NavigationEntry) (domain.NavigationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.history.Resolve(entry.RecipeIndex, entry.RecipeKey); ok {
		s.history.Select(idx)
		if idx == entry.RecipeIndex {
			return entry, true
		}
		fixed := entry
		fixed.RecipeIndex = idx
		return fixed, false
	}
	cur := s.history.CurrentIndex()
	if cur < 0 {
		return domain.Home(), false
	}
	fixed := entry
	fixed.RecipeIndex = cur
	fixed.RecipeKey = s.history.KeyAt(cur)
	s.logger.Debug("Restored entry points at a dropped recipe, showing the current one",
		zap.Int("recipe_index", entry.RecipeIndex),
		zap.Int("current_index", cur))
	return fixed, false
}

func (s *Session) onFeedUpdate(st feed.State) {
	s.publish(domain.FeedUpdatedEvent{
		Items:     len(st.Items),
		Page:      st.Page,
		HasMore:   st.HasMore,
		Failed:    st.Err != "",
		UpdatedAt: time.Now(),
	})
}

func (s *Session) publish(e shared.DomainEvent) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.Publish(context.Background(), s.id, e); err != nil {
		s.logger.Debug("Failed to publish session event", zap.String("event", e.EventName()), zap.Error(err))
	}
}
