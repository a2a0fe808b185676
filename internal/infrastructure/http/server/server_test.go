package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/application/feed"
	"github.com/alchemorsel/fusionchef/internal/application/generation"
	"github.com/alchemorsel/fusionchef/internal/application/navigation"
	"github.com/alchemorsel/fusionchef/internal/application/session"
	aimock "github.com/alchemorsel/fusionchef/internal/infrastructure/ai/mock"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/cache"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/history"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/security"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/storage"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
	"github.com/alchemorsel/fusionchef/test/testutils"
)

// flakyVotes fails every vote write
type flakyVotes struct {
	*memory.RecipeStore
}

func (flakyVotes) UpdateVoteCounts(context.Context, int64, int, int) error {
	return errors.New("write timeout")
}

type noEvents struct{}

func (noEvents) ServeSession(w http.ResponseWriter, _ *http.Request, _ string) {
	w.WriteHeader(http.StatusNotImplemented)
}

type viewBody struct {
	ID         string `json:"id"`
	Navigation struct {
		Step        string `json:"step"`
		Tab         string `json:"tab"`
		RecipeIndex int    `json:"recipe_index"`
	} `json:"navigation"`
	HistoryLen int `json:"history_len"`
	Recipe     *struct {
		DishName string `json:"dishName"`
	} `json:"recipe"`
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

type generateBody struct {
	Recipe struct {
		DishName string `json:"dishName"`
		Identity *struct {
			ID int64 `json:"id"`
		} `json:"identity"`
	} `json:"recipe"`
	Saved bool `json:"saved"`
}

// RouterTestSuite drives the API end to end through the chi router
type RouterTestSuite struct {
	suite.Suite
	cacheRepo *memory.CacheRepository
	store     *memory.RecipeStore
	registry  *session.Registry
	router    http.Handler
	recipes   outbound.RecipeStore
}

func (s *RouterTestSuite) SetupTest() {
	s.build(true, nil)
}

func (s *RouterTestSuite) TearDownTest() {
	_ = s.cacheRepo.Close()
}

func (s *RouterTestSuite) build(devCallback bool, wrap func(*memory.RecipeStore) outbound.RecipeStore) {
	logger := zap.NewNop()
	s.cacheRepo = memory.NewCacheRepository()
	s.store = memory.NewRecipeStore()
	s.recipes = s.store
	if wrap != nil {
		s.recipes = wrap(s.store)
	}

	gen := aimock.NewGenerator()
	s.registry = session.NewRegistry(session.Dependencies{
		Generator:  generation.NewService(gen, gen, storage.DataURIStore{}, s.store, nil, generation.Config{Timeout: 2 * time.Second}, logger),
		Ideas:      gen,
		Recipes:    s.recipes,
		Snapshots:  cache.NewSnapshotStore(s.cacheRepo),
		Publisher:  testutils.NewRecordingPublisher(),
		NewHistory: func() outbound.HistoryStack { return history.NewStack() },
		Navigation: navigation.Config{SnapshotTTL: time.Minute},
		Feed:       feed.Config{PageSize: 5, Debounce: time.Hour},
		Logger:     logger,
	}, 16, time.Hour)

	auth := security.NewAuthService(config.AuthConfig{
		JWTSecret:     "router-test-secret-0123456789abcdef",
		JWTExpiration: time.Hour,
		Issuer:        "fusionchef-test",
		AuthorizeURL:  "https://id.example.com/authorize",
	}, s.cacheRepo, logger)
	validator := security.NewValidationService(logger)

	s.router = NewRouter(RouterDeps{
		Config:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Sessions: handlers.NewSessionHandlers(s.registry, noEvents{}, validator, logger),
		Auth:     handlers.NewAuthHandlers(auth, s.registry, devCallback, logger),
		Identity: auth,
		Logger:   logger,
	})
}

func (s *RouterTestSuite) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *RouterTestSuite) createSession() string {
	resp := s.do(http.MethodPost, "/api/v1/sessions", "")
	s.Require().Equal(http.StatusCreated, resp.Code, resp.Body.String())
	var v viewBody
	testutils.DecodeData(s.T(), resp, &v)
	s.Require().NotEmpty(v.ID)
	s.Equal("welcome", v.Navigation.Step)
	return v.ID
}

func (s *RouterTestSuite) generate(id string) generateBody {
	base := "/api/v1/sessions/" + id
	for _, ev := range []string{"start", "choose_fridge"} {
		s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/next", `{"event":"`+ev+`"}`).Code)
	}
	s.Require().Equal(http.StatusOK, s.do(http.MethodPatch, base+"/choices", `{"ingredients":"두부, 김치","cuisine":"한식"}`).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/ingredients", "").Code)
	for i := 0; i < 3; i++ {
		s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/next", `{"event":"submit"}`).Code)
	}

	resp := s.do(http.MethodPost, base+"/generate", `{"regenerate":false}`)
	s.Require().Equal(http.StatusCreated, resp.Code, resp.Body.String())
	var out generateBody
	testutils.DecodeData(s.T(), resp, &out)
	return out
}

func (s *RouterTestSuite) TestHealthz() {
	resp := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("nosniff", resp.Header().Get("X-Content-Type-Options"))
}

func (s *RouterTestSuite) TestUnknownSession() {
	resp := s.do(http.MethodGet, "/api/v1/sessions/missing", "")
	testutils.AssertAPIError(s.T(), resp, http.StatusNotFound, apperrors.CodeSessionNotFound)
}

func (s *RouterTestSuite) TestWizardErrors() {
	base := "/api/v1/sessions/" + s.createSession()

	resp := s.do(http.MethodPost, base+"/next", `{"event":"fly"}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusBadRequest, apperrors.CodeValidationFailed)

	resp = s.do(http.MethodPost, base+"/next", `{"event":"submit"}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusConflict, apperrors.CodeInvalidTransition)

	resp = s.do(http.MethodPost, base+"/next", `{"event":"start","extra":1}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusBadRequest, apperrors.CodeBadRequest)

	req := httptest.NewRequest(http.MethodPost, base+"/next", strings.NewReader("event=start"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *RouterTestSuite) TestGenerateAndBack() {
	id := s.createSession()
	out := s.generate(id)
	s.True(out.Saved)
	s.Require().NotNil(out.Recipe.Identity)
	s.NotEmpty(out.Recipe.DishName)

	resp := s.do(http.MethodPost, "/api/v1/sessions/"+id+"/back", "")
	var v viewBody
	testutils.DecodeData(s.T(), resp, &v)
	s.Equal("environment", v.Navigation.Step, "back from the result never lands on the spinner")
}

func (s *RouterTestSuite) TestEngagement() {
	id := s.createSession()
	rid := s.generate(id).Recipe.Identity.ID
	base := fmt.Sprintf("/api/v1/sessions/%s/recipes/%d", id, rid)

	var eng handlers.EngagementResponse
	testutils.DecodeData(s.T(), s.do(http.MethodPost, base+"/vote", `{"type":"success"}`), &eng)
	s.Equal(int64(1), eng.Stats.VoteSuccess)
	s.EqualValues("success", eng.Vote)

	testutils.DecodeData(s.T(), s.do(http.MethodPost, base+"/vote", `{"type":"success"}`), &eng)
	s.Equal(int64(0), eng.Stats.VoteSuccess, "same vote twice cancels")

	testutils.DecodeData(s.T(), s.do(http.MethodPost, base+"/rating", `{"score":5}`), &eng)
	s.Equal("5.0", eng.AverageRating)

	resp := s.do(http.MethodPost, base+"/rating", `{"score":4}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusConflict, apperrors.CodeConflict)

	resp = s.do(http.MethodPost, base+"/comments", `{"content":"맛있어요"}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusUnauthorized, apperrors.CodeUnauthorized)

	resp = s.do(http.MethodPost, "/api/v1/sessions/"+id+"/recipes/abc/vote", `{"type":"success"}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusBadRequest, apperrors.CodeBadRequest)
}

func (s *RouterTestSuite) TestVoteFailureCarriesOptimisticState() {
	s.build(true, func(m *memory.RecipeStore) outbound.RecipeStore { return flakyVotes{m} })
	id := s.createSession()
	rid := s.generate(id).Recipe.Identity.ID

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/recipes/%d/vote", id, rid), `{"type":"fail"}`)
	details := testutils.AssertAPIError(s.T(), resp, http.StatusBadGateway, apperrors.CodeEngagementFailed)

	optimistic, ok := details.Metadata["optimistic"].(map[string]interface{})
	s.Require().True(ok, resp.Body.String())
	s.Equal("fail", optimistic["vote"])
	stats := optimistic["stats"].(map[string]interface{})
	s.EqualValues(1, stats["vote_fail"])
}

func (s *RouterTestSuite) TestFeedFilter() {
	base := "/api/v1/sessions/" + s.createSession()

	resp := s.do(http.MethodPost, base+"/feed/filter", `{"search":"김치"}`)
	s.Equal(http.StatusAccepted, resp.Code)

	resp = s.do(http.MethodPost, base+"/feed/filter", `{"search":"김치"}`)
	s.Equal(http.StatusOK, resp.Code, "unchanged filter")

	resp = s.do(http.MethodPost, base+"/feed/filter", `{"sort":"cheapest"}`)
	testutils.AssertAPIError(s.T(), resp, http.StatusBadRequest, apperrors.CodeValidationFailed)

	var st feed.State
	testutils.DecodeData(s.T(), s.do(http.MethodPost, base+"/feed/reload", ""), &st)
	s.True(st.Loaded)
	s.Equal("김치", st.Search)
}

func (s *RouterTestSuite) TestSignInRoundTrip() {
	id := s.createSession()
	s.generate(id)

	var signIn handlers.SignInResponse
	testutils.DecodeData(s.T(), s.do(http.MethodPost, "/api/v1/sessions/"+id+"/auth/signin", ""), &signIn)
	s.Require().NotEmpty(signIn.Nonce)
	u, err := url.Parse(signIn.RedirectURL)
	s.Require().NoError(err)
	s.Equal(signIn.Nonce, u.Query().Get("state"))

	var auth handlers.AuthResponse
	q := url.Values{"state": {signIn.Nonce}, "email": {"cook@example.com"}}
	testutils.DecodeData(s.T(), s.do(http.MethodGet, "/api/v1/auth/callback?"+q.Encode(), ""), &auth)
	s.Require().NotEmpty(auth.AccessToken)
	s.Equal(signIn.Nonce, auth.RestoreNonce)

	bearer := "Bearer " + auth.AccessToken
	body, _ := json.Marshal(map[string]string{"restore_nonce": auth.RestoreNonce})
	resp := s.do(http.MethodPost, "/api/v1/sessions", string(body), "Authorization", bearer)
	s.Require().Equal(http.StatusCreated, resp.Code, resp.Body.String())
	var v viewBody
	testutils.DecodeData(s.T(), resp, &v)
	s.NotEqual(id, v.ID)
	s.Equal("result", v.Navigation.Step)
	s.Equal(1, v.HistoryLen)
	s.Require().NotNil(v.User)
	s.Equal("cook@example.com", v.User.ID)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/v1/auth/me", "", "Authorization", bearer).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/api/v1/auth/signout", "", "Authorization", bearer).Code)

	resp = s.do(http.MethodGet, "/api/v1/auth/me", "", "Authorization", bearer)
	testutils.AssertAPIError(s.T(), resp, http.StatusUnauthorized, apperrors.CodeUnauthorized)
}

func (s *RouterTestSuite) TestCallbackRequiresDevMode() {
	s.build(false, nil)
	resp := s.do(http.MethodGet, "/api/v1/auth/callback?state=x&email=a@b.c", "")
	testutils.AssertAPIError(s.T(), resp, http.StatusServiceUnavailable, apperrors.CodeServiceUnavailable)
}

func (s *RouterTestSuite) TestDeleteSession() {
	id := s.createSession()
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/sessions/"+id+"/", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/sessions/"+id+"/", "").Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
