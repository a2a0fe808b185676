package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	"github.com/alchemorsel/fusionchef/test/testutils"
)

var epoch = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func item(id int64) recipe.FeedItem {
	// newer ids are newer recipes
	return recipe.FeedItem{ID: id, DishName: "dish", CreatedAt: epoch.Add(time.Duration(id) * time.Minute)}
}

// pagedSource serves fixed pages keyed by page number and counts calls
type pagedSource struct {
	pages map[int][]recipe.FeedItem
	err   error
	calls atomic.Int32
	last  atomic.Value
}

func (p *pagedSource) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	p.calls.Add(1)
	p.last.Store(q)
	if p.err != nil {
		return nil, p.err
	}
	return append([]recipe.FeedItem(nil), p.pages[q.Page]...), nil
}

// gatedSource blocks each search term until released
type gatedSource struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	results map[string][]recipe.FeedItem
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 8),
		results: make(map[string][]recipe.FeedItem),
	}
}

func (g *gatedSource) gate(term string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[term]
	if !ok {
		ch = make(chan struct{})
		g.gates[term] = ch
	}
	return ch
}

func (g *gatedSource) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	g.started <- q.Search
	select {
	case <-g.gate(q.Search):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]recipe.FeedItem(nil), g.results[q.Search]...), nil
}

func newController(src outbound.FeedSource, cfg Config) (*Controller, *[]State) {
	var mu sync.Mutex
	states := &[]State{}
	c := NewController(src, cfg, nil, func(s State) {
		mu.Lock()
		*states = append(*states, s)
		mu.Unlock()
	}, zap.NewNop())
	return c, states
}

func TestController_LoadMoreDeduplicates(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{
		0: {item(9), item(8), item(7)},
		// a new recipe shifted the offset, so 7 shows up again
		1: {item(7), item(6), item(5)},
		2: {item(4)},
	}}
	c, _ := newController(src, Config{PageSize: 3})
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	c.Attach()
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.LoadMore(ctx))

	st := c.State()
	testutils.AssertUniqueIDs(t, st.Items)
	assert.Len(t, st.Items, 6)
	assert.Equal(t, 2, st.Page)
	assert.False(t, st.HasMore)

	calls := src.calls.Load()
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, calls, src.calls.Load(), "no fetch after the last page")
}

func TestController_LoadMoreRequiresAttach(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{0: {item(3), item(2)}}}
	c, _ := newController(src, Config{PageSize: 2})
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	require.True(t, c.State().HasMore)

	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, int32(1), src.calls.Load())

	c.Attach()
	c.Detach()
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestController_SortsPagesForUnsortedSources(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{0: {
		{ID: 1, Stats: recipe.Stats{CommentCount: 1}},
		{ID: 2, Stats: recipe.Stats{CommentCount: 7}},
		{ID: 3, Stats: recipe.Stats{CommentCount: 4}},
	}}}
	c, _ := newController(src, Config{PageSize: 10, Debounce: time.Hour})
	sortKey := recipe.SortComments
	require.True(t, c.SetFilter(nil, &sortKey))
	require.NoError(t, c.Reload(context.Background()))

	testutils.AssertFeedSorted(t, c.State().Items, recipe.SortComments)
	q := src.last.Load().(recipe.FeedQuery)
	assert.Equal(t, recipe.SortComments, q.Sort)
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	src := newGatedSource()
	src.results["a"] = []recipe.FeedItem{item(1)}
	src.results["b"] = []recipe.FeedItem{item(2)}
	c, states := newController(src, Config{PageSize: 10, Debounce: time.Hour})
	ctx := context.Background()

	a := "a"
	c.SetFilter(&a, nil)
	doneA := make(chan error, 1)
	go func() { doneA <- c.Reload(ctx) }()
	require.Equal(t, "a", <-src.started)

	b := "b"
	require.True(t, c.SetFilter(&b, nil))
	doneB := make(chan error, 1)
	go func() { doneB <- c.Reload(ctx) }()
	require.Equal(t, "b", <-src.started)

	close(src.gate("b"))
	require.NoError(t, <-doneB)
	close(src.gate("a"))
	require.NoError(t, <-doneA)

	st := c.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(2), st.Items[0].ID)
	assert.Equal(t, "b", st.Search)
	assert.Len(t, *states, 1, "the stale response is never delivered")
}

func TestController_DebounceCoalescesFilterChanges(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{0: {item(1)}}}
	c, _ := newController(src, Config{PageSize: 10, Debounce: 30 * time.Millisecond})
	defer c.Close()

	for _, term := range []string{"k", "ki", "kim"} {
		term := term
		assert.True(t, c.SetFilter(&term, nil))
	}
	same := "kim"
	assert.False(t, c.SetFilter(&same, nil))

	assert.Eventually(t, c.Loaded, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, "kim", src.last.Load().(recipe.FeedQuery).Search)
}

func TestController_DetachDropsPendingDebounce(t *testing.T) {
	src := &pagedSource{}
	c, _ := newController(src, Config{Debounce: 20 * time.Millisecond})
	c.Attach()

	term := "x"
	c.SetFilter(&term, nil)
	c.Detach()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, src.calls.Load())
}

func TestController_FetchErrorKeepsStateUsable(t *testing.T) {
	src := &pagedSource{err: errors.New("connection refused")}
	c, states := newController(src, Config{PageSize: 5})

	err := c.Reload(context.Background())
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, "connection refused", st.Err)
	assert.False(t, st.Fetching)
	assert.False(t, st.Loaded)
	require.Len(t, *states, 1)

	src.err = nil
	src.pages = map[int][]recipe.FeedItem{0: {item(1)}}
	require.NoError(t, c.Reload(context.Background()))
	assert.Empty(t, c.State().Err)
}

func TestController_UpdateItem(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{0: {item(1), item(2)}}}
	c, _ := newController(src, Config{})
	require.NoError(t, c.Reload(context.Background()))

	updated := item(1)
	updated.Stats.VoteSuccess = 9
	c.UpdateItem(updated)

	for _, it := range c.State().Items {
		if it.ID == 1 {
			assert.Equal(t, int64(9), it.Stats.VoteSuccess)
		}
	}
}

// sortedSource serves different pages per sort key
type sortedSource struct {
	pages map[recipe.SortKey]map[int][]recipe.FeedItem
	calls atomic.Int32
}

func (s *sortedSource) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	s.calls.Add(1)
	return append([]recipe.FeedItem(nil), s.pages[q.Sort][q.Page]...), nil
}

// pageGate answers page 0 at once and holds later pages until released
type pageGate struct {
	pages   map[int][]recipe.FeedItem
	started chan int
	release chan struct{}
	calls   atomic.Int32
}

func (g *pageGate) FetchFeed(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	g.calls.Add(1)
	if q.Page > 0 {
		g.started <- q.Page
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return append([]recipe.FeedItem(nil), g.pages[q.Page]...), nil
}

func ids(items []recipe.FeedItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestController_FilterChangeClearsResults(t *testing.T) {
	src := &sortedSource{pages: map[recipe.SortKey]map[int][]recipe.FeedItem{
		recipe.SortLatest: {
			0: {item(102), item(101), item(100)},
			1: {item(99), item(98), item(97)},
		},
		recipe.SortRating: {
			0: {item(900), item(901), item(902)},
			1: {item(903), item(904), item(905)},
		},
	}}
	c, states := newController(src, Config{PageSize: 3, Debounce: time.Hour})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	c.Attach()
	require.NoError(t, c.LoadMore(ctx))
	require.Equal(t, 1, c.State().Page)

	rating := recipe.SortRating
	require.True(t, c.SetFilter(nil, &rating))

	st := c.State()
	assert.Zero(t, st.Page)
	assert.Empty(t, st.Items)
	assert.False(t, st.HasMore)

	// the scroll trigger fires before the debounce window ends
	calls := src.calls.Load()
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, calls, src.calls.Load(), "no page is requested before the first one")

	require.NoError(t, c.Reload(ctx))
	require.NoError(t, c.LoadMore(ctx))

	st = c.State()
	assert.Equal(t, 1, st.Page)
	assert.ElementsMatch(t, []int64{900, 901, 902, 903, 904, 905}, ids(st.Items))
	for _, s := range *states {
		if s.Sort == recipe.SortRating {
			assert.NotContains(t, ids(s.Items), int64(100), "latest items leaked into the rating list")
		}
	}
}

func TestController_OverlappingLoadMoreIsNoop(t *testing.T) {
	src := &pageGate{
		pages: map[int][]recipe.FeedItem{
			0: {item(9), item(8)},
			1: {item(8), item(7)},
		},
		started: make(chan int, 4),
		release: make(chan struct{}),
	}
	c, _ := newController(src, Config{PageSize: 2})
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	c.Attach()

	first := make(chan error, 1)
	go func() { first <- c.LoadMore(ctx) }()
	require.Equal(t, 1, <-src.started)
	assert.True(t, c.State().Fetching)

	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, int32(2), src.calls.Load(), "the second trigger must not fetch")

	close(src.release)
	require.NoError(t, <-first)

	st := c.State()
	assert.Equal(t, 1, st.Page)
	assert.False(t, st.Fetching)
	testutils.AssertUniqueIDs(t, st.Items)
	assert.Equal(t, []int64{9, 8, 7}, ids(st.Items))
}

func TestController_FailedLoadMoreRetriesSamePage(t *testing.T) {
	src := &pagedSource{pages: map[int][]recipe.FeedItem{
		0: {item(5), item(4)},
		1: {item(3), item(2)},
	}}
	c, _ := newController(src, Config{PageSize: 2})
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	c.Attach()

	src.err = errors.New("timeout")
	require.Error(t, c.LoadMore(ctx))

	st := c.State()
	assert.Equal(t, "timeout", st.Err)
	assert.Zero(t, st.Page)
	assert.Equal(t, []int64{5, 4}, ids(st.Items))
	assert.True(t, st.HasMore)
	assert.False(t, st.Fetching)

	src.err = nil
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, 1, src.last.Load().(recipe.FeedQuery).Page)

	st = c.State()
	assert.Empty(t, st.Err)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, []int64{5, 4, 3, 2}, ids(st.Items))
}
