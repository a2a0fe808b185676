// Package feed drives the paginated community list of one session: debounced filter
// changes, page loading, de-duplication and discarding of outdated responses.
package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// Defaults applied to a zero Config
const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultFetchTimeout = 10 * time.Second
)

// Config tunes the controller
type Config struct {
	PageSize     int
	Debounce     time.Duration
	FetchTimeout time.Duration
}

// State is a copy of the controller state for rendering
type State struct {
	Items    []recipe.FeedItem `json:"items"`
	Page     int               `json:"page"`
	HasMore  bool              `json:"has_more"`
	Fetching bool              `json:"fetching"`
	Err      string            `json:"error,omitempty"`
	Search   string            `json:"search"`
	Sort     recipe.SortKey    `json:"sort"`
	Attached bool              `json:"attached"`
	Loaded   bool              `json:"loaded"`
}

// UpdateFunc observes every applied response, successful or not
type UpdateFunc func(State)

// Controller is the feed state of one session
type Controller struct {
	mu       sync.Mutex
	items    []recipe.FeedItem
	page     int
	hasMore  bool
	fetching bool
	loaded   bool
	err      error
	search   string
	sort     recipe.SortKey
	attached bool

	// generation is bumped by every filter change, reload and detach. A response
	// is applied only when the generation it was requested under is still current.
	generation uint64
	timer      *time.Timer

	source   outbound.FeedSource
	config   Config
	metrics  outbound.Metrics
	onUpdate UpdateFunc
	logger   *zap.Logger
}

// NewController creates an empty, detached feed sorted by latest
func NewController(source outbound.FeedSource, cfg Config, metrics outbound.Metrics, onUpdate UpdateFunc, logger *zap.Logger) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = recipe.DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Controller{
		sort:     recipe.SortLatest,
		source:   source,
		config:   cfg,
		metrics:  metrics,
		onUpdate: onUpdate,
		logger:   logger.Named("feed"),
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// SetFilter changes the search term and/or sort key. Responses still in flight for the
// old filter are dropped, and a reload runs once the debounce window passes without
// another change. It reports whether anything changed.
func (c *Controller) SetFilter(search *string, sort *recipe.SortKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	if search != nil && *search != c.search {
		c.search = *search
		changed = true
	}
	if sort != nil && *sort != c.sort {
		c.sort = *sort
		changed = true
	}
	if !changed {
		return false
	}

	// results of the old filter never mix with pages of the new one
	c.generation++
	c.items = nil
	c.page = 0
	c.hasMore = false
	c.fetching = false
	c.err = nil
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.config.Debounce, c.debounced)

	c.logger.Debug("Feed filter changed",
		zap.String("search", c.search),
		zap.String("sort", string(c.sort)))
	return true
}

func (c *Controller) debounced() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.FetchTimeout)
	defer cancel()
	if err := c.Reload(ctx); err != nil {
		c.logger.Debug("Debounced feed reload failed", zap.Error(err))
	}
}

// Reload clears the list and fetches the first page for the current filter
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	gen := c.generation
	c.items = nil
	c.page = 0
	c.hasMore = false
	c.fetching = true
	c.err = nil
	q := c.queryLocked(0)
	c.mu.Unlock()

	items, err := c.fetch(ctx, q)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.metrics.FeedFetch("stale", 0)
		return nil
	}
	c.fetching = false
	if err != nil {
		c.err = err
	} else {
		c.items = items
		c.hasMore = len(items) >= c.config.PageSize
		c.loaded = true
	}
	state := c.stateLocked()
	c.mu.Unlock()

	c.notify(state)
	return err
}

// LoadMore appends the next page, skipping ids already listed. It is a no-op while a
// fetch is running, after the last page, or while the list is not on screen.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.fetching || !c.hasMore || !c.attached {
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	gen := c.generation
	next := c.page + 1
	q := c.queryLocked(next)
	c.mu.Unlock()

	items, err := c.fetch(ctx, q)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.metrics.FeedFetch("stale", 0)
		return nil
	}
	c.fetching = false
	if err != nil {
		c.err = err
		state := c.stateLocked()
		c.mu.Unlock()
		c.notify(state)
		return err
	}

	c.err = nil
	c.items = appendUnique(c.items, items)
	c.page = next
	c.hasMore = len(items) >= c.config.PageSize
	state := c.stateLocked()
	c.mu.Unlock()

	c.notify(state)
	return nil
}

// Attach marks the list visible. It must be called again after each render.
func (c *Controller) Attach() {
	c.mu.Lock()
	c.attached = true
	c.mu.Unlock()
}

// Detach tears down the scroll trigger. Pending debounce and in-flight responses are dropped.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached && c.timer == nil {
		return
	}
	c.attached = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.fetching = false
}

// Loaded reports whether a first page was ever applied
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// UpdateItem replaces the listed item with the same id, used after engagement writes
func (c *Controller) UpdateItem(item recipe.FeedItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i] = item
			return
		}
	}
}

// Close stops the debounce timer
func (c *Controller) Close() {
	c.Detach()
}

func (c *Controller) fetch(ctx context.Context, q recipe.FeedQuery) ([]recipe.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	items, err := c.source.FetchFeed(ctx, q)
	if err != nil {
		c.metrics.FeedFetch("error", time.Since(start))
		c.logger.Warn("Feed fetch failed",
			zap.Int("page", q.Page),
			zap.String("sort", string(q.Sort)),
			zap.Error(err))
		return nil, err
	}
	c.metrics.FeedFetch("ok", time.Since(start))

	if !c.sourceSorts(q.Sort) {
		recipe.SortItems(items, q.Sort)
	}
	return items, nil
}

func (c *Controller) sourceSorts(k recipe.SortKey) bool {
	s, ok := c.source.(outbound.SortSupport)
	return ok && s.SupportsSort(k)
}

func (c *Controller) queryLocked(page int) recipe.FeedQuery {
	return recipe.FeedQuery{
		Search:   c.search,
		Sort:     c.sort,
		Page:     page,
		PageSize: c.config.PageSize,
	}
}

func (c *Controller) stateLocked() State {
	s := State{
		Items:    append([]recipe.FeedItem{}, c.items...),
		Page:     c.page,
		HasMore:  c.hasMore,
		Fetching: c.fetching,
		Search:   c.search,
		Sort:     c.sort,
		Attached: c.attached,
		Loaded:   c.loaded,
	}
	if c.err != nil {
		s.Err = c.err.Error()
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.onUpdate != nil {
		c.onUpdate(s)
	}
}

// appendUnique appends the items whose id is not listed yet
func appendUnique(dst, src []recipe.FeedItem) []recipe.FeedItem {
	seen := make(map[int64]struct{}, len(dst)+len(src))
	for _, it := range dst {
		seen[it.ID] = struct{}{}
	}
	for _, it := range src {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		dst = append(dst, it)
	}
	return dst
}
