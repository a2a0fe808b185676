// Package navigation keeps the wizard's logical (step, tab), the platform history
// stack and the redirect snapshot in agreement.
package navigation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

// SnapshotKeyPrefix prefixes every redirect snapshot key
const SnapshotKeyPrefix = "recipe_restore_"

// Mode selects how an entry is written to the history stack
type Mode int

const (
	Push Mode = iota
	Replace
)

func (m Mode) String() string {
	if m == Replace {
		return "replace"
	}
	return "push"
}

// Config tunes the controller
type Config struct {
	SnapshotTTL time.Duration
}

// ChangeFunc observes every adopted entry
type ChangeFunc func(entry session.NavigationEntry, restored bool)

// Controller is the navigation state machine of one session
type Controller struct {
	mu        sync.Mutex
	current   session.NavigationEntry
	lastHome  session.NavigationEntry
	displaced *session.NavigationEntry

	stack     outbound.HistoryStack
	snapshots outbound.SnapshotStore
	config    Config
	onChange  ChangeFunc
	logger    *zap.Logger
}

// NewController creates a controller at (Welcome, home) and seeds the stack with it
func NewController(stack outbound.HistoryStack, snapshots outbound.SnapshotStore, cfg Config, onChange ChangeFunc, logger *zap.Logger) *Controller {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 10 * time.Minute
	}
	c := &Controller{
		current:   session.Home(),
		lastHome:  session.Home(),
		stack:     stack,
		snapshots: snapshots,
		config:    cfg,
		onChange:  onChange,
		logger:    logger.Named("navigation"),
	}
	stack.Subscribe(c.OnRestore)
	c.write(Replace, session.Home())
	return c
}

// Current returns the entry the view renders
func (c *Controller) Current() session.NavigationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NavigateTo adopts the entry and mirrors it to the history stack. Loading is always
// written with replace. Leaving Loading with a push first puts back the entry Loading
// overwrote, so the spinner never stays in the back stack.
func (c *Controller) NavigateTo(entry session.NavigationEntry, mode Mode) {
	var restore *session.NavigationEntry

	c.mu.Lock()
	prev := c.current
	switch {
	case entry.Step.Transient():
		mode = Replace
		if !prev.Step.Transient() {
			d := prev
			c.displaced = &d
		}
	case prev.Step.Transient() && mode == Push:
		restore = c.displaced
		c.displaced = nil
	default:
		c.displaced = nil
	}
	c.current = entry
	if entry.Tab == session.TabHome {
		c.lastHome = entry
	}
	c.mu.Unlock()

	if restore != nil {
		c.write(Replace, *restore)
	}
	c.write(mode, entry)
	c.notify(entry, false)
}

// GoBack asks the platform to go back, or resets to Welcome when there is nowhere to go
func (c *Controller) GoBack() {
	if c.stack.CanGoBack() {
		err := c.stack.Back()
		if err == nil {
			return
		}
		c.logger.Warn("History back failed, navigating in memory", zap.Error(err))
	}
	c.NavigateTo(session.Home(), Replace)
}

// OnRestore handles a back/forward gesture reported by the platform. A nil entry
// means the platform had nothing stored for that slot.
func (c *Controller) OnRestore(entry *session.NavigationEntry) {
	e := session.Home()
	if entry != nil {
		e = *entry
	}

	c.mu.Lock()
	c.current = e
	if e.Tab == session.TabHome {
		c.lastHome = e
	}
	if !e.Step.Transient() {
		c.displaced = nil
	}
	c.mu.Unlock()

	c.logger.Debug("Restored navigation entry",
		zap.String("step", string(e.Step)),
		zap.String("tab", string(e.Tab)))
	c.notify(e, true)
}

// Next applies a forward event of the current screen
func (c *Controller) Next(event session.Event) error {
	cur := c.Current()
	to, ok := session.NextStep(cur.Step, event)
	if !ok {
		return apperrors.NewInvalidTransitionError(string(cur.Step), string(event))
	}
	if event == session.EventReset {
		c.NavigateTo(session.Home(), Replace)
		return nil
	}
	c.NavigateTo(session.Entry(to, session.TabHome), Push)
	return nil
}

// Back returns to the predecessor of the current screen. When the platform's previous
// entry already is that predecessor the platform back is used, keeping both stacks aligned.
func (c *Controller) Back(mode session.Mode) {
	cur := c.Current()
	switch cur.Step {
	case session.StepLoading:
		return
	case session.StepResult, session.StepCommunity:
		c.GoBack()
		return
	}

	pred := session.PreviousStep(cur.Step, mode)
	if pred == cur.Step {
		return
	}
	if prev, ok := c.stack.Previous(); ok && prev.Step == pred && prev.Tab == cur.Tab {
		c.GoBack()
		return
	}
	c.NavigateTo(session.Entry(pred, cur.Tab), Replace)
}

// SelectTab switches the bottom tab. Home resumes the last home screen.
func (c *Controller) SelectTab(tab session.Tab) {
	c.mu.Lock()
	cur, lastHome := c.current, c.lastHome
	c.mu.Unlock()

	if cur.Tab == tab {
		return
	}
	if tab == session.TabCommunity {
		c.NavigateTo(session.Entry(session.StepCommunity, session.TabCommunity), Push)
		return
	}
	c.NavigateTo(lastHome, Push)
}

// PrepareRedirect stores the snapshot before an external login redirect and returns the
// nonce that must come back through the redirect.
func (c *Controller) PrepareRedirect(ctx context.Context, snap session.Snapshot) (string, error) {
	nonce := uuid.NewString()
	if err := c.snapshots.Save(ctx, SnapshotKeyPrefix+nonce, snap, c.config.SnapshotTTL); err != nil {
		c.logger.Warn("Failed to store redirect snapshot", zap.Error(err))
		return nonce, err
	}
	c.logger.Info("Stored redirect snapshot",
		zap.Int("recipes", len(snap.History)),
		zap.Int("current_index", snap.CurrentIndex))
	return nonce, nil
}

// RestoreAfterRedirect consumes the snapshot stored under nonce. apply installs it and
// returns the history cursor. A snapshot is applied at most once.
func (c *Controller) RestoreAfterRedirect(ctx context.Context, nonce string, apply func(session.Snapshot) int) bool {
	if nonce == "" {
		return false
	}
	snap, err := c.snapshots.Take(ctx, SnapshotKeyPrefix+nonce)
	if err != nil {
		if !errors.Is(err, outbound.ErrSnapshotNotFound) {
			c.logger.Warn("Failed to read redirect snapshot", zap.Error(err))
		}
		return false
	}

	idx := apply(*snap)
	if idx < 0 {
		c.NavigateTo(session.Home(), Replace)
		return true
	}
	entry := session.Entry(session.StepResult, session.TabHome)
	entry.RecipeIndex = idx
	c.NavigateTo(entry, Replace)
	return true
}

func (c *Controller) write(mode Mode, entry session.NavigationEntry) {
	var err error
	if mode == Replace {
		err = c.stack.Replace(entry)
	} else {
		err = c.stack.Push(entry)
	}
	if err != nil {
		c.logger.Warn("History write rejected, keeping in-memory navigation",
			zap.String("mode", mode.String()),
			zap.String("step", string(entry.Step)),
			zap.Error(err))
	}
}

func (c *Controller) notify(entry session.NavigationEntry, restored bool) {
	if c.onChange != nil {
		c.onChange(entry, restored)
	}
}
