// Package panel owns the lifecycle of the WiFi panel: the startup fetch, the
// scheduled refreshes, the row and button actions, and the transient message.
// It holds the current view.PageState and publishes a snapshot after every
// change; rendering is left to the view package.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/scheduler"
	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// Default timings.
const (
	DefaultSavedRefresh = 1500 * time.Millisecond
	DefaultScanPoll     = 5 * time.Minute
	DefaultSnackTimeout = 5 * time.Second
)

// Task names, as reported by Pending.
const (
	TaskRefreshSaved = "refresh-saved"
	TaskPollScan     = "poll-scan"
	TaskClearSnack   = "clear-snack"
)

// ErrUnknownAction is returned by Trigger for a name with no action bound.
var ErrUnknownAction = errors.New("unknown action")

// API is the device API the controller drives. *wifiapi.Client implements it.
type API interface {
	Configured(ctx context.Context) ([]wifiapi.SavedNetwork, error)
	Scan(ctx context.Context) ([]wifiapi.ScannedNetwork, error)
	Status(ctx context.Context) (wifiapi.Status, error)
	Add(ctx context.Context, apName, apPass string) (*wifiapi.Message, error)
	DeleteByID(ctx context.Context, id int) (*wifiapi.Message, error)
	Actions() map[string]wifiapi.ActionFunc
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the clock scheduled tasks run on
func WithClock(c clock.WithTicker) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

// WithSavedRefresh sets the delay of the one-shot saved list refresh
func WithSavedRefresh(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.savedRefresh = d
	}
}

// WithScanPoll sets the period of the scan poll
func WithScanPoll(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.scanPoll = d
	}
}

// WithSnackTimeout sets how long a message stays visible
func WithSnackTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.snackTimeout = d
	}
}

// WithTitle sets the page title
func WithTitle(title string) Option {
	return func(ctl *Controller) {
		ctl.state.Title = title
	}
}

// Controller drives one panel.
type Controller struct {
	api     API
	actions map[string]wifiapi.ActionFunc

	clock        clock.WithTicker
	sched        *scheduler.Scheduler
	savedRefresh time.Duration
	scanPoll     time.Duration
	snackTimeout time.Duration

	// ctx is handed to scheduled tasks and cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc

	startMu sync.Mutex

	mu        sync.Mutex
	state     view.PageState
	snackTask *scheduler.Task
	snackGen  uint64
	subs      map[int]chan view.PageState
	nextSub   int
	stopped   bool
}

// New creates a controller for api. Nothing is fetched until Start.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:          api,
		actions:      api.Actions(),
		savedRefresh: DefaultSavedRefresh,
		scanPoll:     DefaultScanPoll,
		snackTimeout: DefaultSnackTimeout,
		subs:         make(map[int]chan view.PageState),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	c.sched = scheduler.New(c.clock)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.state.Actions = wifiapi.ActionNames(c.actions)
	return c
}

// Start fetches the saved list, the scan result and the status concurrently
// and renders them once all three arrived. It then schedules the one-shot
// saved refresh and the recurring scan poll. If any fetch fails the error is
// shown, nothing is rendered and nothing is scheduled. Start on a loaded
// controller is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.State().Loaded {
		return nil
	}

	var (
		saved   []wifiapi.SavedNetwork
		scanned []wifiapi.ScannedNetwork
		status  wifiapi.Status
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		saved, err = c.api.Configured(gctx)
		return err
	})
	g.Go(func() (err error) {
		scanned, err = c.api.Scan(gctx)
		return err
	})
	g.Go(func() (err error) {
		status, err = c.api.Status(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		c.fail(err)
		return fmt.Errorf("failed to load panel: %w", err)
	}

	now := c.clock.Now()
	c.update(func(s *view.PageState) {
		s.Loaded = true
		s.Status = status
		s.Saved = saved
		s.SavedUpdated = now
		s.Scanned = scanned
		s.ScannedUpdated = now
	})

	logging.Info("Panel loaded",
		zap.Int("saved", len(saved)),
		zap.Int("scanned", len(scanned)),
		zap.Int("status_properties", len(status)))

	c.sched.After(TaskRefreshSaved, c.savedRefresh, func() {
		_ = c.RefreshSaved(c.ctx)
	})
	c.sched.Every(TaskPollScan, c.scanPoll, func() {
		_ = c.RefreshScanned(c.ctx)
	})
	return nil
}

// EnsureLoaded retries Start when the previous attempt failed.
func (c *Controller) EnsureLoaded(ctx context.Context) error {
	return c.Start(ctx)
}

// Stop cancels every scheduled task, waits for running ones and closes all
// subscriptions. It must not be called from a subscriber.
func (c *Controller) Stop() {
	c.cancel()
	c.sched.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// Pending returns the names of scheduled tasks that have not run yet.
func (c *Controller) Pending() []string {
	return c.sched.Pending()
}

// State returns a snapshot of the page state. Slices in the snapshot are
// replaced, never mutated, so the snapshot stays valid.
func (c *Controller) State() view.PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel receiving the latest state after each change.
// A slow reader only misses intermediate snapshots. The returned func
// cancels the subscription.
func (c *Controller) Subscribe() (<-chan view.PageState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan view.PageState, 1)
	if c.stopped {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

// Trigger runs the named action and shows its response message.
func (c *Controller) Trigger(ctx context.Context, name string) error {
	fn, ok := c.actions[name]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownAction, name)
		c.fail(err)
		return err
	}

	logging.Info("Running action", zap.String("action", name))
	msg, err := fn(ctx)
	if err != nil {
		c.fail(err)
		return err
	}
	c.Snack(msg.Message, view.ContextNone)
	return nil
}

// Remove deletes the saved network whose row key is key (its id), shows the
// response and refreshes the saved list.
func (c *Controller) Remove(ctx context.Context, key string) error {
	id, err := strconv.Atoi(key)
	if err != nil {
		err = fmt.Errorf("invalid saved network id %q", key)
		c.fail(err)
		return err
	}

	msg, err := c.api.DeleteByID(ctx, id)
	if err != nil {
		c.fail(err)
		return err
	}
	c.Snack(msg.Message, view.ContextNone)

	return c.RefreshSaved(ctx)
}

// Add saves the scanned network whose row key is ssid with password, shows the
// response and refreshes the scan result.
func (c *Controller) Add(ctx context.Context, ssid, password string) error {
	if err := wifiapi.ValidateCredentials(ssid, password); err != nil {
		c.fail(err)
		return err
	}

	msg, err := c.api.Add(ctx, ssid, password)
	if err != nil {
		c.fail(err)
		return err
	}
	c.Snack(msg.Message, view.ContextText)

	return c.RefreshScanned(ctx)
}

// RefreshSaved fetches and re-renders the saved list.
func (c *Controller) RefreshSaved(ctx context.Context) error {
	saved, err := c.api.Configured(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	now := c.clock.Now()
	c.update(func(s *view.PageState) {
		s.Saved = saved
		s.SavedUpdated = now
	})
	return nil
}

// RefreshScanned fetches and re-renders the scan result.
func (c *Controller) RefreshScanned(ctx context.Context) error {
	scanned, err := c.api.Scan(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	now := c.clock.Now()
	c.update(func(s *view.PageState) {
		s.Scanned = scanned
		s.ScannedUpdated = now
	})
	return nil
}

// Snack shows message with an optional style class and clears it after the
// snack timeout. A new message cancels the pending clear of the previous one.
func (c *Controller) Snack(message, style string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snackTask.Stop()
	c.snackGen++
	gen := c.snackGen

	c.state.Snack = view.Snackbar{Message: message, Context: style}
	c.snackTask = c.sched.After(TaskClearSnack, c.snackTimeout, func() {
		c.clearSnack(gen)
	})
	c.publishLocked()
}

func (c *Controller) clearSnack(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.snackGen {
		return
	}
	c.state.Snack = view.Snackbar{}
	c.snackTask = nil
	c.publishLocked()
}

// fail surfaces err as a danger message. Errors caused by Stop are dropped.
func (c *Controller) fail(err error) {
	if errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
		logging.Debug("Dropping error after stop", zap.Error(err))
		return
	}
	logging.Warn("Panel operation failed", zap.Error(err))
	c.Snack(err.Error(), view.ContextDanger)
}

func (c *Controller) update(fn func(s *view.PageState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	snapshot := c.state
	for _, ch := range c.subs {
		select {
		case ch <- snapshot:
		default:
			// replace the unread snapshot
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
