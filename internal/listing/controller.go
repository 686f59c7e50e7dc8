// Package listing reveals an ordered, newest-first record collection one page
// at a time as its consumer approaches the end of what is already loaded.
package listing

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PageSize is the number of records requested per fetch.
const PageSize = 5

// Fetcher returns up to limit records starting at offset, newest first.
type Fetcher[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// State is the controller's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateExhausted State = "exhausted"
)

// Page is a point-in-time copy of a controller's contents.
type Page[T any] struct {
	Items     []T  `json:"items"`
	HasMore   bool `json:"has_more"`
	IsLoading bool `json:"is_loading"`
}

// Outcome labels the result of one fetch for observers.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeFailure   Outcome = "failure"
)

// Option customises a Controller.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	observer func(Outcome)
}

// WithLogger sets the logger that receives fetch failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver registers a callback invoked after every completed fetch.
func WithObserver(fn func(Outcome)) Option {
	return func(o *options) { o.observer = fn }
}

// Controller accumulates pages from a Fetcher. It is safe for concurrent use;
// at most one fetch is in flight at a time.
type Controller[T any] struct {
	fetch    Fetcher[T]
	logger   *zap.Logger
	observer func(Outcome)

	mu      sync.Mutex
	items   []T
	hasMore bool
	loading bool
}

// New builds an empty controller in the idle state with more records expected.
func New[T any](fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Controller[T]{
		fetch:    fetch,
		logger:   o.logger,
		observer: o.observer,
		hasMore:  true,
	}
}

// LoadFirst loads the first page unless something is already loaded.
func (c *Controller[T]) LoadFirst(ctx context.Context) {
	c.mu.Lock()
	populated := len(c.items) > 0
	c.mu.Unlock()
	if populated {
		return
	}
	c.LoadMore(ctx)
}

// NearEnd signals that the last loaded record has become visible.
func (c *Controller[T]) NearEnd(ctx context.Context) {
	c.LoadMore(ctx)
}

// LoadMore fetches and appends the next page. It does nothing while a fetch is
// in flight or once the collection is exhausted. Fetch errors are logged and
// leave the controller ready to retry.
func (c *Controller[T]) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return
	}
	c.loading = true
	offset := len(c.items)
	c.mu.Unlock()

	// In-flight fetches are never cancelled; their result is always applied.
	records, err := c.fetch(context.WithoutCancel(ctx), offset, PageSize)

	c.mu.Lock()
	c.loading = false
	var outcome Outcome
	switch {
	case err != nil:
		outcome = OutcomeFailure
	default:
		c.items = append(c.items, records...)
		outcome = OutcomeSuccess
		if len(records) < PageSize {
			c.hasMore = false
			outcome = OutcomeExhausted
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("page fetch failed", zap.Int("offset", offset), zap.Error(err))
	}
	if c.observer != nil {
		c.observer(outcome)
	}
}

// State reports the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.loading:
		return StateLoading
	case !c.hasMore:
		return StateExhausted
	default:
		return StateIdle
	}
}

// Len returns the number of loaded records.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot copies the loaded records and flags.
func (c *Controller[T]) Snapshot() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Page[T]{Items: items, HasMore: c.hasMore, IsLoading: c.loading}
}
