package listing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves pages from a fixed newest-first slice.
type sliceSource struct {
	records []int
	calls   atomic.Int32
	failOn  map[int32]error
	offsets []int
	mu      sync.Mutex
}

func newSliceSource(n int) *sliceSource {
	records := make([]int, n)
	for i := range records {
		records[i] = n - i
	}
	return &sliceSource{records: records, failOn: map[int32]error{}}
}

func (s *sliceSource) fetch(_ context.Context, offset, limit int) ([]int, error) {
	call := s.calls.Add(1)
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	s.mu.Unlock()
	if err, ok := s.failOn[call]; ok {
		return nil, err
	}
	if offset >= len(s.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.records) {
		end = len(s.records)
	}
	return s.records[offset:end], nil
}

func TestControllerPagesThroughTwelveRecords(t *testing.T) {
	src := newSliceSource(12)
	ctrl := New(src.fetch)
	ctx := context.Background()

	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, 0, ctrl.Len())

	ctrl.LoadMore(ctx)
	page := ctrl.Snapshot()
	assert.Len(t, page.Items, 5)
	assert.True(t, page.HasMore)

	ctrl.LoadMore(ctx)
	page = ctrl.Snapshot()
	assert.Len(t, page.Items, 10)
	assert.True(t, page.HasMore)

	ctrl.LoadMore(ctx)
	page = ctrl.Snapshot()
	assert.Len(t, page.Items, 12)
	assert.False(t, page.HasMore)
	assert.Equal(t, StateExhausted, ctrl.State())

	ctrl.LoadMore(ctx)
	assert.Equal(t, 12, ctrl.Len())
	assert.EqualValues(t, 3, src.calls.Load())

	assert.Equal(t, []int{0, 5, 10}, src.offsets)
	assert.Equal(t, src.records, ctrl.Snapshot().Items)
}

func TestControllerExactMultipleOfPageSize(t *testing.T) {
	src := newSliceSource(10)
	ctrl := New(src.fetch)
	ctx := context.Background()

	ctrl.LoadMore(ctx)
	ctrl.LoadMore(ctx)
	assert.True(t, ctrl.Snapshot().HasMore)

	// The third fetch returns nothing and closes the listing.
	ctrl.LoadMore(ctx)
	assert.False(t, ctrl.Snapshot().HasMore)
	assert.Equal(t, 10, ctrl.Len())
}

func TestControllerSingleFetchInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	ctrl := New(func(_ context.Context, offset, limit int) ([]int, error) {
		calls.Add(1)
		close(started)
		<-release
		return []int{1, 2, 3, 4, 5}, nil
	})

	done := make(chan struct{})
	go func() {
		ctrl.LoadMore(context.Background())
		close(done)
	}()

	<-started
	assert.Equal(t, StateLoading, ctrl.State())
	assert.True(t, ctrl.Snapshot().IsLoading)

	// Duplicate triggers while loading return immediately without fetching.
	ctrl.LoadMore(context.Background())
	ctrl.NearEnd(context.Background())

	close(release)
	<-done

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 5, ctrl.Len())
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestControllerFetchFailureIsRetryable(t *testing.T) {
	src := newSliceSource(7)
	src.failOn[2] = errors.New("connection reset")

	var outcomes []Outcome
	ctrl := New(src.fetch, WithObserver(func(o Outcome) { outcomes = append(outcomes, o) }))
	ctx := context.Background()

	ctrl.LoadFirst(ctx)
	require.Equal(t, 5, ctrl.Len())

	ctrl.NearEnd(ctx)
	assert.Equal(t, 5, ctrl.Len())
	assert.Equal(t, StateIdle, ctrl.State())
	assert.True(t, ctrl.Snapshot().HasMore)

	ctrl.NearEnd(ctx)
	assert.Equal(t, 7, ctrl.Len())
	assert.Equal(t, StateExhausted, ctrl.State())

	assert.Equal(t, []Outcome{OutcomeSuccess, OutcomeFailure, OutcomeExhausted}, outcomes)
	assert.Equal(t, []int{0, 5, 5}, src.offsets)
}

func TestControllerLoadFirstIsNoOpWhenPopulated(t *testing.T) {
	src := newSliceSource(20)
	ctrl := New(src.fetch)
	ctx := context.Background()

	ctrl.LoadFirst(ctx)
	ctrl.LoadFirst(ctx)
	ctrl.LoadFirst(ctx)

	assert.Equal(t, 5, ctrl.Len())
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestControllerNearEndIgnoredWhenExhausted(t *testing.T) {
	src := newSliceSource(2)
	ctrl := New(src.fetch)
	ctx := context.Background()

	ctrl.NearEnd(ctx)
	require.Equal(t, StateExhausted, ctrl.State())

	ctrl.NearEnd(ctx)
	ctrl.NearEnd(ctx)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 2, ctrl.Len())
}

func TestControllerAppliesResultAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ctrl := New(func(fetchCtx context.Context, offset, limit int) ([]int, error) {
		cancel()
		select {
		case <-fetchCtx.Done():
			return nil, fetchCtx.Err()
		case <-time.After(10 * time.Millisecond):
		}
		return []int{9, 8, 7}, nil
	})

	ctrl.LoadMore(ctx)
	assert.Equal(t, 3, ctrl.Len())
	assert.Equal(t, StateExhausted, ctrl.State())
}

func TestSnapshotIsACopy(t *testing.T) {
	src := newSliceSource(3)
	ctrl := New(src.fetch)
	ctrl.LoadMore(context.Background())

	page := ctrl.Snapshot()
	page.Items[0] = -1

	assert.Equal(t, 3, ctrl.Snapshot().Items[0])
}
