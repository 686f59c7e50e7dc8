package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository"
)

func TestFetchPageOrdersNewestFirstWithIDTieBreak(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		require.NoError(t, s.InsertInflow(ctx, models.InflowRecord{
			ID:        fmt.Sprintf("r%d", i),
			CreatedAt: base.Add(time.Duration(i/2) * time.Minute),
		}))
	}

	first, err := s.FetchPage(ctx, models.CollectionInflow, 0, 5)
	require.NoError(t, err)
	second, err := s.FetchPage(ctx, models.CollectionInflow, 5, 5)
	require.NoError(t, err)

	var ids []string
	for _, item := range append(first, second...) {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"r6", "r5", "r4", "r3", "r2", "r1", "r0"}, ids)

	empty, err := s.FetchPage(ctx, models.CollectionOutflow, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.FetchPage(ctx, models.Collection("bogus"), 0, 5)
	assert.Error(t, err)
}

func TestFailNextInjectsErrorsInOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	s.FailNext("DeleteInflow", boom)
	require.NoError(t, s.InsertInflow(ctx, models.InflowRecord{ID: "a"}))

	assert.ErrorIs(t, s.DeleteInflow(ctx, "a"), boom)
	assert.NoError(t, s.DeleteInflow(ctx, "a"))
	assert.ErrorIs(t, s.DeleteInflow(ctx, "a"), repository.ErrNotFound)
	assert.Equal(t, 3, s.Calls("DeleteInflow"))
}

func TestOutflowsBetweenIsHalfOpen(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertOutflow(ctx, models.OutflowRecord{ID: "before", OutflowDate: day.Add(-time.Second)}))
	require.NoError(t, s.InsertOutflow(ctx, models.OutflowRecord{ID: "start", OutflowDate: day}))
	require.NoError(t, s.InsertOutflow(ctx, models.OutflowRecord{ID: "end", OutflowDate: day.AddDate(0, 0, 1)}))

	got, err := s.OutflowsBetween(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "start", got[0].ID)
}
