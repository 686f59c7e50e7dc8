package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository"
	"github.com/mamadbah2/warehouse/internal/repository/memory"
	"github.com/mamadbah2/warehouse/internal/service/settings"
)

type fixture struct {
	store    *memory.Store
	svc      *Service
	itemType models.ItemType
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	catalog := settings.NewService(store, nil)
	_, err := catalog.AddStorageArea(ctx, "a1")
	require.NoError(t, err)
	itemType, err := catalog.AddItemType(ctx, "Rice")
	require.NoError(t, err)

	svc := NewService(store, catalog, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }
	return fixture{store: store, svc: svc, itemType: itemType}
}

func (f fixture) input() models.InflowInput {
	return models.InflowInput{
		Name:         "Ramesh",
		MobileNumber: "9876543210",
		Quantity:     3,
		AreaStored:   "A1",
		ItemTypeID:   f.itemType.ID,
	}
}

func TestCreateInflow(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.CreateInflow(context.Background(), models.User{ID: "u-1"}, f.input())
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "u-1", record.UserID)
	assert.Equal(t, "a1", record.AreaStored)
	assert.Equal(t, "Rice", record.ItemTypeName)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), record.InflowDate)

	stored, err := f.store.GetInflow(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func TestCreateInflowValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*models.InflowInput)
	}{
		{"missing name", func(in *models.InflowInput) { in.Name = "  " }},
		{"missing mobile", func(in *models.InflowInput) { in.MobileNumber = "" }},
		{"zero quantity", func(in *models.InflowInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *models.InflowInput) { in.Quantity = -2 }},
		{"unknown area", func(in *models.InflowInput) { in.AreaStored = "z9" }},
		{"missing item type", func(in *models.InflowInput) { in.ItemTypeID = "" }},
		{"unknown item type", func(in *models.InflowInput) { in.ItemTypeID = "nope" }},
		{"bad date", func(in *models.InflowInput) { in.InflowDate = "10-03-2024" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mutate(&in)
			_, err := f.svc.CreateInflow(context.Background(), models.User{ID: "u-1"}, in)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
	assert.Zero(t, f.store.Calls("InsertInflow"))
}

func TestUpdateInflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateInflow(ctx, models.User{ID: "u-1"}, f.input())
	require.NoError(t, err)

	in := f.input()
	in.Quantity = 7
	in.InflowDate = "2024-01-05"
	updated, err := f.svc.UpdateInflow(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), updated.InflowDate)

	_, err = f.svc.UpdateInflow(ctx, "missing", in)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSearchInflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < MaxSearchResults+5; i++ {
		in := f.input()
		in.Name = fmt.Sprintf("Kumar %d", i)
		_, err := f.svc.CreateInflow(ctx, models.User{ID: "u-1"}, in)
		require.NoError(t, err)
	}

	found, err := f.svc.SearchInflow(ctx, models.SearchByName, "kumar")
	require.NoError(t, err)
	assert.Len(t, found, MaxSearchResults)

	_, err = f.svc.SearchInflow(ctx, models.SearchField("area_stored"), "a1")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.SearchInflow(ctx, models.SearchByMobile, " ")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestListRangeClamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListInflow(ctx, -1, 10)
	assert.ErrorIs(t, err, models.ErrValidation)

	records, err := f.svc.ListOutflow(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteInflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateInflow(ctx, models.User{ID: "u-1"}, f.input())
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteInflow(ctx, created.ID))

	_, err = f.svc.GetInflow(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
