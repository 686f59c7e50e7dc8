// Package memory is an in-process implementation of the warehouse repositories
// with the same ordering and error semantics as the MongoDB adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository"
)

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu        sync.Mutex
	inflow    map[string]models.InflowRecord
	outflow   map[string]models.OutflowRecord
	areas     map[string]models.StorageArea
	itemTypes map[string]models.ItemType
	workflows map[string]models.OutflowWorkflow

	failures map[string][]error
	calls    map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		inflow:    map[string]models.InflowRecord{},
		outflow:   map[string]models.OutflowRecord{},
		areas:     map[string]models.StorageArea{},
		itemTypes: map[string]models.ItemType{},
		workflows: map[string]models.OutflowWorkflow{},
		failures:  map[string][]error{},
		calls:     map[string]int{},
	}
}

// FailNext makes the next len(errs) calls of op return errs in order.
// op is the method name, e.g. "DeleteInflow".
func (s *Store) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records a call and pops an injected failure. Callers hold s.mu.
func (s *Store) enter(op string) error {
	s.calls[op]++
	if queue := s.failures[op]; len(queue) > 0 {
		s.failures[op] = queue[1:]
		return queue[0]
	}
	return nil
}

func newerFirst(aCreated time.Time, aID string, bCreated time.Time, bID string) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[offset:end]...)
}

// InsertInflow stores a new inflow record.
func (s *Store) InsertInflow(_ context.Context, record models.InflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertInflow"); err != nil {
		return err
	}
	if _, ok := s.inflow[record.ID]; ok {
		return fmt.Errorf("insert into inflow: %w", repository.ErrDuplicate)
	}
	s.inflow[record.ID] = record
	return nil
}

// GetInflow loads one inflow record.
func (s *Store) GetInflow(_ context.Context, id string) (models.InflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetInflow"); err != nil {
		return models.InflowRecord{}, err
	}
	record, ok := s.inflow[id]
	if !ok {
		return models.InflowRecord{}, fmt.Errorf("find inflow %s: %w", id, repository.ErrNotFound)
	}
	return record, nil
}

// UpdateInflow replaces an inflow record.
func (s *Store) UpdateInflow(_ context.Context, record models.InflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateInflow"); err != nil {
		return err
	}
	if _, ok := s.inflow[record.ID]; !ok {
		return fmt.Errorf("replace inflow %s: %w", record.ID, repository.ErrNotFound)
	}
	s.inflow[record.ID] = record
	return nil
}

// DeleteInflow removes an inflow record.
func (s *Store) DeleteInflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteInflow"); err != nil {
		return err
	}
	if _, ok := s.inflow[id]; !ok {
		return fmt.Errorf("delete inflow %s: %w", id, repository.ErrNotFound)
	}
	delete(s.inflow, id)
	return nil
}

func (s *Store) sortedInflow() []models.InflowRecord {
	out := make([]models.InflowRecord, 0, len(s.inflow))
	for _, r := range s.inflow {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (s *Store) sortedOutflow() []models.OutflowRecord {
	out := make([]models.OutflowRecord, 0, len(s.outflow))
	for _, r := range s.outflow {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

// ListInflow returns a newest-first range of inflow records.
func (s *Store) ListInflow(_ context.Context, offset, limit int) ([]models.InflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListInflow"); err != nil {
		return nil, err
	}
	return window(s.sortedInflow(), offset, limit), nil
}

// SearchInflow matches query case-insensitively anywhere inside field.
func (s *Store) SearchInflow(_ context.Context, field models.SearchField, query string, limit int) ([]models.InflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SearchInflow"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	out := []models.InflowRecord{}
	for _, r := range s.sortedInflow() {
		value := r.Name
		if field == models.SearchByMobile {
			value = r.MobileNumber
		}
		if strings.Contains(strings.ToLower(value), needle) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// FetchPage returns a newest-first range of either collection projected to list rows.
func (s *Store) FetchPage(_ context.Context, collection models.Collection, offset, limit int) ([]models.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FetchPage"); err != nil {
		return nil, err
	}

	var items []models.ListItem
	switch collection {
	case models.CollectionInflow:
		for _, r := range s.sortedInflow() {
			items = append(items, models.ListItem{
				ID: r.ID, Name: r.Name, MobileNumber: r.MobileNumber, Quantity: r.Quantity,
				AreaStored: r.AreaStored, ItemTypeName: r.ItemTypeName, CreatedAt: r.CreatedAt,
			})
		}
	case models.CollectionOutflow:
		for _, r := range s.sortedOutflow() {
			items = append(items, models.ListItem{
				ID: r.ID, Name: r.Name, MobileNumber: r.MobileNumber, Quantity: r.Quantity,
				AreaStored: r.AreaStored, ItemTypeName: r.ItemTypeName, TotalPrice: r.TotalPrice,
				CreatedAt: r.CreatedAt,
			})
		}
	default:
		return nil, fmt.Errorf("fetch page: unknown collection %q", collection)
	}
	return window(items, offset, limit), nil
}

// InsertOutflow stores an outflow record.
func (s *Store) InsertOutflow(_ context.Context, record models.OutflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertOutflow"); err != nil {
		return err
	}
	if _, ok := s.outflow[record.ID]; ok {
		return fmt.Errorf("insert into outflow: %w", repository.ErrDuplicate)
	}
	s.outflow[record.ID] = record
	return nil
}

// GetOutflow loads one outflow record.
func (s *Store) GetOutflow(_ context.Context, id string) (models.OutflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOutflow"); err != nil {
		return models.OutflowRecord{}, err
	}
	record, ok := s.outflow[id]
	if !ok {
		return models.OutflowRecord{}, fmt.Errorf("find outflow %s: %w", id, repository.ErrNotFound)
	}
	return record, nil
}

// ListOutflow returns a newest-first range of outflow records.
func (s *Store) ListOutflow(_ context.Context, offset, limit int) ([]models.OutflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListOutflow"); err != nil {
		return nil, err
	}
	return window(s.sortedOutflow(), offset, limit), nil
}

// OutflowsBetween returns records whose outflow date lies in [from, to), oldest first.
func (s *Store) OutflowsBetween(_ context.Context, from, to time.Time) ([]models.OutflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("OutflowsBetween"); err != nil {
		return nil, err
	}
	out := []models.OutflowRecord{}
	for _, r := range s.outflow {
		if !r.OutflowDate.Before(from) && r.OutflowDate.Before(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OutflowDate.Equal(out[j].OutflowDate) {
			return out[i].OutflowDate.Before(out[j].OutflowDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListStorageAreas returns every storage area ordered by code.
func (s *Store) ListStorageAreas(_ context.Context) ([]models.StorageArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListStorageAreas"); err != nil {
		return nil, err
	}
	out := make([]models.StorageArea, 0, len(s.areas))
	for _, a := range s.areas {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// InsertStorageArea stores a storage area; duplicate codes are rejected.
func (s *Store) InsertStorageArea(_ context.Context, area models.StorageArea) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertStorageArea"); err != nil {
		return err
	}
	for _, a := range s.areas {
		if a.Code == area.Code {
			return fmt.Errorf("insert into storage_areas: %w", repository.ErrDuplicate)
		}
	}
	s.areas[area.ID] = area
	return nil
}

// DeleteStorageArea removes a storage area.
func (s *Store) DeleteStorageArea(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteStorageArea"); err != nil {
		return err
	}
	if _, ok := s.areas[id]; !ok {
		return fmt.Errorf("delete storage_areas %s: %w", id, repository.ErrNotFound)
	}
	delete(s.areas, id)
	return nil
}

// StorageAreaExists reports whether code is configured.
func (s *Store) StorageAreaExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("StorageAreaExists"); err != nil {
		return false, err
	}
	for _, a := range s.areas {
		if a.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// ListItemTypes returns every item type ordered by name.
func (s *Store) ListItemTypes(_ context.Context) ([]models.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListItemTypes"); err != nil {
		return nil, err
	}
	out := make([]models.ItemType, 0, len(s.itemTypes))
	for _, t := range s.itemTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetItemType loads one item type.
func (s *Store) GetItemType(_ context.Context, id string) (models.ItemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetItemType"); err != nil {
		return models.ItemType{}, err
	}
	t, ok := s.itemTypes[id]
	if !ok {
		return models.ItemType{}, fmt.Errorf("find item_types %s: %w", id, repository.ErrNotFound)
	}
	return t, nil
}

// InsertItemType stores an item type; duplicate names are rejected.
func (s *Store) InsertItemType(_ context.Context, itemType models.ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertItemType"); err != nil {
		return err
	}
	for _, t := range s.itemTypes {
		if t.Name == itemType.Name {
			return fmt.Errorf("insert into item_types: %w", repository.ErrDuplicate)
		}
	}
	s.itemTypes[itemType.ID] = itemType
	return nil
}

// DeleteItemType removes an item type.
func (s *Store) DeleteItemType(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteItemType"); err != nil {
		return err
	}
	if _, ok := s.itemTypes[id]; !ok {
		return fmt.Errorf("delete item_types %s: %w", id, repository.ErrNotFound)
	}
	delete(s.itemTypes, id)
	return nil
}

// InsertWorkflow stores a new outflow workflow.
func (s *Store) InsertWorkflow(_ context.Context, wf models.OutflowWorkflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertWorkflow"); err != nil {
		return err
	}
	if _, ok := s.workflows[wf.ID]; ok {
		return fmt.Errorf("insert into outflow_workflows: %w", repository.ErrDuplicate)
	}
	s.workflows[wf.ID] = wf
	return nil
}

// SaveWorkflow replaces the stored workflow with wf.
func (s *Store) SaveWorkflow(_ context.Context, wf models.OutflowWorkflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SaveWorkflow"); err != nil {
		return err
	}
	if _, ok := s.workflows[wf.ID]; !ok {
		return fmt.Errorf("replace outflow_workflows %s: %w", wf.ID, repository.ErrNotFound)
	}
	s.workflows[wf.ID] = wf
	return nil
}

// GetWorkflow loads one workflow.
func (s *Store) GetWorkflow(_ context.Context, id string) (models.OutflowWorkflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetWorkflow"); err != nil {
		return models.OutflowWorkflow{}, err
	}
	wf, ok := s.workflows[id]
	if !ok {
		return models.OutflowWorkflow{}, fmt.Errorf("find outflow_workflows %s: %w", id, repository.ErrNotFound)
	}
	return wf, nil
}

// StaleWorkflows returns non-terminal workflows last updated before cutoff, oldest first.
func (s *Store) StaleWorkflows(_ context.Context, cutoff time.Time, limit int) ([]models.OutflowWorkflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("StaleWorkflows"); err != nil {
		return nil, err
	}
	out := []models.OutflowWorkflow{}
	for _, wf := range s.workflows {
		if !wf.State.Terminal() && wf.UpdatedAt.Before(cutoff) {
			out = append(out, wf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
