package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository"
)

const (
	// MaxSearchResults caps the rows returned by SearchInflow.
	MaxSearchResults = 50
	// MaxListLimit caps the limit accepted by the direct range queries.
	MaxListLimit = 100
)

// Store is the persistence required for inflow and outflow records.
type Store interface {
	InsertInflow(ctx context.Context, record models.InflowRecord) error
	GetInflow(ctx context.Context, id string) (models.InflowRecord, error)
	UpdateInflow(ctx context.Context, record models.InflowRecord) error
	DeleteInflow(ctx context.Context, id string) error
	ListInflow(ctx context.Context, offset, limit int) ([]models.InflowRecord, error)
	SearchInflow(ctx context.Context, field models.SearchField, query string, limit int) ([]models.InflowRecord, error)
	ListOutflow(ctx context.Context, offset, limit int) ([]models.OutflowRecord, error)
}

// Catalog resolves the configured storage areas and item types.
type Catalog interface {
	HasStorageArea(ctx context.Context, code string) (bool, error)
	ItemType(ctx context.Context, id string) (models.ItemType, error)
}

// Service manages inflow records.
type Service struct {
	store    Store
	catalog  Catalog
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new inventory service. location decides what "today" means
// when no inflow date is supplied.
func NewService(store Store, catalog Catalog, location *time.Location, logger *zap.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, location: location, logger: logger, now: time.Now}
}

// CreateInflow validates input and stores a new inflow record owned by user.
func (s *Service) CreateInflow(ctx context.Context, user models.User, input models.InflowInput) (models.InflowRecord, error) {
	record := models.InflowRecord{ID: uuid.NewString(), UserID: user.ID}
	if err := s.apply(ctx, &record, input); err != nil {
		return models.InflowRecord{}, err
	}
	record.CreatedAt = s.now().UTC()

	if err := s.store.InsertInflow(ctx, record); err != nil {
		return models.InflowRecord{}, fmt.Errorf("create inflow: %w", err)
	}

	s.logger.Info("inflow recorded",
		zap.String("id", record.ID),
		zap.String("area_stored", record.AreaStored),
		zap.Int("quantity", record.Quantity),
	)
	return record, nil
}

// UpdateInflow edits the mutable fields of an existing inflow record.
func (s *Service) UpdateInflow(ctx context.Context, id string, input models.InflowInput) (models.InflowRecord, error) {
	record, err := s.store.GetInflow(ctx, id)
	if err != nil {
		return models.InflowRecord{}, err
	}
	if err := s.apply(ctx, &record, input); err != nil {
		return models.InflowRecord{}, err
	}
	if err := s.store.UpdateInflow(ctx, record); err != nil {
		return models.InflowRecord{}, fmt.Errorf("update inflow: %w", err)
	}

	s.logger.Info("inflow updated", zap.String("id", id))
	return record, nil
}

// GetInflow loads one inflow record.
func (s *Service) GetInflow(ctx context.Context, id string) (models.InflowRecord, error) {
	return s.store.GetInflow(ctx, id)
}

// DeleteInflow removes an inflow record without creating an outflow.
func (s *Service) DeleteInflow(ctx context.Context, id string) error {
	if err := s.store.DeleteInflow(ctx, id); err != nil {
		return err
	}
	s.logger.Info("inflow deleted", zap.String("id", id))
	return nil
}

// SearchInflow matches query case-insensitively inside the chosen field.
func (s *Service) SearchInflow(ctx context.Context, field models.SearchField, query string) ([]models.InflowRecord, error) {
	if field != models.SearchByName && field != models.SearchByMobile {
		return nil, models.Invalid("search field must be %q or %q", models.SearchByName, models.SearchByMobile)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.Invalid("search query is required")
	}
	return s.store.SearchInflow(ctx, field, query, MaxSearchResults)
}

// ListInflow returns a newest-first range of inflow records.
func (s *Service) ListInflow(ctx context.Context, offset, limit int) ([]models.InflowRecord, error) {
	offset, limit, err := clampRange(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.store.ListInflow(ctx, offset, limit)
}

// ListOutflow returns a newest-first range of outflow records.
func (s *Service) ListOutflow(ctx context.Context, offset, limit int) ([]models.OutflowRecord, error) {
	offset, limit, err := clampRange(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.store.ListOutflow(ctx, offset, limit)
}

func clampRange(offset, limit int) (int, int, error) {
	if offset < 0 {
		return 0, 0, models.Invalid("offset must not be negative")
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return offset, limit, nil
}

// apply validates input and copies it onto record.
func (s *Service) apply(ctx context.Context, record *models.InflowRecord, input models.InflowInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Invalid("name is required")
	}
	mobile := strings.TrimSpace(input.MobileNumber)
	if mobile == "" {
		return models.Invalid("mobile_number is required")
	}
	if input.Quantity <= 0 {
		return models.Invalid("quantity must be a positive integer")
	}

	area := strings.ToLower(strings.TrimSpace(input.AreaStored))
	if area == "" {
		return models.Invalid("area_stored is required")
	}
	ok, err := s.catalog.HasStorageArea(ctx, area)
	if err != nil {
		return fmt.Errorf("check storage area: %w", err)
	}
	if !ok {
		return models.Invalid("area_stored %q is not a configured storage area", area)
	}

	itemType, err := s.resolveItemType(ctx, input.ItemTypeID)
	if err != nil {
		return err
	}

	inflowDate, err := models.ParseDate("inflow_date", input.InflowDate, s.now().In(s.location))
	if err != nil {
		return err
	}

	record.Name = name
	record.MobileNumber = mobile
	record.Quantity = input.Quantity
	record.AreaStored = area
	record.ItemTypeID = itemType.ID
	record.ItemTypeName = itemType.Name
	record.InflowDate = inflowDate
	return nil
}

func (s *Service) resolveItemType(ctx context.Context, id string) (models.ItemType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.ItemType{}, models.Invalid("item_type_id is required")
	}
	itemType, err := s.catalog.ItemType(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ItemType{}, models.Invalid("item_type_id %q does not exist", id)
		}
		return models.ItemType{}, fmt.Errorf("load item type: %w", err)
	}
	return itemType, nil
}
