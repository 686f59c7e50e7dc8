package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository"
)

var areaCodePattern = regexp.MustCompile(`^[a-z0-9-]{1,16}$`)

// Store is the persistence required for settings.
type Store interface {
	ListStorageAreas(ctx context.Context) ([]models.StorageArea, error)
	InsertStorageArea(ctx context.Context, area models.StorageArea) error
	DeleteStorageArea(ctx context.Context, id string) error
	StorageAreaExists(ctx context.Context, code string) (bool, error)

	ListItemTypes(ctx context.Context) ([]models.ItemType, error)
	GetItemType(ctx context.Context, id string) (models.ItemType, error)
	InsertItemType(ctx context.Context, itemType models.ItemType) error
	DeleteItemType(ctx context.Context, id string) error
}

// Service manages storage area codes and item types.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new settings service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// StorageAreas lists configured storage areas ordered by code.
func (s *Service) StorageAreas(ctx context.Context) ([]models.StorageArea, error) {
	return s.store.ListStorageAreas(ctx)
}

// AddStorageArea normalises and stores a new storage area code.
func (s *Service) AddStorageArea(ctx context.Context, code string) (models.StorageArea, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !areaCodePattern.MatchString(code) {
		return models.StorageArea{}, models.Invalid("area code %q must be 1-16 lowercase letters, digits or dashes", code)
	}

	area := models.StorageArea{ID: uuid.NewString(), Code: code, CreatedAt: s.now().UTC()}
	if err := s.store.InsertStorageArea(ctx, area); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.StorageArea{}, fmt.Errorf("storage area %q already exists: %w", code, err)
		}
		return models.StorageArea{}, err
	}

	s.logger.Info("storage area added", zap.String("area_code", code))
	return area, nil
}

// DeleteStorageArea removes a storage area. Existing records keep their code.
func (s *Service) DeleteStorageArea(ctx context.Context, id string) error {
	if err := s.store.DeleteStorageArea(ctx, id); err != nil {
		return err
	}
	s.logger.Info("storage area deleted", zap.String("id", id))
	return nil
}

// HasStorageArea reports whether code is configured.
func (s *Service) HasStorageArea(ctx context.Context, code string) (bool, error) {
	return s.store.StorageAreaExists(ctx, code)
}

// ItemTypes lists item types ordered by name.
func (s *Service) ItemTypes(ctx context.Context) ([]models.ItemType, error) {
	return s.store.ListItemTypes(ctx)
}

// ItemType loads one item type.
func (s *Service) ItemType(ctx context.Context, id string) (models.ItemType, error) {
	return s.store.GetItemType(ctx, id)
}

// AddItemType stores a new item type.
func (s *Service) AddItemType(ctx context.Context, name string) (models.ItemType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ItemType{}, models.Invalid("item type name is required")
	}

	itemType := models.ItemType{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.InsertItemType(ctx, itemType); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.ItemType{}, fmt.Errorf("item type %q already exists: %w", name, err)
		}
		return models.ItemType{}, err
	}

	s.logger.Info("item type added", zap.String("name", name))
	return itemType, nil
}

// DeleteItemType removes an item type.
func (s *Service) DeleteItemType(ctx context.Context, id string) error {
	if err := s.store.DeleteItemType(ctx, id); err != nil {
		return err
	}
	s.logger.Info("item type deleted", zap.String("id", id))
	return nil
}
