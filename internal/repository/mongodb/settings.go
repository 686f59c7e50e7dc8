package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// ListStorageAreas returns every storage area ordered by code.
func (r *MongoDBRepository) ListStorageAreas(ctx context.Context) ([]models.StorageArea, error) {
	var areas []models.StorageArea
	opts := options.Find().SetSort(bson.D{{Key: "area_code", Value: 1}})
	err := r.findAll(ctx, storageAreaCollection, bson.M{}, opts, &areas)
	return areas, err
}

// InsertStorageArea stores a storage area; duplicate codes are rejected.
func (r *MongoDBRepository) InsertStorageArea(ctx context.Context, area models.StorageArea) error {
	return r.insert(ctx, storageAreaCollection, area)
}

// DeleteStorageArea removes a storage area.
func (r *MongoDBRepository) DeleteStorageArea(ctx context.Context, id string) error {
	return r.deleteByID(ctx, storageAreaCollection, id)
}

// StorageAreaExists reports whether code is configured.
func (r *MongoDBRepository) StorageAreaExists(ctx context.Context, code string) (bool, error) {
	err := r.collection(storageAreaCollection).FindOne(ctx, bson.M{"area_code": code}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup storage area %s: %w", code, err)
	}
	return true, nil
}

// ListItemTypes returns every item type ordered by name.
func (r *MongoDBRepository) ListItemTypes(ctx context.Context) ([]models.ItemType, error) {
	var types []models.ItemType
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	err := r.findAll(ctx, itemTypeCollection, bson.M{}, opts, &types)
	return types, err
}

// GetItemType loads one item type.
func (r *MongoDBRepository) GetItemType(ctx context.Context, id string) (models.ItemType, error) {
	var itemType models.ItemType
	err := r.findByID(ctx, itemTypeCollection, id, &itemType)
	return itemType, err
}

// InsertItemType stores an item type; duplicate names are rejected.
func (r *MongoDBRepository) InsertItemType(ctx context.Context, itemType models.ItemType) error {
	return r.insert(ctx, itemTypeCollection, itemType)
}

// DeleteItemType removes an item type.
func (r *MongoDBRepository) DeleteItemType(ctx context.Context, id string) error {
	return r.deleteByID(ctx, itemTypeCollection, id)
}
