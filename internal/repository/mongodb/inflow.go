package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// InsertInflow stores a new inflow record.
func (r *MongoDBRepository) InsertInflow(ctx context.Context, record models.InflowRecord) error {
	return r.insert(ctx, inflowCollection, record)
}

// GetInflow loads one inflow record.
func (r *MongoDBRepository) GetInflow(ctx context.Context, id string) (models.InflowRecord, error) {
	var record models.InflowRecord
	err := r.findByID(ctx, inflowCollection, id, &record)
	return record, err
}

// UpdateInflow replaces an inflow record.
func (r *MongoDBRepository) UpdateInflow(ctx context.Context, record models.InflowRecord) error {
	return r.replaceByID(ctx, inflowCollection, record.ID, record)
}

// DeleteInflow removes an inflow record.
func (r *MongoDBRepository) DeleteInflow(ctx context.Context, id string) error {
	return r.deleteByID(ctx, inflowCollection, id)
}

// ListInflow returns a newest-first range of inflow records.
func (r *MongoDBRepository) ListInflow(ctx context.Context, offset, limit int) ([]models.InflowRecord, error) {
	var records []models.InflowRecord
	err := r.findAll(ctx, inflowCollection, bson.M{}, pageOptions(offset, limit), &records)
	return records, err
}

// SearchInflow matches query case-insensitively anywhere inside field.
func (r *MongoDBRepository) SearchInflow(ctx context.Context, field models.SearchField, query string, limit int) ([]models.InflowRecord, error) {
	filter := bson.M{string(field): primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))

	var records []models.InflowRecord
	if err := r.findAll(ctx, inflowCollection, filter, opts, &records); err != nil {
		return nil, fmt.Errorf("search inflow by %s: %w", field, err)
	}
	return records, nil
}

// FetchPage returns a newest-first range of either collection projected to list rows.
func (r *MongoDBRepository) FetchPage(ctx context.Context, collection models.Collection, offset, limit int) ([]models.ListItem, error) {
	var name string
	switch collection {
	case models.CollectionInflow:
		name = inflowCollection
	case models.CollectionOutflow:
		name = outflowCollection
	default:
		return nil, fmt.Errorf("fetch page: unknown collection %q", collection)
	}

	var items []models.ListItem
	err := r.findAll(ctx, name, bson.M{}, pageOptions(offset, limit), &items)
	return items, err
}
