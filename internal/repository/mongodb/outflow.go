package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// InsertOutflow stores an outflow record. Inserting the same id twice yields
// repository.ErrDuplicate.
func (r *MongoDBRepository) InsertOutflow(ctx context.Context, record models.OutflowRecord) error {
	return r.insert(ctx, outflowCollection, record)
}

// GetOutflow loads one outflow record.
func (r *MongoDBRepository) GetOutflow(ctx context.Context, id string) (models.OutflowRecord, error) {
	var record models.OutflowRecord
	err := r.findByID(ctx, outflowCollection, id, &record)
	return record, err
}

// ListOutflow returns a newest-first range of outflow records.
func (r *MongoDBRepository) ListOutflow(ctx context.Context, offset, limit int) ([]models.OutflowRecord, error) {
	var records []models.OutflowRecord
	err := r.findAll(ctx, outflowCollection, bson.M{}, pageOptions(offset, limit), &records)
	return records, err
}

// OutflowsBetween returns records whose outflow date lies in [from, to), oldest first.
func (r *MongoDBRepository) OutflowsBetween(ctx context.Context, from, to time.Time) ([]models.OutflowRecord, error) {
	filter := bson.M{"outflow_date": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "outflow_date", Value: 1}, {Key: "created_at", Value: 1}})

	var records []models.OutflowRecord
	err := r.findAll(ctx, outflowCollection, filter, opts, &records)
	return records, err
}
