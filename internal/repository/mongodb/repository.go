package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/repository"
)

const (
	inflowCollection      = "inflow"
	outflowCollection     = "outflow"
	storageAreaCollection = "storage_areas"
	itemTypeCollection    = "item_types"
	workflowCollection    = "outflow_workflows"
)

// newestFirst orders records by creation time, with the id as a tie breaker so
// successive pages never overlap.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// MongoDBRepository persists every warehouse collection in one MongoDB database.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects, verifies the connection and ensures indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	byCreation := mongo.IndexModel{Keys: newestFirst}

	indexes := map[string][]mongo.IndexModel{
		inflowCollection: {byCreation},
		outflowCollection: {
			byCreation,
			{Keys: bson.D{{Key: "outflow_date", Value: 1}}},
		},
		storageAreaCollection: {
			{Keys: bson.D{{Key: "area_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		itemTypeCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		workflowCollection: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}

	r.logger.Debug("mongodb indexes ensured")
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func (r *MongoDBRepository) insert(ctx context.Context, coll string, doc any) error {
	if _, err := r.collection(coll).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert into %s: %w", coll, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert into %s: %w", coll, err)
	}
	return nil
}

func (r *MongoDBRepository) findByID(ctx context.Context, coll, id string, out any) error {
	err := r.collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("find %s %s: %w", coll, id, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", coll, id, err)
	}
	return nil
}

func (r *MongoDBRepository) replaceByID(ctx context.Context, coll, id string, doc any) error {
	res, err := r.collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("replace %s %s: %w", coll, id, repository.ErrDuplicate)
		}
		return fmt.Errorf("replace %s %s: %w", coll, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace %s %s: %w", coll, id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) deleteByID(ctx context.Context, coll, id string) error {
	res, err := r.collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s %s: %w", coll, id, repository.ErrNotFound)
	}
	return nil
}

// findAll runs a query and decodes every document into out, a pointer to a slice.
func (r *MongoDBRepository) findAll(ctx context.Context, coll string, filter any, opts *options.FindOptions, out any) error {
	cursor, err := r.collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", coll, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// pageOptions builds a newest-first range query.
func pageOptions(offset, limit int) *options.FindOptions {
	return options.Find().
		SetSort(newestFirst).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}
