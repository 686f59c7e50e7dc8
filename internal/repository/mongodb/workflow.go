package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// InsertWorkflow stores a new outflow workflow.
func (r *MongoDBRepository) InsertWorkflow(ctx context.Context, wf models.OutflowWorkflow) error {
	return r.insert(ctx, workflowCollection, wf)
}

// SaveWorkflow replaces the stored workflow with wf.
func (r *MongoDBRepository) SaveWorkflow(ctx context.Context, wf models.OutflowWorkflow) error {
	return r.replaceByID(ctx, workflowCollection, wf.ID, wf)
}

// GetWorkflow loads one workflow.
func (r *MongoDBRepository) GetWorkflow(ctx context.Context, id string) (models.OutflowWorkflow, error) {
	var wf models.OutflowWorkflow
	err := r.findByID(ctx, workflowCollection, id, &wf)
	return wf, err
}

// StaleWorkflows returns non-terminal workflows last updated before cutoff, oldest first.
func (r *MongoDBRepository) StaleWorkflows(ctx context.Context, cutoff time.Time, limit int) ([]models.OutflowWorkflow, error) {
	filter := bson.M{
		"state": bson.M{"$in": []models.WorkflowState{
			models.WorkflowPending,
			models.WorkflowOutflowRecorded,
			models.WorkflowInflowCleared,
		}},
		"updated_at": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}).SetLimit(int64(limit))

	var workflows []models.OutflowWorkflow
	err := r.findAll(ctx, workflowCollection, filter, opts, &workflows)
	return workflows, err
}
