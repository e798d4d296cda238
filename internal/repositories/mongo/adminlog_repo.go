package mongo

import (
	"context"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AdminLogRepository interface {
	Insert(ctx context.Context, l *models.AdminLog) error
	List(ctx context.Context, resourceType string, limit int) ([]models.AdminLog, error)
}

type adminLogRepo struct {
	col *mongo.Collection
}

func NewAdminLogRepo(db *mongo.Database) AdminLogRepository {
	return &adminLogRepo{col: db.Collection("admin_logs")}
}

func (r *adminLogRepo) Insert(ctx context.Context, l *models.AdminLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, l)
	return err
}

func (r *adminLogRepo) List(ctx context.Context, resourceType string, limit int) ([]models.AdminLog, error) {
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if resourceType != "" {
		filter["resource_type"] = resourceType
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.AdminLog
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
