package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

const weeklyReports = "weekly_reports"

// Repository archives weekly report snapshots.
type Repository interface {
	SaveWeeklyReport(ctx context.Context, report *models.WeeklyReport) error
	LatestWeeklyReports(ctx context.Context, limit int64) ([]models.WeeklyReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: weeklyReports,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveWeeklyReport stores a snapshot of the report.
func (r *MongoDBRepository) SaveWeeklyReport(ctx context.Context, report *models.WeeklyReport) error {
	if _, err := r.collection().InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert weekly report: %w", err)
	}
	return nil
}

// LatestWeeklyReports returns up to limit snapshots, newest period first.
func (r *MongoDBRepository) LatestWeeklyReports(ctx context.Context, limit int64) ([]models.WeeklyReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "period_end", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find weekly reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []models.WeeklyReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode weekly reports: %w", err)
	}
	return reports, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
