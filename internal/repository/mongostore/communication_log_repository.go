package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CommunicationLogRepository struct {
	collection *mongo.Collection
}

func NewCommunicationLogRepository(db *mongo.Database) *CommunicationLogRepository {
	return &CommunicationLogRepository{collection: db.Collection(logsCollection)}
}

func (r *CommunicationLogRepository) Create(ctx context.Context, l *model.CommunicationLog) error {
	if l.ID == "" {
		l.ID = model.NewID()
	}
	_, err := r.collection.InsertOne(ctx, logDoc(*l))
	return appErrors.NewPersistence("insert communication log", err)
}

func (r *CommunicationLogRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.CommunicationLog, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"campaignId": campaignID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, appErrors.NewPersistence("find communication logs", err)
	}
	defer cursor.Close(ctx)

	var docs []logDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, appErrors.NewPersistence("decode communication logs", err)
	}
	out := make([]model.CommunicationLog, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.CommunicationLog(d))
	}
	return out, nil
}

func (r *CommunicationLogRepository) CountByStatus(ctx context.Context, campaignID string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"campaignId": campaignID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, appErrors.NewPersistence("aggregate communication logs", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, appErrors.NewPersistence("decode log stats", err)
	}
	stats := repository.EmptyStats()
	for _, row := range rows {
		stats[row.Status] = row.Count
	}
	return stats, nil
}

var _ repository.CommunicationLogRepositoryInterface = (*CommunicationLogRepository)(nil)
