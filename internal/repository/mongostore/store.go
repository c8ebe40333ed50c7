// Package mongostore persists the CRM collections in MongoDB.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unclebandit/campaign-crm/internal/repository"
)

const (
	customersCollection = "customers"
	campaignsCollection = "campaigns"
	logsCollection      = "communication_logs"
	ordersCollection    = "orders"
)

// Connect dials MongoDB and checks the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// New builds a store on db and makes sure the indexes exist.
func New(ctx context.Context, client *mongo.Client, db *mongo.Database) (*repository.Store, error) {
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return repository.NewStore(
		NewCustomerRepository(db),
		NewCampaignRepository(db),
		NewCommunicationLogRepository(db),
		NewOrderRepository(db),
		client.Disconnect,
	), nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		customersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		campaignsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		logsCollection: {
			{Keys: bson.D{{Key: "campaignId", Value: 1}}},
			{Keys: bson.D{{Key: "customerId", Value: 1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "customerId", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
