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

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = model.NewID()
	}
	doc, err := newOrderDoc(o)
	if err != nil {
		return appErrors.NewValidation("invalid amount: %v", err)
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return appErrors.NewPersistence("insert order", err)
}

func (r *OrderRepository) List(ctx context.Context, customerID string) ([]model.Order, error) {
	filter := bson.M{}
	if customerID != "" {
		filter["customerId"] = customerID
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, appErrors.NewPersistence("find orders", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, appErrors.NewPersistence("decode orders", err)
	}
	out := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return appErrors.NewPersistence("delete orders", err)
}

var _ repository.OrderRepositoryInterface = (*OrderRepository)(nil)
