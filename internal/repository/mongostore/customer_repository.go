package mongostore

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CustomerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{collection: db.Collection(customersCollection)}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	doc, err := newCustomerDoc(c)
	if err != nil {
		return appErrors.NewValidation("invalid totalSpend: %v", err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErrors.NewValidation("Customer with this email already exists")
		}
		return appErrors.NewPersistence("insert customer", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var doc customerDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErrors.NewNotFound("customer", id)
	}
	if err != nil {
		return nil, appErrors.NewPersistence("get customer", err)
	}
	c := doc.model()
	return &c, nil
}

func (r *CustomerRepository) List(ctx context.Context, opts repository.CustomerListOptions) ([]model.Customer, int, error) {
	filter := bson.M{}
	if opts.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(opts.Search), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"email": pattern}}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.NewPersistence("count customers", err)
	}

	find := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(opts.Offset()))
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	out, err := r.find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *CustomerRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Customer, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, appErrors.NewPersistence("find customers", err)
	}
	defer cursor.Close(ctx)

	var docs []customerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, appErrors.NewPersistence("decode customers", err)
	}
	out := make([]model.Customer, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, appErrors.NewPersistence("count customers", err)
	}
	return int(n), nil
}

func (r *CustomerRepository) DeleteAll(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return appErrors.NewPersistence("delete customers", err)
}

var _ repository.CustomerRepositoryInterface = (*CustomerRepository)(nil)
