package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
	"github.com/unclebandit/campaign-crm/internal/model"
	"github.com/unclebandit/campaign-crm/internal/repository"
)

type CampaignRepository struct {
	collection *mongo.Collection
}

func NewCampaignRepository(db *mongo.Database) *CampaignRepository {
	return &CampaignRepository{collection: db.Collection(campaignsCollection)}
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	_, err := r.collection.InsertOne(ctx, newCampaignDoc(c))
	return appErrors.NewPersistence("insert campaign", err)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var doc campaignDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	if err != nil {
		return nil, appErrors.NewPersistence("get campaign", err)
	}
	c := doc.model()
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]model.Campaign, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *CampaignRepository) ListUnclaimed(ctx context.Context, olderThan time.Time) ([]model.Campaign, error) {
	return r.find(ctx, bson.M{
		"status":    model.CampaignStatusSending,
		"claimedAt": nil,
		"createdAt": bson.M{"$lt": olderThan},
	}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *CampaignRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Campaign, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, appErrors.NewPersistence("find campaigns", err)
	}
	defer cursor.Close(ctx)

	var docs []campaignDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, appErrors.NewPersistence("decode campaigns", err)
	}
	out := make([]model.Campaign, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// Claim relies on the single-document atomicity of UpdateOne: only one
// caller can flip claimedAt away from null.
func (r *CampaignRepository) Claim(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.CampaignStatusSending, "claimedAt": nil},
		bson.M{"$set": bson.M{"claimedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, appErrors.NewPersistence("claim campaign", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *CampaignRepository) Finish(ctx context.Context, id string, sent, failed, audienceSize int) error {
	return r.transition(ctx, id, bson.M{
		"status":       model.CampaignStatusCompleted,
		"sentCount":    sent,
		"failedCount":  failed,
		"audienceSize": audienceSize,
		"updatedAt":    time.Now(),
	})
}

func (r *CampaignRepository) MarkFailed(ctx context.Context, id string) error {
	return r.transition(ctx, id, bson.M{
		"status":    model.CampaignStatusFailed,
		"updatedAt": time.Now(),
	})
}

// transition applies set to a campaign that is still sending.
func (r *CampaignRepository) transition(ctx context.Context, id string, set bson.M) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.CampaignStatusSending},
		bson.M{"$set": set},
	)
	if err != nil {
		return appErrors.NewPersistence("update campaign", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return appErrors.NewValidation("campaign %s is %s, not sending", id, current.Status)
}

func (r *CampaignRepository) DeleteAll(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return appErrors.NewPersistence("delete campaigns", err)
}

var _ repository.CampaignRepositoryInterface = (*CampaignRepository)(nil)
