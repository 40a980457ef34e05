package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoCommissionRepository struct {
	collection *mongo.Collection
}

func NewCommissionRepository(db *mongo.Database) *MongoCommissionRepository {
	return &MongoCommissionRepository{
		collection: db.Collection(CommissionsCollection),
	}
}

// InsertMany writes every record of one sale. The unique index on
// (saleReference, beneficiaryId, level) turns a replay into ErrDuplicateKey.
func (r *MongoCommissionRepository) InsertMany(ctx context.Context, records []*models.CommissionRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, rec := range records {
		if rec.ID.IsZero() {
			rec.ID = primitive.NewObjectID()
		}
		docs[i] = rec
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translateWriteError(err)
}

func (r *MongoCommissionRepository) FindBySale(ctx context.Context, saleReference string) ([]models.CommissionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})
	return r.find(ctx, bson.M{"saleReference": saleReference}, opts)
}

func (r *MongoCommissionRepository) ListByBeneficiary(ctx context.Context, beneficiaryID, status string, limit int64) ([]models.CommissionRecord, error) {
	filter := bson.M{"beneficiaryId": beneficiaryID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, filter, opts)
}

func (r *MongoCommissionRepository) OnHoldBeneficiaries(ctx context.Context, before time.Time) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "beneficiaryId", bson.M{
		"status":    models.CommissionOnHold,
		"createdAt": bson.M{"$lt": before},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MongoCommissionRepository) ListOnHold(ctx context.Context, beneficiaryID string, before time.Time) ([]models.CommissionRecord, error) {
	filter := bson.M{
		"beneficiaryId": beneficiaryID,
		"status":        models.CommissionOnHold,
		"createdAt":     bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoCommissionRepository) MarkReleased(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CommissionOnHold},
		bson.M{"$set": bson.M{"status": models.CommissionReleased, "releasedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoCommissionRepository) VoidOnHoldBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.CommissionOnHold, "createdAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.CommissionVoid, "voidedAt": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoCommissionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.CommissionRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.CommissionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
