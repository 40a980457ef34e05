package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/barrim_network/models"
)

type MongoVolumeRepository struct {
	collection *mongo.Collection
}

func NewVolumeRepository(db *mongo.Database) *MongoVolumeRepository {
	return &MongoVolumeRepository{
		collection: db.Collection(VolumeEntriesCollection),
	}
}

func (r *MongoVolumeRepository) Insert(ctx context.Context, entry *models.VolumeEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return translateWriteError(err)
}

// Sum totals the volume of accountIDs inside window. An empty id list sums to zero.
func (r *MongoVolumeRepository) Sum(ctx context.Context, accountIDs []string, window models.Window) (decimal.Decimal, error) {
	if len(accountIDs) == 0 {
		return decimal.Zero, nil
	}
	filter := windowFilter(window)
	filter["accountId"] = bson.M{"$in": accountIDs}
	return r.sum(ctx, filter)
}

func (r *MongoVolumeRepository) SumAll(ctx context.Context, window models.Window) (decimal.Decimal, error) {
	return r.sum(ctx, windowFilter(window))
}

func (r *MongoVolumeRepository) sum(ctx context.Context, filter bson.M) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total decimal.Decimal `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return decimal.Zero, err
	}
	if len(result) == 0 {
		return decimal.Zero, nil
	}
	return result[0].Total, nil
}

func windowFilter(w models.Window) bson.M {
	filter := bson.M{}
	createdAt := bson.M{}
	if !w.Start.IsZero() {
		createdAt["$gte"] = w.Start
	}
	if !w.End.IsZero() {
		createdAt["$lt"] = w.End
	}
	if len(createdAt) > 0 {
		filter["createdAt"] = createdAt
	}
	return filter
}
