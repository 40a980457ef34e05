package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoSnapshotRepository struct {
	current *mongo.Collection
	monthly *mongo.Collection
}

func NewSnapshotRepository(db *mongo.Database) *MongoSnapshotRepository {
	return &MongoSnapshotRepository{
		current: db.Collection(RankSnapshotsCollection),
		monthly: db.Collection(MonthlySnapshotsCollection),
	}
}

func (r *MongoSnapshotRepository) UpsertCurrent(ctx context.Context, s models.RankSnapshot) error {
	_, err := r.current.ReplaceOne(ctx,
		bson.M{"accountId": s.AccountID},
		s,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MongoSnapshotRepository) UpsertMonthly(ctx context.Context, s models.MonthlySnapshot) error {
	_, err := r.monthly.ReplaceOne(ctx,
		bson.M{"accountId": s.AccountID, "period": s.Period},
		s,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MongoSnapshotRepository) Current(ctx context.Context, accountID string) (models.RankSnapshot, error) {
	var snapshot models.RankSnapshot
	err := r.current.FindOne(ctx, bson.M{"accountId": accountID}).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RankSnapshot{}, ErrNotFound
	}
	return snapshot, err
}

func (r *MongoSnapshotRepository) MonthlyByRanks(ctx context.Context, period string, rankIDs []string) ([]models.MonthlySnapshot, error) {
	filter := bson.M{"period": period, "rankId": bson.M{"$in": rankIDs}}
	opts := options.Find().SetSort(bson.D{{Key: "accountId", Value: 1}})

	cursor, err := r.monthly.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []models.MonthlySnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
