package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

// MongoPlanRepository stores the rank table and the per-level commission rates.
type MongoPlanRepository struct {
	ranks      *mongo.Collection
	levelRates *mongo.Collection
}

func NewPlanRepository(db *mongo.Database) *MongoPlanRepository {
	return &MongoPlanRepository{
		ranks:      db.Collection(RanksCollection),
		levelRates: db.Collection(LevelRatesCollection),
	}
}

func (r *MongoPlanRepository) Ranks(ctx context.Context) ([]models.Rank, error) {
	cursor, err := r.ranks.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ranks []models.Rank
	if err := cursor.All(ctx, &ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

func (r *MongoPlanRepository) LevelRates(ctx context.Context) ([]models.LevelRate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "level", Value: 1}})
	cursor, err := r.levelRates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rates []models.LevelRate
	if err := cursor.All(ctx, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// ReplacePlan swaps the whole plan. Callers wrap it in a transaction.
func (r *MongoPlanRepository) ReplacePlan(ctx context.Context, plan models.Plan) error {
	if _, err := r.ranks.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if _, err := r.levelRates.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}

	if len(plan.Ranks) > 0 {
		docs := make([]interface{}, len(plan.Ranks))
		for i, rank := range plan.Ranks {
			docs[i] = rank
		}
		if _, err := r.ranks.InsertMany(ctx, docs); err != nil {
			return translateWriteError(err)
		}
	}
	if len(plan.LevelRates) > 0 {
		docs := make([]interface{}, len(plan.LevelRates))
		for i, rate := range plan.LevelRates {
			docs[i] = rate
		}
		if _, err := r.levelRates.InsertMany(ctx, docs); err != nil {
			return translateWriteError(err)
		}
	}
	return nil
}
