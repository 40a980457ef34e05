package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoBonusRepository struct {
	collection *mongo.Collection
}

func NewBonusRepository(db *mongo.Database) *MongoBonusRepository {
	return &MongoBonusRepository{
		collection: db.Collection(BonusPayoutsCollection),
	}
}

// Insert fails with ErrDuplicateKey when (accountId, period, bonusType) was already paid.
func (r *MongoBonusRepository) Insert(ctx context.Context, payout *models.BonusPayout) error {
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, payout)
	return translateWriteError(err)
}

func (r *MongoBonusRepository) ListByPeriod(ctx context.Context, period string) ([]models.BonusPayout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "bonusType", Value: 1}, {Key: "accountId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"period": period}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payouts []models.BonusPayout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}
