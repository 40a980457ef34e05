package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoAccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{
		collection: db.Collection(AccountsCollection),
	}
}

// GetAccount reads the fields owned by the account service that the engine
// and the notifier need.
func (r *MongoAccountRepository) GetAccount(ctx context.Context, id string) (models.Account, error) {
	var account models.Account
	opts := options.FindOne().SetProjection(bson.M{"role": 1, "status": 1, "email": 1, "fcmToken": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, ErrNotFound
	}
	return account, err
}
