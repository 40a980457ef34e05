package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoWalletRepository struct {
	wallets *mongo.Collection
	ledger  *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) *MongoWalletRepository {
	return &MongoWalletRepository{
		wallets: db.Collection(WalletsCollection),
		ledger:  db.Collection(WalletLedgerCollection),
	}
}

// Credit increments the balance with a single $inc, which write-locks the
// wallet document for the rest of the surrounding transaction.
func (r *MongoWalletRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal, entry models.WalletLedgerEntry) (models.Wallet, error) {
	delta, err := primitive.ParseDecimal128(amount.String())
	if err != nil {
		return models.Wallet{}, err
	}

	now := time.Now().UTC()
	var wallet models.Wallet
	err = r.wallets.FindOneAndUpdate(ctx,
		bson.M{"_id": accountID},
		bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updatedAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&wallet)
	if err != nil {
		return models.Wallet{}, err
	}

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.WalletID = accountID
	entry.AmountDelta = amount
	if entry.Type == "" {
		entry.Type = models.LedgerIn
	}
	if entry.Status == "" {
		entry.Status = models.LedgerStatusCompleted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if _, err := r.ledger.InsertOne(ctx, entry); err != nil {
		return models.Wallet{}, translateWriteError(err)
	}
	return wallet, nil
}

func (r *MongoWalletRepository) Get(ctx context.Context, accountID string) (models.Wallet, error) {
	var wallet models.Wallet
	err := r.wallets.FindOne(ctx, bson.M{"_id": accountID}).Decode(&wallet)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Wallet{AccountID: accountID, Balance: decimal.Zero}, nil
	}
	return wallet, err
}

func (r *MongoWalletRepository) Entries(ctx context.Context, accountID string, limit int64) ([]models.WalletLedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.ledger.Find(ctx, bson.M{"walletId": accountID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.WalletLedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
