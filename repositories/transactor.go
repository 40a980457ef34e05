package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactor runs units of work inside a MongoDB session transaction.
// Documents written in a transaction stay locked until commit, so concurrent
// credits to one wallet surface as write conflicts and are retried by the driver.
type MongoTransactor struct {
	client *mongo.Client
}

func NewTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// translateWriteError maps unique index violations to ErrDuplicateKey.
func translateWriteError(err error) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}
