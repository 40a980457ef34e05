package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/barrim_network/models"
)

type MongoTreeRepository struct {
	collection *mongo.Collection
}

func NewTreeRepository(db *mongo.Database) *MongoTreeRepository {
	return &MongoTreeRepository{
		collection: db.Collection(TreeEdgesCollection),
	}
}

func (r *MongoTreeRepository) EdgesTo(ctx context.Context, descendantID string) ([]models.TreeEdge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "depth", Value: 1}})
	return r.find(ctx, bson.M{"descendantId": descendantID}, opts)
}

func (r *MongoTreeRepository) InsertEdges(ctx context.Context, edges []models.TreeEdge) error {
	if len(edges) == 0 {
		return nil
	}
	docs := make([]interface{}, len(edges))
	for i, e := range edges {
		docs[i] = e
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translateWriteError(err)
}

func (r *MongoTreeRepository) HasMember(ctx context.Context, id string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"ancestorId": id, "descendantId": id, "depth": 0}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoTreeRepository) Ancestors(ctx context.Context, id string, maxDepth int) ([]models.TreeEdge, error) {
	filter := bson.M{
		"descendantId": id,
		"depth":        bson.M{"$gt": 0, "$lte": maxDepth},
	}
	opts := options.Find().SetSort(bson.D{{Key: "depth", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoTreeRepository) Descendants(ctx context.Context, id string, maxDepth int) ([]models.TreeEdge, error) {
	filter := bson.M{
		"ancestorId": id,
		"depth":      bson.M{"$lte": maxDepth},
	}
	opts := options.Find().SetSort(bson.D{{Key: "depth", Value: 1}, {Key: "descendantId", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoTreeRepository) Members(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"descendantId": 1}).
		SetSort(bson.D{{Key: "descendantId", Value: 1}})
	edges, err := r.find(ctx, bson.M{"depth": 0}, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.DescendantID
	}
	return ids, nil
}

func (r *MongoTreeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.TreeEdge, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []models.TreeEdge
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}
