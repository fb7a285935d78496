package store

import (
	"context"
	"errors"
	"fmt"

	"usuarios-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// NewMongoCollectionStore wraps an existing collection. Close is a no-op
// because the store does not own the client.
func NewMongoCollectionStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

func (s *MongoStore) InsertOne(ctx context.Context, doc models.Document) (any, error) {
	result, err := s.collection.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return result.InsertedID, nil
}

func (s *MongoStore) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	if err := s.collection.FindOne(ctx, query).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return models.Document(raw), nil
}

func (s *MongoStore) Find(ctx context.Context) ([]models.Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	docs := make([]models.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, models.Document(raw))
	}
	return docs, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, filter Filter, set models.Document) (int64, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, errors.New("update requires at least one field")
	}

	result, err := s.collection.UpdateOne(ctx, query, bson.M{"$set": bson.M(set)})
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return result.MatchedCount, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}

	result, err := s.collection.DeleteOne(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// mongoFilter builds the bson filter. Hex strings for _id are converted to
// ObjectIDs so callers can filter with the API form of the identifier.
func mongoFilter(filter Filter) (bson.M, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	value := filter.Value
	if hex, ok := value.(string); ok && filter.Field == models.FieldID {
		if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
			value = oid
		}
	}
	return bson.M{filter.Field: value}, nil
}
