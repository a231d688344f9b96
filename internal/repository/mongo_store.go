package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument is the stored shape: every collection path shares one
// MongoDB collection and is told apart by the collection field.
type mongoDocument struct {
	ID         string    `bson:"_id"`
	Collection string    `bson:"collection"`
	Data       bson.M    `bson:"data"`
	Position   int64     `bson:"position"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// MongoStore is the remote document store.
type MongoStore struct {
	collection *mongo.Collection
}

// ConnectMongoDB dials uri and checks the server answers before returning
// the database handle. Documents decode as bson.M so field maps stay plain.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("thread-storefront").
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("documents"),
	}
}

func (m *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	filter := bson.M{"collection": collection}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	var stored []mongoDocument
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	docs := make([]Document, 0, len(stored))
	for _, d := range stored {
		docs = append(docs, Document{ID: d.ID, Fields: normalize(d.Data).(map[string]any)})
	}
	return docs, nil
}

func (m *MongoStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	now := time.Now().UTC()
	doc := mongoDocument{
		ID:         uuid.NewString(),
		Collection: collection,
		Data:       bson.M(copyFields(fields)),
		Position:   nextPosition(),
		UpdatedAt:  now,
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return doc.ID, nil
}

func (m *MongoStore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set["data."+k] = v
	}

	filter := bson.M{"_id": id, "collection": collection}
	result, err := m.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, docPath string) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id, "collection": collection})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "collection", Value: 1}, {Key: "position", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.collection.Database().Client().Disconnect(ctx)
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}

// normalize turns driver container types back into plain maps and slices so
// the JSON codec sees the same values as with the other stores.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
