package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

const defaultCollection = "farm_documents"

// MongoDBRepository stores one farm document per storage key.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

type documentRecord struct {
	Key      string          `bson:"_id"`
	Revision int64           `bson:"revision"`
	SavedAt  time.Time       `bson:"saved_at"`
	Document models.Database `bson:"document"`
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: defaultCollection,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Load fetches the document stored under key.
func (r *MongoDBRepository) Load(ctx context.Context, key string) (*models.Database, error) {
	var rec documentRecord
	err := r.collection().FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}

	doc := rec.Document
	doc.Revision = rec.Revision
	doc.Normalize()
	return &doc, nil
}

// Save inserts the first revision or replaces the document matching the expected revision.
func (r *MongoDBRepository) Save(ctx context.Context, key string, doc *models.Database, expected int64) error {
	rec := documentRecord{
		Key:      key,
		Revision: doc.Revision,
		SavedAt:  time.Now().UTC(),
		Document: *doc,
	}

	if expected == 0 {
		_, err := r.collection().InsertOne(ctx, rec)
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrRevisionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", key, err)
		}
		return nil
	}

	res, err := r.collection().ReplaceOne(ctx, bson.M{"_id": key, "revision": expected}, rec)
	if err != nil {
		return fmt.Errorf("failed to replace document %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrRevisionConflict
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
