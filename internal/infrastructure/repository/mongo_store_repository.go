package repository

import (
	"context"
	"fmt"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/repository/entity"
	"store-order-hub/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStoreRepository implements StoreRepository using MongoDB
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{
		collection: db.Collection("stores"),
	}
}

// EnsureIndexes creates the uniqueness and listing indexes on the stores collection
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "storeUrl", Value: 1}, {Key: "ownerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("platform_storeUrl_owner_unique"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_createdAt"),
		},
	}
	if _, err := db.Collection("stores").Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create store indexes: %w", err)
	}
	return nil
}

// Create inserts a new store
func (r *MongoStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	now := time.Now().UTC()
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}
	store.UpdatedAt = now

	doc := entity.MongoStoreDocFromDomain(store)
	doc.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateStore
	}
	if err != nil {
		return &domain.PersistenceError{Op: "create store", Err: err}
	}

	store.ID = doc.ID.Hex()
	return nil
}

// FindByOwner retrieves an owner's stores, newest first
func (r *MongoStoreRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list stores", Err: err}
	}
	defer cursor.Close(ctx)

	stores := make([]*domain.Store, 0)
	for cursor.Next(ctx) {
		var doc entity.MongoStoreDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, &domain.PersistenceError{Op: "decode store", Err: err}
		}
		stores = append(stores, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "iterate stores", Err: err}
	}

	return stores, nil
}

// FindByIDAndOwner retrieves a store only when it belongs to ownerID
func (r *MongoStoreRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Store, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc entity.MongoStoreDoc
	filter := bson.M{"_id": objID, "ownerId": ownerID}

	err = r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get store", Err: err}
	}

	return doc.ToDomain(), nil
}

// UpdateHealth writes status, connectionError and lastSyncAt in one $set
func (r *MongoStoreRepository) UpdateHealth(ctx context.Context, store *domain.Store) error {
	objID, err := primitive.ObjectIDFromHex(store.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	store.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"status":          string(store.Status),
		"connectionError": store.ConnectionError,
		"updatedAt":       store.UpdatedAt,
	}
	if store.LastSyncAt != nil {
		set["lastSyncAt"] = *store.LastSyncAt
	}

	filter := bson.M{"_id": objID, "ownerId": store.OwnerID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return &domain.PersistenceError{Op: "update store health", Err: err}
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}
