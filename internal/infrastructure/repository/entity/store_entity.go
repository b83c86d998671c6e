package entity

import (
	"time"

	"store-order-hub/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoStoreDoc represents a connected store in MongoDB.
// Credential secrets are stored as sealed by the encryption service.
type MongoStoreDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID         string             `bson:"ownerId"`
	Name            string             `bson:"name"`
	Platform        string             `bson:"platform"`
	StoreURL        string             `bson:"storeUrl"`
	Credentials     MongoCredentials   `bson:"credentials"`
	Status          string             `bson:"status"`
	ConnectionError string             `bson:"connectionError,omitempty"`
	LastSyncAt      *time.Time         `bson:"lastSyncAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// MongoCredentials is the tagged union of platform credentials
type MongoCredentials struct {
	AccessToken    string `bson:"accessToken,omitempty"`
	APIVersion     string `bson:"apiVersion,omitempty"`
	ConsumerKey    string `bson:"consumerKey,omitempty"`
	ConsumerSecret string `bson:"consumerSecret,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoStoreDoc) ToDomain() *domain.Store {
	store := &domain.Store{
		ID:              d.ID.Hex(),
		OwnerID:         d.OwnerID,
		Name:            d.Name,
		Platform:        domain.Platform(d.Platform),
		StoreURL:        d.StoreURL,
		Status:          domain.ConnectionStatus(d.Status),
		ConnectionError: d.ConnectionError,
		LastSyncAt:      d.LastSyncAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	switch store.Platform {
	case domain.PlatformShopify:
		store.Credentials.Shopify = &domain.ShopifyCredentials{
			AccessToken: d.Credentials.AccessToken,
			APIVersion:  d.Credentials.APIVersion,
		}
	case domain.PlatformWooCommerce:
		store.Credentials.WooCommerce = &domain.WooCommerceCredentials{
			ConsumerKey:    d.Credentials.ConsumerKey,
			ConsumerSecret: d.Credentials.ConsumerSecret,
		}
	}

	return store
}

// MongoStoreDocFromDomain converts a domain entity to a MongoDB document
func MongoStoreDocFromDomain(store *domain.Store) *MongoStoreDoc {
	doc := &MongoStoreDoc{
		OwnerID:         store.OwnerID,
		Name:            store.Name,
		Platform:        string(store.Platform),
		StoreURL:        store.StoreURL,
		Status:          string(store.Status),
		ConnectionError: store.ConnectionError,
		LastSyncAt:      store.LastSyncAt,
		CreatedAt:       store.CreatedAt,
		UpdatedAt:       store.UpdatedAt,
	}

	if c := store.Credentials.Shopify; c != nil {
		doc.Credentials.AccessToken = c.AccessToken
		doc.Credentials.APIVersion = c.APIVersion
	}
	if c := store.Credentials.WooCommerce; c != nil {
		doc.Credentials.ConsumerKey = c.ConsumerKey
		doc.Credentials.ConsumerSecret = c.ConsumerSecret
	}

	if store.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(store.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
