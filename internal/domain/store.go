package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the e-commerce backend a store runs on
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
)

// DefaultShopifyAPIVersion is used when a Shopify store is registered without an API version
const DefaultShopifyAPIVersion = "2024-01"

// ParsePlatform converts a raw platform string into a Platform
func ParsePlatform(raw string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(raw))); p {
	case PlatformShopify, PlatformWooCommerce:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, raw)
	}
}

// DisplayName is the platform's brand name as shown to merchants
func (p Platform) DisplayName() string {
	switch p {
	case PlatformShopify:
		return "Shopify"
	case PlatformWooCommerce:
		return "WooCommerce"
	default:
		return string(p)
	}
}

// ConnectionStatus is the health of a store's upstream connection
type ConnectionStatus string

const (
	StatusConnected ConnectionStatus = "CONNECTED"
	StatusFailed    ConnectionStatus = "FAILED"
)

// ShopifyCredentials authenticate against the Shopify Admin API
type ShopifyCredentials struct {
	AccessToken string `json:"accessToken" validate:"required"`
	APIVersion  string `json:"apiVersion"`
}

// WooCommerceCredentials authenticate against the WooCommerce REST API
type WooCommerceCredentials struct {
	ConsumerKey    string `json:"consumerKey" validate:"required"`
	ConsumerSecret string `json:"consumerSecret" validate:"required"`
}

// Credentials holds exactly one platform variant
type Credentials struct {
	Shopify     *ShopifyCredentials
	WooCommerce *WooCommerceCredentials
}

// CheckFor reports whether the populated variant matches the platform
func (c Credentials) CheckFor(platform Platform) error {
	switch platform {
	case PlatformShopify:
		if c.Shopify == nil || c.WooCommerce != nil {
			return &ValidationError{Field: "credentials", Message: "shopify credentials required"}
		}
		if strings.TrimSpace(c.Shopify.AccessToken) == "" {
			return &ValidationError{Field: "credentials.accessToken", Message: "is required"}
		}
	case PlatformWooCommerce:
		if c.WooCommerce == nil || c.Shopify != nil {
			return &ValidationError{Field: "credentials", Message: "woocommerce credentials required"}
		}
		if strings.TrimSpace(c.WooCommerce.ConsumerKey) == "" {
			return &ValidationError{Field: "credentials.consumerKey", Message: "is required"}
		}
		if strings.TrimSpace(c.WooCommerce.ConsumerSecret) == "" {
			return &ValidationError{Field: "credentials.consumerSecret", Message: "is required"}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}
	return nil
}

// ShopifyAPIVersion returns the configured API version or the default
func (c Credentials) ShopifyAPIVersion() string {
	if c.Shopify == nil || c.Shopify.APIVersion == "" {
		return DefaultShopifyAPIVersion
	}
	return c.Shopify.APIVersion
}

// Store is a merchant's connected e-commerce store.
// Credentials are never serialized to API clients.
type Store struct {
	ID              string           `json:"id"`
	OwnerID         string           `json:"ownerId"`
	Name            string           `json:"name"`
	Platform        Platform         `json:"platform"`
	StoreURL        string           `json:"storeUrl"`
	Credentials     Credentials      `json:"-"`
	Status          ConnectionStatus `json:"status"`
	ConnectionError string           `json:"connectionError,omitempty"`
	LastSyncAt      *time.Time       `json:"lastSyncAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// MarkConnected records a successful probe or sync
func (s *Store) MarkConnected() {
	s.Status = StatusConnected
	s.ConnectionError = ""
}

// MarkFailed records a failed probe or sync
func (s *Store) MarkFailed(reason string) {
	s.Status = StatusFailed
	s.ConnectionError = reason
}

// NormalizeStoreURL trims whitespace and trailing slashes
func NormalizeStoreURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
