package application

import (
	"fmt"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"
)

// CredentialsService seals store secrets before they are persisted and opens
// them again for adapter calls
type CredentialsService struct {
	encryptionSvc ports.EncryptionService
}

// NewCredentialsService creates a new credentials service
func NewCredentialsService(encryptionService ports.EncryptionService) *CredentialsService {
	return &CredentialsService{encryptionSvc: encryptionService}
}

// Seal returns a copy of creds with every secret encrypted
func (s *CredentialsService) Seal(creds domain.Credentials) (domain.Credentials, error) {
	return s.transform(creds, s.encryptionSvc.Encrypt, "encrypt")
}

// Open returns a copy of creds with every secret decrypted
func (s *CredentialsService) Open(creds domain.Credentials) (domain.Credentials, error) {
	return s.transform(creds, s.encryptionSvc.Decrypt, "decrypt")
}

func (s *CredentialsService) transform(creds domain.Credentials, fn func(string) (string, error), verb string) (domain.Credentials, error) {
	var out domain.Credentials

	if c := creds.Shopify; c != nil {
		token, err := fn(c.AccessToken)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to %s access token: %w", verb, err)
		}
		out.Shopify = &domain.ShopifyCredentials{AccessToken: token, APIVersion: c.APIVersion}
	}

	if c := creds.WooCommerce; c != nil {
		key, err := fn(c.ConsumerKey)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to %s consumer key: %w", verb, err)
		}
		secret, err := fn(c.ConsumerSecret)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to %s consumer secret: %w", verb, err)
		}
		out.WooCommerce = &domain.WooCommerceCredentials{ConsumerKey: key, ConsumerSecret: secret}
	}

	return out, nil
}
