package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CreateStoreInput represents the input for registering a store
type CreateStoreInput struct {
	Platform    string           `json:"platform" validate:"required,oneof=shopify woocommerce"`
	Name        string           `json:"name" validate:"required,max=200"`
	StoreURL    string           `json:"storeUrl" validate:"required,http_url"`
	Credentials CredentialsInput `json:"credentials"`
}

// CredentialsInput carries either Shopify or WooCommerce credentials
type CredentialsInput struct {
	AccessToken    string `json:"accessToken,omitempty"`
	APIVersion     string `json:"apiVersion,omitempty"`
	ConsumerKey    string `json:"consumerKey,omitempty"`
	ConsumerSecret string `json:"consumerSecret,omitempty"`
}

// toDomain keeps only the fields of the declared platform, so a shared
// credentials form with the other platform's fields filled in still validates.
func (c CredentialsInput) toDomain(platform domain.Platform) domain.Credentials {
	var creds domain.Credentials
	switch platform {
	case domain.PlatformShopify:
		creds.Shopify = &domain.ShopifyCredentials{
			AccessToken: strings.TrimSpace(c.AccessToken),
			APIVersion:  strings.TrimSpace(c.APIVersion),
		}
	case domain.PlatformWooCommerce:
		creds.WooCommerce = &domain.WooCommerceCredentials{
			ConsumerKey:    strings.TrimSpace(c.ConsumerKey),
			ConsumerSecret: strings.TrimSpace(c.ConsumerSecret),
		}
	}
	return creds
}

// CreateStoreResult is returned by CreateStore
type CreateStoreResult struct {
	Store     *domain.Store `json:"store"`
	Connected bool          `json:"connected"`
	Message   string        `json:"message"`
}

// ConnectionTestResult is returned by TestConnection
type ConnectionTestResult struct {
	StoreID string `json:"storeId"`
	domain.ProbeResult
}

// StoreService handles store registration and connection health
type StoreService struct {
	storeRepo     ports.StoreRepository
	connValidator *ConnectionValidator
	credentials   *CredentialsService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewStoreService creates a new store service
func NewStoreService(
	storeRepo ports.StoreRepository,
	connValidator *ConnectionValidator,
	credentials *CredentialsService,
	logger zerolog.Logger,
) *StoreService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &StoreService{
		storeRepo:     storeRepo,
		connValidator: connValidator,
		credentials:   credentials,
		validate:      v,
		logger:        logger,
	}
}

// CreateStore validates, probes and persists a new store. A failed probe
// rejects the store under the strict policy and saves it as FAILED under the
// lenient one.
func (s *StoreService) CreateStore(ctx context.Context, ownerID string, input CreateStoreInput) (*CreateStoreResult, error) {
	input.Platform = strings.ToLower(strings.TrimSpace(input.Platform))
	input.Name = strings.TrimSpace(input.Name)
	input.StoreURL = normalizeInputURL(input.StoreURL)

	if err := s.validate.Struct(input); err != nil {
		return nil, toValidationError(err)
	}

	platform, err := domain.ParsePlatform(input.Platform)
	if err != nil {
		return nil, &domain.ValidationError{Field: "platform", Message: "unsupported platform", Err: err}
	}

	creds := input.Credentials.toDomain(platform)
	if err := creds.CheckFor(platform); err != nil {
		return nil, err
	}

	probe, err := s.connValidator.Probe(ctx, platform, input.StoreURL, creds)
	if err != nil {
		return nil, err
	}

	if !probe.Connected() && s.connValidator.Policy(platform) == PolicyStrict {
		s.logger.Warn().
			Str("ownerId", ownerID).
			Str("platform", string(platform)).
			Str("storeUrl", input.StoreURL).
			Msg("Store rejected, connection probe failed")
		return nil, &domain.ValidationError{
			Field:   "credentials",
			Message: platform.DisplayName() + " connection failed",
			Err:     probe.Err,
		}
	}

	sealed, err := s.credentials.Seal(creds)
	if err != nil {
		return nil, err
	}

	store := &domain.Store{
		OwnerID:         ownerID,
		Name:            input.Name,
		Platform:        platform,
		StoreURL:        input.StoreURL,
		Credentials:     sealed,
		Status:          probe.Status,
		ConnectionError: probe.Reason,
	}

	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, err
	}
	store.Credentials = domain.Credentials{}

	result := &CreateStoreResult{
		Store:     store,
		Connected: probe.Connected(),
		Message:   "Store connected successfully",
	}
	if !result.Connected {
		result.Message = fmt.Sprintf("Store saved but %s connection failed: %s", platform.DisplayName(), probe.Reason)
	}

	s.logger.Info().
		Str("ownerId", ownerID).
		Str("storeId", store.ID).
		Str("platform", string(platform)).
		Str("status", string(store.Status)).
		Msg("Store registered")

	return result, nil
}

// ListStores returns the owner's stores, newest first, without credentials
func (s *StoreService) ListStores(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	stores, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, store := range stores {
		store.Credentials = domain.Credentials{}
	}
	return stores, nil
}

// TestConnection re-probes a stored connection and records the outcome.
// lastSyncAt is never changed by a probe.
func (s *StoreService) TestConnection(ctx context.Context, ownerID, storeID string) (*ConnectionTestResult, error) {
	store, err := s.storeRepo.FindByIDAndOwner(ctx, storeID, ownerID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	creds, err := s.credentials.Open(store.Credentials)
	if err != nil {
		return nil, err
	}

	probe, err := s.connValidator.Probe(ctx, store.Platform, store.StoreURL, creds)
	if err != nil {
		return nil, err
	}

	if probe.Connected() {
		store.MarkConnected()
	} else {
		store.MarkFailed(probe.Reason)
	}
	store.LastSyncAt = nil
	if err := s.storeRepo.UpdateHealth(ctx, store); err != nil {
		return nil, err
	}

	return &ConnectionTestResult{StoreID: store.ID, ProbeResult: probe}, nil
}

// normalizeInputURL trims the URL and defaults the scheme to https
func normalizeInputURL(raw string) string {
	u := domain.NormalizeStoreURL(raw)
	if u != "" && !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return u
}

// toValidationError reports the first failing field
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Message: "invalid request", Err: err}
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: validationMessage(fe), Err: err}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url", "http_url":
		return "must be an http(s) URL"
	default:
		return "is invalid"
	}
}
