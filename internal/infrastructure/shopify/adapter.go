package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/ratelimit"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultOrderWindow is the number of most recent orders fetched per sync
	DefaultOrderWindow = 10
	defaultTimeout     = 10 * time.Second
)

// Options configures the Shopify adapter
type Options struct {
	OrderWindow int
	Timeout     time.Duration
	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
	Limiter    *ratelimit.HostLimiter
	Logger     zerolog.Logger
}

// Adapter fetches and normalizes orders from the Shopify Admin REST API
type Adapter struct {
	app         goshopify.App
	httpClient  *http.Client
	orderWindow int
	limiter     *ratelimit.HostLimiter
	logger      zerolog.Logger
}

// NewAdapter creates a new Shopify platform adapter
func NewAdapter(opts Options) *Adapter {
	if opts.OrderWindow <= 0 {
		opts.OrderWindow = DefaultOrderWindow
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Adapter{
		// Private app tokens need no API key or secret
		app:         goshopify.App{},
		httpClient:  httpClient,
		orderWindow: opts.OrderWindow,
		limiter:     opts.Limiter,
		logger:      opts.Logger,
	}
}

// Platform returns the platform this adapter serves
func (a *Adapter) Platform() domain.Platform {
	return domain.PlatformShopify
}

// createClient is a helper to create a goshopify client scoped to the store's API version.
// goshopify always builds https://{shop}.myshopify.com, so requests are pinned
// to the scheme and host of the stored URL.
func (a *Adapter) createClient(ctx context.Context, storeURL string, creds domain.Credentials) (*goshopify.Client, error) {
	if creds.Shopify == nil {
		return nil, errors.New("missing shopify credentials")
	}
	base, err := storeBase(storeURL)
	if err != nil {
		return nil, err
	}
	if err := a.limiter.Wait(ctx, base.Host); err != nil {
		return nil, err
	}

	httpClient := *a.httpClient
	httpClient.Transport = pinnedTransport{target: base, next: a.httpClient.Transport}

	client, err := goshopify.NewClient(a.app, base.Hostname(), creds.Shopify.AccessToken,
		goshopify.WithVersion(creds.ShopifyAPIVersion()),
		goshopify.WithHTTPClient(&httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// pinnedTransport rewrites every request to the store's own scheme and host
type pinnedTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t pinnedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(r)
}

// FetchRecentOrders lists the most recent orders in the order Shopify serves them
func (a *Adapter) FetchRecentOrders(ctx context.Context, store *domain.Store) ([]domain.Order, error) {
	client, err := a.createClient(ctx, store.StoreURL, store.Credentials)
	if err != nil {
		return nil, upstreamError("list orders", err)
	}

	raw, err := client.Order.List(ctx, goshopify.ListOptions{Limit: a.orderWindow})
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("storeId", store.ID).
			Str("storeUrl", store.StoreURL).
			Msg("Shopify order list failed")
		return nil, upstreamError("list orders", err)
	}

	orders := make([]domain.Order, 0, len(raw))
	for i := range raw {
		orders = append(orders, mapOrder(&raw[i], store))
	}

	a.logger.Debug().
		Str("storeId", store.ID).
		Int("orders", len(orders)).
		Msg("Fetched Shopify orders")
	return orders, nil
}

// mapOrder translates a Shopify order into the canonical shape
func mapOrder(o *goshopify.Order, store *domain.Store) domain.Order {
	customer := domain.GuestCustomer
	if o.Customer != nil && o.Customer.FirstName != "" {
		customer = o.Customer.FirstName
	}
	createdAt := ""
	if o.CreatedAt != nil {
		createdAt = o.CreatedAt.Format(time.RFC3339)
	}
	return domain.Order{
		ID:          domain.NumericID(o.Id),
		OrderNumber: o.Name,
		Platform:    domain.PlatformShopify,
		StoreID:     store.ID,
		Customer:    customer,
		Total:       domain.FormatTotal(o.TotalPrice),
		Status:      string(o.FinancialStatus),
		CreatedAt:   createdAt,
		Store:       store.Name,
	}
}

// storeBase returns the scheme and host of a store URL, defaulting to https
func storeBase(storeURL string) (*url.URL, error) {
	raw := strings.TrimSpace(storeURL)
	if raw == "" {
		return nil, errors.New("store URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid store URL %q", storeURL)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

func upstreamError(op string, err error) *domain.UpstreamError {
	ue := &domain.UpstreamError{
		Platform: domain.PlatformShopify,
		Op:       op,
		Err:      err,
	}
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		ue.StatusCode = respErr.Status
	}
	return ue
}
