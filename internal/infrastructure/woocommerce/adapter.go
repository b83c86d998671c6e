package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/ratelimit"

	"github.com/rs/zerolog"
)

const (
	// DefaultOrderWindow is the number of most recent orders fetched per sync
	DefaultOrderWindow = 10
	defaultTimeout     = 15 * time.Second
	apiPrefix          = "/wp-json/wc/v3"
	maxErrorBody       = 512
	maxResponseBytes   = 8 << 20
)

// AuthMode selects how consumer credentials are sent
type AuthMode string

const (
	// AuthQuery sends consumer_key/consumer_secret as query parameters
	AuthQuery AuthMode = "query"
	// AuthBasic sends them as HTTP basic auth
	AuthBasic AuthMode = "basic"
)

// ParseAuthMode converts a raw config value into an AuthMode
func ParseAuthMode(raw string) (AuthMode, error) {
	switch m := AuthMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", AuthQuery:
		return AuthQuery, nil
	case AuthBasic:
		return AuthBasic, nil
	default:
		return "", fmt.Errorf("unknown woocommerce auth mode %q", raw)
	}
}

// Options configures the WooCommerce adapter
type Options struct {
	OrderWindow int
	Timeout     time.Duration
	AuthMode    AuthMode
	HTTPClient  *http.Client
	Limiter     *ratelimit.HostLimiter
	Logger      zerolog.Logger
}

// Adapter fetches and normalizes orders from the WooCommerce REST API
type Adapter struct {
	httpClient  *http.Client
	orderWindow int
	authMode    AuthMode
	limiter     *ratelimit.HostLimiter
	logger      zerolog.Logger
}

// NewAdapter creates a new WooCommerce platform adapter
func NewAdapter(opts Options) *Adapter {
	if opts.OrderWindow <= 0 {
		opts.OrderWindow = DefaultOrderWindow
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.AuthMode == "" {
		opts.AuthMode = AuthQuery
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Adapter{
		httpClient:  httpClient,
		orderWindow: opts.OrderWindow,
		authMode:    opts.AuthMode,
		limiter:     opts.Limiter,
		logger:      opts.Logger,
	}
}

// Platform returns the platform this adapter serves
func (a *Adapter) Platform() domain.Platform {
	return domain.PlatformWooCommerce
}

type wooOrder struct {
	ID      domain.UpstreamID `json:"id"`
	Number  string            `json:"number"`
	Status  string            `json:"status"`
	Total   string            `json:"total"`
	Created string            `json:"date_created"`
	Billing *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"billing"`
}

// FetchRecentOrders lists the newest orders, newest first as ordered upstream
func (a *Adapter) FetchRecentOrders(ctx context.Context, store *domain.Store) ([]domain.Order, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(a.orderWindow))
	params.Set("order", "desc")

	body, err := a.get(ctx, store.StoreURL, store.Credentials, "/orders", params)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("storeId", store.ID).
			Str("storeUrl", store.StoreURL).
			Msg("WooCommerce order list failed")
		return nil, withOp(err, "list orders")
	}

	var raw []wooOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, payloadError(fmt.Errorf("unexpected payload: %w", err))
	}
	// null decodes into a nil slice without error
	if raw == nil {
		return nil, payloadError(errors.New("unexpected payload: orders is not an array"))
	}

	orders := make([]domain.Order, 0, len(raw))
	for i, o := range raw {
		if o.ID.IsZero() {
			return nil, payloadError(fmt.Errorf("unexpected payload: order at index %d has no id", i))
		}
		orders = append(orders, mapOrder(o, store))
	}

	a.logger.Debug().
		Str("storeId", store.ID).
		Int("orders", len(orders)).
		Msg("Fetched WooCommerce orders")
	return orders, nil
}

func payloadError(err error) *domain.UpstreamError {
	return &domain.UpstreamError{
		Platform: domain.PlatformWooCommerce,
		Op:       "list orders",
		Err:      err,
	}
}

// mapOrder translates a WooCommerce order into the canonical shape
func mapOrder(o wooOrder, store *domain.Store) domain.Order {
	customer := domain.GuestCustomer
	if o.Billing != nil && o.Billing.FirstName != "" {
		customer = strings.TrimSpace(o.Billing.FirstName + " " + o.Billing.LastName)
	}
	return domain.Order{
		ID:          o.ID,
		OrderNumber: "#" + o.Number,
		Platform:    domain.PlatformWooCommerce,
		StoreID:     store.ID,
		Customer:    customer,
		Total:       o.Total,
		Status:      o.Status,
		CreatedAt:   o.Created,
		Store:       store.Name,
	}
}

// get performs an authenticated GET against the store's REST API and returns the body
func (a *Adapter) get(ctx context.Context, storeURL string, creds domain.Credentials, path string, params url.Values) ([]byte, error) {
	if creds.WooCommerce == nil {
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Err: errors.New("missing woocommerce credentials")}
	}
	base, err := url.Parse(domain.NormalizeStoreURL(storeURL))
	if err != nil || base.Host == "" {
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Err: fmt.Errorf("invalid store URL %q", storeURL)}
	}
	if err := a.limiter.Wait(ctx, base.Host); err != nil {
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Err: err}
	}

	if params == nil {
		params = url.Values{}
	}
	if a.authMode == AuthQuery {
		params.Set("consumer_key", creds.WooCommerce.ConsumerKey)
		params.Set("consumer_secret", creds.WooCommerce.ConsumerSecret)
	}
	fullURL := base.String() + apiPrefix + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if a.authMode == AuthBasic {
		req.SetBasicAuth(creds.WooCommerce.ConsumerKey, creds.WooCommerce.ConsumerSecret)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Drop the URL from the error, it can carry credentials
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err == nil && len(body) > maxResponseBytes {
		err = fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	if err != nil {
		return nil, &domain.UpstreamError{Platform: domain.PlatformWooCommerce, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{
			Platform:   domain.PlatformWooCommerce,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(body)),
		}
	}
	return body, nil
}

// errorMessage extracts WooCommerce's {"code","message"} error or a truncated body
func errorMessage(body []byte) string {
	var wcErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wcErr); err == nil && wcErr.Message != "" {
		return fmt.Sprintf("%s: %s", wcErr.Code, wcErr.Message)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}

func withOp(err error, op string) error {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		upstream.Op = op
		return upstream
	}
	return &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Op: op, Err: err}
}
