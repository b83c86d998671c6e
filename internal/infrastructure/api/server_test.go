package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"store-order-hub/internal/application"
	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/encryption"
	"store-order-hub/internal/infrastructure/feed"
	"store-order-hub/internal/infrastructure/metrics"
	"store-order-hub/internal/infrastructure/pubsub"
	"store-order-hub/internal/infrastructure/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type stubAdapter struct {
	platform domain.Platform

	mu       sync.Mutex
	orders   []domain.Order
	fetchErr error
	probeErr error
}

func (a *stubAdapter) Platform() domain.Platform { return a.platform }

func (a *stubAdapter) FetchRecentOrders(ctx context.Context, store *domain.Store) ([]domain.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	out := make([]domain.Order, 0, len(a.orders))
	for _, o := range a.orders {
		o.StoreID = store.ID
		o.Store = store.Name
		o.Platform = a.platform
		out = append(out, o)
	}
	return out, nil
}

func (a *stubAdapter) Probe(ctx context.Context, storeURL string, creds domain.Credentials) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.probeErr
}

type testEnv struct {
	srv     *httptest.Server
	shopify *stubAdapter
	woo     *stubAdapter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	enc, err := encryption.NewService(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	require.NoError(t, err)

	env := &testEnv{
		shopify: &stubAdapter{platform: domain.PlatformShopify},
		woo:     &stubAdapter{platform: domain.PlatformWooCommerce},
	}
	stores := repository.NewMemoryStoreRepository()
	events := pubsub.NewSyncPubSub(logger)
	recorder := metrics.NewRecorder()
	registry := application.NewAdapterRegistry(env.shopify, env.woo)
	creds := application.NewCredentialsService(enc)
	validator := application.NewConnectionValidator(registry, nil, recorder, logger)
	storeSvc := application.NewStoreService(stores, validator, creds, logger)
	syncSvc := application.NewSyncService(stores, registry, creds, events, recorder, logger)
	feedSvc := application.NewFeedService(syncSvc, stores, feed.NewMemoryFeedRepository(), 2, logger)

	server := NewServer(storeSvc, feedSvc, events, Options{
		JWTSecret:      testSecret,
		MetricsHandler: recorder.Handler(),
	}, logger)
	env.srv = httptest.NewServer(server.Router())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, owner string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if owner != "" {
		token, err := SignToken(testSecret, owner, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
			require.NoError(t, json.Unmarshal(raw, &decoded))
		}
	}
	return resp, decoded
}

func wooBody(url string) map[string]interface{} {
	return map[string]interface{}{
		"platform": "woocommerce",
		"name":     "US Store",
		"storeUrl": url,
		"credentials": map[string]string{
			"consumerKey":    "ck_live",
			"consumerSecret": "cs_live",
		},
	}
}

func shopifyBody(url string) map[string]interface{} {
	return map[string]interface{}{
		"platform": "shopify",
		"name":     "EU Store",
		"storeUrl": url,
		"credentials": map[string]string{
			"accessToken": "shpat_live",
		},
	}
}

func TestPublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, _ = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/stores", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/stores", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	badResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	badResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, badResp.StatusCode)

	// sub-only tokens are accepted
	subOnly, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	req, err = http.NewRequest(http.MethodGet, env.srv.URL+"/stores", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+subOnly)
	okResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	okResp.Body.Close()
	assert.Equal(t, http.StatusOK, okResp.StatusCode)
}

func TestStoreLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.woo.probeErr = &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Op: "probe", StatusCode: 401, Err: errors.New("bad key")}

	resp, body := env.do(t, http.MethodPost, "/stores", "user-1", wooBody("https://us.example.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["connected"])
	store := body["store"].(map[string]interface{})
	assert.Equal(t, "FAILED", store["status"])
	assert.NotContains(t, store, "credentials")
	storeID := store["id"].(string)

	resp, body = env.do(t, http.MethodPost, "/stores", "user-1", wooBody("https://us.example.com/"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Store already exists", body["message"])

	env.shopify.probeErr = &domain.UpstreamError{Platform: domain.PlatformShopify, Op: "probe", StatusCode: 401, Err: errors.New("revoked")}
	resp, body = env.do(t, http.MethodPost, "/stores", "user-1", shopifyBody("https://eu.myshopify.com"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Shopify connection failed", body["message"])

	resp, body = env.do(t, http.MethodPost, "/stores", "user-1", map[string]interface{}{"platform": "shopify"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "name", body["field"])

	resp, _ = env.do(t, http.MethodPost, "/stores/"+storeID+"/sync", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.woo.probeErr = nil
	resp, body = env.do(t, http.MethodPost, "/stores/"+storeID+"/test", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CONNECTED", body["status"])
	assert.Equal(t, storeID, body["storeId"])

	env.woo.orders = []domain.Order{
		{ID: domain.NumericID(11), OrderNumber: "#11", Total: "20.00", Status: "processing", CreatedAt: time.Now().Format(time.RFC3339)},
	}
	resp, body = env.do(t, http.MethodPost, "/stores/"+storeID+"/sync", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["totalOrders"])
	assert.Equal(t, float64(1), body["feedSize"])
	assert.Equal(t, "US Store", body["storeName"])

	resp, body = env.do(t, http.MethodGet, "/orders", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["totalOrders"])

	resp, body = env.do(t, http.MethodGet, "/stats", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["connectedStores"])
	assert.Equal(t, "20", body["revenueToday"])

	env.woo.fetchErr = &domain.UpstreamError{Platform: domain.PlatformWooCommerce, Op: "list orders", StatusCode: 500, Err: errors.New("down")}
	resp, body = env.do(t, http.MethodPost, "/stores/"+storeID+"/sync", "user-1", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Order sync failed", body["message"])

	resp, _ = env.do(t, http.MethodDelete, "/orders", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = env.do(t, http.MethodGet, "/orders", "user-1", nil)
	assert.Equal(t, float64(0), body["totalOrders"])
}

func TestSyncAllRoute(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodPost, "/stores", "user-1", shopifyBody("https://eu.myshopify.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env.shopify.orders = []domain.Order{{ID: domain.NumericID(1), Total: "5.00", CreatedAt: "2024-01-05T10:00:00Z"}}

	resp, body := env.do(t, http.MethodPost, "/stores/sync", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["feedSize"])
	assert.Len(t, body["stores"], 1)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/stores", "user-1", shopifyBody("https://eu.myshopify.com"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	storeID := body["store"].(map[string]interface{})["id"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	token, err := SignToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/stores/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	resp, _ = env.do(t, http.MethodPost, "/stores/"+storeID+"/sync", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(stream.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event domain.SyncEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		assert.Equal(t, storeID, event.StoreID)
		assert.Equal(t, domain.StatusConnected, event.Status)
		return
	}
	t.Fatal("no sync event received")
}
