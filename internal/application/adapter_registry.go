package application

import (
	"fmt"
	"strings"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"
)

// ProbePolicy decides what a failed connection probe does to a registration
type ProbePolicy string

const (
	// PolicyStrict rejects the registration
	PolicyStrict ProbePolicy = "strict"
	// PolicyLenient saves the store as FAILED with the probe's reason
	PolicyLenient ProbePolicy = "lenient"
)

// ParseProbePolicy converts a raw config value into a ProbePolicy
func ParseProbePolicy(raw string) (ProbePolicy, error) {
	switch p := ProbePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case PolicyStrict, PolicyLenient:
		return p, nil
	default:
		return "", fmt.Errorf("unknown probe policy %q", raw)
	}
}

// DefaultProbePolicies rejects bad Shopify tokens outright and keeps
// unreachable WooCommerce sites so they can be retried later.
func DefaultProbePolicies() map[domain.Platform]ProbePolicy {
	return map[domain.Platform]ProbePolicy{
		domain.PlatformShopify:     PolicyStrict,
		domain.PlatformWooCommerce: PolicyLenient,
	}
}

// AdapterRegistry resolves the adapter for a platform
type AdapterRegistry struct {
	adapters map[domain.Platform]ports.PlatformAdapter
}

// NewAdapterRegistry registers adapters under the platform they report
func NewAdapterRegistry(adapters ...ports.PlatformAdapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[domain.Platform]ports.PlatformAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Get returns the adapter for platform or ErrUnsupportedPlatform
func (r *AdapterRegistry) Get(platform domain.Platform) (ports.PlatformAdapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", domain.ErrUnsupportedPlatform, platform)
	}
	return a, nil
}
