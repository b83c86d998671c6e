package application

import (
	"context"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/rs/zerolog"
)

// ConnectionValidator probes store credentials and classifies the result
type ConnectionValidator struct {
	registry *AdapterRegistry
	policies map[domain.Platform]ProbePolicy
	metrics  ports.SyncMetrics
	logger   zerolog.Logger
}

// NewConnectionValidator creates a validator. Platforms missing from
// policies fall back to DefaultProbePolicies.
func NewConnectionValidator(
	registry *AdapterRegistry,
	policies map[domain.Platform]ProbePolicy,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
) *ConnectionValidator {
	merged := DefaultProbePolicies()
	for platform, policy := range policies {
		merged[platform] = policy
	}
	return &ConnectionValidator{
		registry: registry,
		policies: merged,
		metrics:  metrics,
		logger:   logger,
	}
}

// Policy returns the registration policy for platform
func (v *ConnectionValidator) Policy(platform domain.Platform) ProbePolicy {
	if p, ok := v.policies[platform]; ok {
		return p
	}
	return PolicyStrict
}

// Probe checks credentials against the platform. Upstream failures are
// reported in the result; the error is only for an unsupported platform.
func (v *ConnectionValidator) Probe(ctx context.Context, platform domain.Platform, storeURL string, creds domain.Credentials) (domain.ProbeResult, error) {
	adapter, err := v.registry.Get(platform)
	if err != nil {
		return domain.ProbeResult{}, err
	}

	result := domain.ProbeResult{Status: domain.StatusConnected}
	if err := adapter.Probe(ctx, storeURL, creds); err != nil {
		result = domain.ProbeResult{
			Status: domain.StatusFailed,
			Reason: err.Error(),
			Err:    err,
		}
		v.logger.Info().
			Str("platform", string(platform)).
			Str("storeUrl", storeURL).
			Str("reason", result.Reason).
			Msg("Connection probe failed")
	}

	if v.metrics != nil {
		v.metrics.ObserveProbe(platform, result.Status)
	}
	return result, nil
}
