package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"store-order-hub/internal/domain"
)

// Probe validates credentials against the system status endpoint. A valid
// response is a JSON object carrying an "environment" member.
func (a *Adapter) Probe(ctx context.Context, storeURL string, creds domain.Credentials) error {
	body, err := a.get(ctx, storeURL, creds, "/system_status", nil)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("storeUrl", storeURL).
			Msg("WooCommerce connection probe failed")
		return withOp(err, "probe")
	}

	var status map[string]json.RawMessage
	if err := json.Unmarshal(body, &status); err != nil {
		return &domain.UpstreamError{
			Platform: domain.PlatformWooCommerce,
			Op:       "probe",
			Err:      fmt.Errorf("unexpected payload: %w", err),
		}
	}
	if _, ok := status["environment"]; !ok {
		return &domain.UpstreamError{
			Platform: domain.PlatformWooCommerce,
			Op:       "probe",
			Err:      errors.New("invalid WooCommerce response"),
		}
	}

	a.logger.Debug().Str("storeUrl", storeURL).Msg("WooCommerce connection probe successful")
	return nil
}
