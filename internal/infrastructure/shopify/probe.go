package shopify

import (
	"context"
	"fmt"

	"store-order-hub/internal/domain"
)

// Probe validates credentials by reading shop metadata, the lightest
// authenticated Admin API call. Invalid or revoked tokens yield a 401.
func (a *Adapter) Probe(ctx context.Context, storeURL string, creds domain.Credentials) error {
	client, err := a.createClient(ctx, storeURL, creds)
	if err != nil {
		return upstreamError("probe", err)
	}

	shop, err := client.Shop.Get(ctx, nil)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("storeUrl", storeURL).
			Msg("Shopify connection probe failed")
		return upstreamError("probe", err)
	}
	if shop == nil {
		return upstreamError("probe", fmt.Errorf("empty shop response"))
	}

	a.logger.Debug().
		Str("storeUrl", storeURL).
		Str("shop", shop.Name).
		Msg("Shopify connection probe successful")
	return nil
}
