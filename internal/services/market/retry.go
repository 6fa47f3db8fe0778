package market

import (
	"context"

	"github.com/yangbongclub/marketdesk/internal/clients/httpx"
	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// retryAdapter decorates a ProviderAdapter with bounded, jittered retry on
// transient failures. Permanent failures pass straight through so the
// orchestrator can advance to the next adapter without burning time.
type retryAdapter struct {
	inner  interfaces.ProviderAdapter
	logger *common.Logger
}

// WithRetry wraps an adapter in the standard retry policy.
func WithRetry(inner interfaces.ProviderAdapter, logger *common.Logger) interfaces.ProviderAdapter {
	return &retryAdapter{inner: inner, logger: logger}
}

func (r *retryAdapter) Name() string { return r.inner.Name() }

func (r *retryAdapter) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	var records []models.RawRecord
	attempt := 0

	err := httpx.Retry(ctx, func(ctx context.Context) error {
		attempt++
		var fetchErr error
		records, fetchErr = r.inner.Fetch(ctx, segment)
		if fetchErr != nil && attempt > 1 {
			r.logger.Debug().
				Str("adapter", r.inner.Name()).
				Str("segment", segment).
				Int("attempt", attempt).
				Err(fetchErr).
				Msg("Adapter retry failed")
		}
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
