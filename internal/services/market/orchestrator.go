package market

import (
	"context"
	"errors"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// Orchestrator runs a segment's adapters in priority order and accepts the
// first non-empty, validator-passing result. Attempts are sequential on
// purpose: racing adapters in parallel would burn quota on rate-limited
// upstreams that the winner makes redundant.
type Orchestrator struct {
	registry map[string]interfaces.ProviderAdapter
	priority map[string][]string
	logger   *common.Logger
}

// NewOrchestrator builds an orchestrator over the adapter registry with
// per-segment priority lists.
func NewOrchestrator(adapters []interfaces.ProviderAdapter, priority map[string][]string, logger *common.Logger) *Orchestrator {
	registry := make(map[string]interfaces.ProviderAdapter, len(adapters))
	for _, a := range adapters {
		registry[a.Name()] = a
	}
	return &Orchestrator{
		registry: registry,
		priority: priority,
		logger:   logger,
	}
}

// Resolution is the outcome of one fallback run.
type Resolution struct {
	Items    []models.QuoteRecord
	Source   string
	Failures []models.AdapterFailure
}

// Resolve tries the segment's adapters in order. First adapter producing
// any valid-priced record wins outright. Partial results from different
// adapters are never merged, they'd mix snapshots from different moments.
// Exhaustion returns an empty Resolution with per-adapter diagnostics,
// never an error.
func (o *Orchestrator) Resolve(ctx context.Context, segment string) Resolution {
	res := Resolution{}

	names := o.priority[segment]
	if len(names) == 0 {
		o.logger.Warn().Str("segment", segment).Msg("No adapters configured for segment")
		res.Failures = append(res.Failures, models.AdapterFailure{
			Adapter: "none",
			Reason:  "no adapters configured for segment",
		})
		return res
	}

	for _, name := range names {
		adapter, ok := o.registry[name]
		if !ok {
			res.Failures = append(res.Failures, models.AdapterFailure{
				Adapter: name,
				Reason:  "adapter not registered",
			})
			continue
		}

		raws, err := adapter.Fetch(ctx, segment)
		if err != nil {
			res.Failures = append(res.Failures, failureFrom(name, err))
			o.logger.Warn().
				Str("segment", segment).
				Str("adapter", name).
				Err(err).
				Msg("Adapter failed, trying next")
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res
			}
			continue
		}

		items := NormalizeAll(raws)
		if len(items) == 0 {
			res.Failures = append(res.Failures, models.AdapterFailure{
				Adapter: name,
				Reason:  "no valid-priced records",
			})
			o.logger.Warn().
				Str("segment", segment).
				Str("adapter", name).
				Int("raw", len(raws)).
				Msg("Adapter returned no valid prices, trying next")
			continue
		}

		o.logger.Info().
			Str("segment", segment).
			Str("adapter", name).
			Int("items", len(items)).
			Int("fallbacks_used", len(res.Failures)).
			Msg("Segment resolved")

		res.Items = items
		res.Source = name
		return res
	}

	o.logger.Error().
		Str("segment", segment).
		Int("adapters_tried", len(res.Failures)).
		Msg("All adapters exhausted for segment")
	return res
}

func failureFrom(adapter string, err error) models.AdapterFailure {
	pe := models.AsProviderError(adapter, err)
	return models.AdapterFailure{
		Adapter:    adapter,
		StatusCode: pe.StatusCode,
		Reason:     pe.Message,
	}
}
