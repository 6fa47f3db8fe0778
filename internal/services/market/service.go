package market

import (
	"context"
	"fmt"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// Service is the segment query facade. It serves fresh cache directly,
// otherwise runs the fallback orchestrator, persists live results, and
// degrades to stale cache when every provider is down. It always answers.
type Service struct {
	orchestrator *Orchestrator
	cache        interfaces.SnapshotStore
	logger       *common.Logger
	now          func() time.Time // injectable clock for testing
}

// NewService creates the market query facade.
func NewService(orchestrator *Orchestrator, cache interfaces.SnapshotStore, logger *common.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
	}
}

// GetSegment returns quote data for a segment, per the cache/live/stale
// state machine. The returned result is always well-formed.
func (s *Service) GetSegment(ctx context.Context, segment string, bypassCache bool) *models.SegmentResult {
	segment = canonicalSegment(segment)

	cached := s.cache.Load(ctx, segment)

	// Fresh cache hit
	if !bypassCache && cached != nil && common.IsFreshEpoch(cached.Meta.TS, s.cache.TTL()) {
		return &models.SegmentResult{
			OK:      true,
			Segment: segment,
			Items:   cached.Items,
			Stale:   false,
			Source:  "cache",
			TS:      cached.Meta.TS,
		}
	}

	// Live fetch through the fallback chain
	resolution := s.orchestrator.Resolve(ctx, segment)

	if len(resolution.Items) > 0 {
		ts := s.now().Unix()
		s.cache.Save(ctx, segment, resolution.Items, models.SnapshotMeta{
			TS:     ts,
			Source: resolution.Source,
		})
		return &models.SegmentResult{
			OK:       true,
			Segment:  segment,
			Items:    resolution.Items,
			Stale:    false,
			Source:   resolution.Source,
			TS:       ts,
			Failures: resolution.Failures,
		}
	}

	// Total provider failure: stale cache beats nothing
	if cached != nil && len(cached.Items) > 0 {
		s.logger.Warn().
			Str("segment", segment).
			Dur("age", cached.SnapshotAge(s.now())).
			Msg("Live fetch failed, serving stale snapshot")
		return &models.SegmentResult{
			OK:       true,
			Segment:  segment,
			Items:    cached.Items,
			Stale:    true,
			Source:   "cache",
			TS:       cached.Meta.TS,
			Failures: resolution.Failures,
		}
	}

	// Nothing live, nothing cached: explicit empty answer
	return &models.SegmentResult{
		OK:       false,
		Segment:  segment,
		Items:    []models.QuoteRecord{},
		Stale:    false,
		Source:   "none",
		TS:       s.now().Unix(),
		Failures: resolution.Failures,
	}
}

// GetAll returns every segment's result. Segments resolve independently;
// one segment's outage never blanks the others.
func (s *Service) GetAll(ctx context.Context, bypassCache bool) []*models.SegmentResult {
	results := make([]*models.SegmentResult, 0, len(models.Segments))
	for _, segment := range models.Segments {
		results = append(results, s.GetSegment(ctx, segment, bypassCache))
	}
	return results
}

// Refresh performs a live fetch for a segment and persists the snapshot.
// Shares GetSegment's orchestration and cache write path, so the background
// scheduler gets the same atomicity guarantees as request-driven fetches.
func (s *Service) Refresh(ctx context.Context, segment string) error {
	segment = canonicalSegment(segment)

	resolution := s.orchestrator.Resolve(ctx, segment)
	if len(resolution.Items) == 0 {
		return fmt.Errorf("refresh %s: all providers failed", segment)
	}

	s.cache.Save(ctx, segment, resolution.Items, models.SnapshotMeta{
		TS:     s.now().Unix(),
		Source: "scheduler",
	})
	return nil
}

func canonicalSegment(segment string) string {
	up := Canonicalize(segment)
	// Accept the original dashboard's short form for commodities.
	if up == "CMD" || up == "CMDTY" {
		return models.SegmentCommodity
	}
	return up
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
