package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
)

// newsRefreshEvery refreshes news once per this many market ticks. News
// moves slower than quotes and the feeds dislike tight polling.
const newsRefreshEvery = 6

// runScheduler refreshes the configured segments on a fixed interval with
// a small startup jitter so restarted replicas don't hit upstreams in
// lockstep.
func runScheduler(ctx context.Context, marketService interfaces.MarketService, newsService interfaces.NewsService, logger *common.Logger, interval time.Duration, segments []string) {
	jitter := time.Duration(rand.Int63n(int64(interval / 4)))
	select {
	case <-ctx.Done():
		return
	case <-time.After(jitter):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := 0
	refreshSegments(ctx, marketService, logger, segments)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Scheduler: stopped")
			return
		case <-ticker.C:
			tick++
			refreshSegments(ctx, marketService, logger, segments)
			if tick%newsRefreshEvery == 0 {
				if err := newsService.Refresh(ctx); err != nil {
					logger.Warn().Err(err).Msg("Scheduler: news refresh failed")
				}
			}
		}
	}
}

func refreshSegments(ctx context.Context, marketService interfaces.MarketService, logger *common.Logger, segments []string) {
	start := time.Now()

	for _, segment := range segments {
		if ctx.Err() != nil {
			return
		}
		if err := marketService.Refresh(ctx, segment); err != nil {
			logger.Warn().Err(err).Str("segment", segment).Msg("Scheduler: segment refresh failed")
		}
	}

	logger.Debug().
		Int("segments", len(segments)).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduler: refresh complete")
}
