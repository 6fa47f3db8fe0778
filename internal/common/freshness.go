// Package common provides shared utilities for marketdesk
package common

import "time"

// Freshness TTLs for data components
const (
	FreshnessMarket = 30 * time.Second // real-time index/crypto snapshots
	FreshnessNews   = 5 * time.Minute  // RSS feeds update slowly
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}

// IsFreshEpoch is the epoch-seconds form used by cached snapshot metadata.
func IsFreshEpoch(ts int64, ttl time.Duration) bool {
	if ts <= 0 {
		return false
	}
	return time.Since(time.Unix(ts, 0)) < ttl
}

// NowEpoch returns the current time as epoch seconds.
func NowEpoch() int64 {
	return time.Now().Unix()
}
