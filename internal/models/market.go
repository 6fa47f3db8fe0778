// Package models defines data structures for marketdesk
package models

import "time"

// Segment names for the supported market categories.
const (
	SegmentKR        = "KR"
	SegmentUS        = "US"
	SegmentCrypto    = "CRYPTO"
	SegmentCommodity = "COMMODITY"
)

// Segments lists all known segment names.
var Segments = []string{SegmentKR, SegmentUS, SegmentCrypto, SegmentCommodity}

// IsSegment reports whether name is a known segment.
func IsSegment(name string) bool {
	for _, s := range Segments {
		if s == name {
			return true
		}
	}
	return false
}

// QuoteRecord is the canonical market data point shared by every provider.
// Price is a pointer: nil means the provider returned no usable value and
// the record survived normalization with the price rejected.
type QuoteRecord struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Price      *float64 `json:"price"`
	Change     float64  `json:"change"`
	ChangeRate float64  `json:"changeRate"`
	Time       int64    `json:"time,omitempty"` // epoch seconds, 0 when unknown
}

// HasValidPrice reports whether the record carries a usable price.
func (q *QuoteRecord) HasValidPrice() bool {
	return q.Price != nil
}

// RawRecord is the loosely-typed shape adapters hand to the normalizer.
// Providers disagree on key names; the normalizer resolves them.
type RawRecord map[string]interface{}

// SnapshotMeta describes the provenance of a cached segment snapshot.
type SnapshotMeta struct {
	TS     int64  `json:"ts"`     // fetch timestamp, epoch seconds
	Source string `json:"source"` // adapter name, "live", or "scheduler"
}

// SegmentSnapshot is the cached unit: one segment's records plus provenance.
// A refresh replaces the snapshot wholesale; there is no partial merge.
type SegmentSnapshot struct {
	Items []QuoteRecord `json:"items"`
	Meta  SnapshotMeta  `json:"meta"`
}

// AdapterFailure records why one adapter attempt produced nothing.
type AdapterFailure struct {
	Adapter    string `json:"adapter"`
	StatusCode int    `json:"status,omitempty"`
	Reason     string `json:"reason"`
}

// SegmentResult is what the query facade returns to the HTTP layer.
// The facade always answers: on total failure Items is empty, OK is false
// and Failures explains each adapter's demise.
type SegmentResult struct {
	OK       bool             `json:"ok"`
	Segment  string           `json:"segment"`
	Items    []QuoteRecord    `json:"items"`
	Stale    bool             `json:"stale"`
	Source   string           `json:"source"`
	TS       int64            `json:"ts"`
	Failures []AdapterFailure `json:"failures,omitempty"`
}

// Float64Ptr returns a pointer to v. Convenience for building records.
func Float64Ptr(v float64) *float64 {
	return &v
}

// SnapshotAge returns the age of the snapshot at time now.
func (s *SegmentSnapshot) SnapshotAge(now time.Time) time.Duration {
	if s == nil || s.Meta.TS <= 0 {
		return 0
	}
	return now.Sub(time.Unix(s.Meta.TS, 0))
}
