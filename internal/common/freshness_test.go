package common

import (
	"testing"
	"time"
)

func TestIsFresh(t *testing.T) {
	ttl := 90 * time.Second

	if !IsFresh(time.Now().Add(-89*time.Second), ttl) {
		t.Error("89s-old timestamp should be fresh with 90s TTL")
	}
	if IsFresh(time.Now().Add(-91*time.Second), ttl) {
		t.Error("91s-old timestamp should be stale with 90s TTL")
	}
	if IsFresh(time.Time{}, ttl) {
		t.Error("zero time is never fresh")
	}
}

func TestIsFreshEpoch(t *testing.T) {
	ttl := 90 * time.Second
	now := time.Now().Unix()

	if !IsFreshEpoch(now-89, ttl) {
		t.Error("89s-old epoch should be fresh with 90s TTL")
	}
	if IsFreshEpoch(now-91, ttl) {
		t.Error("91s-old epoch should be stale with 90s TTL")
	}
	if IsFreshEpoch(0, ttl) {
		t.Error("zero epoch is never fresh")
	}
	if IsFreshEpoch(-5, ttl) {
		t.Error("negative epoch is never fresh")
	}
}
