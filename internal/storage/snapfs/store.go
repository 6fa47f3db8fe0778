// Package snapfs implements file-based storage for per-segment quote
// snapshots. Snapshots are written via temp-file-then-rename so concurrent
// readers never observe a partial write; read failures of any kind are
// treated as a cache miss.
package snapfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// Store provides file-based JSON storage for segment snapshots.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *common.Logger
}

// NewStore creates a snapshot store rooted at path with the given TTL.
func NewStore(logger *common.Logger, path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot store path %s: %w", path, err)
	}

	logger.Info().Str("path", path).Dur("ttl", ttl).Msg("Snapshot store opened")
	return &Store{
		dir:    path,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// TTL returns the freshness window for snapshots in this store.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Load returns the stored snapshot for segment, or nil when none exists or
// the file is unreadable. A corrupt file is a cache miss, not an error;
// the pipeline refetches and overwrites it.
func (s *Store) Load(ctx context.Context, segment string) *models.SegmentSnapshot {
	data, err := os.ReadFile(s.filePath(segment))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot read failed, treating as miss")
		}
		return nil
	}

	var snap models.SegmentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot corrupt, treating as miss")
		return nil
	}
	return &snap
}

// Save atomically replaces the segment's snapshot. Write failures are
// logged and swallowed: the caller already holds the live data, and a
// broken cache must not break the request.
func (s *Store) Save(ctx context.Context, segment string, items []models.QuoteRecord, meta models.SnapshotMeta) {
	snap := models.SegmentSnapshot{Items: items, Meta: meta}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot marshal failed")
		return
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot temp file failed")
		return
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot write failed")
		return
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot close failed")
		return
	}
	if err := os.Rename(tmpPath, s.filePath(segment)); err != nil {
		os.Remove(tmpPath)
		s.logger.Warn().Err(err).Str("segment", segment).Msg("Snapshot rename failed")
		return
	}

	s.logger.Debug().Str("segment", segment).Int("items", len(items)).Str("source", meta.Source).Msg("Snapshot saved")
}

func (s *Store) filePath(segment string) string {
	return filepath.Join(s.dir, "market_"+sanitizeKey(strings.ToUpper(segment))+".json")
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

// Ensure Store implements SnapshotStore
var _ interfaces.SnapshotStore = (*Store)(nil)
