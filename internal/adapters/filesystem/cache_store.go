// Package filesystem contains file-backed adapter implementations: the
// remote response cache, the dead-letter store, and the chunk/result
// mailbox shared with worker processes.
package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// cacheEntry is the on-disk cache file format.
type cacheEntry struct {
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// CacheStore implements secondary.DetailCache with one JSON file per item.
// Entries past their expiry are misses and are lazily overwritten by the
// next Put; nothing sweeps them proactively.
type CacheStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCacheStore creates a cache store rooted at dir with the given TTL.
func NewCacheStore(dir string, ttl time.Duration) (*CacheStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &CacheStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// IsExpired reports whether an entry with the given expiry is stale at now.
// The boundary is inclusive: an entry expiring exactly at now is a miss.
func IsExpired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}

// Get returns the cached payload for an item, or ErrCacheMiss.
func (s *CacheStore) Get(kind models.ItemKind, itemID string) (json.RawMessage, error) {
	data, err := os.ReadFile(s.path(kind, itemID))
	if err != nil {
		return nil, secondary.ErrCacheMiss
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: treat as miss, next Put overwrites it.
		return nil, secondary.ErrCacheMiss
	}
	if IsExpired(entry.ExpiresAt, s.now()) {
		return nil, secondary.ErrCacheMiss
	}

	return entry.Payload, nil
}

// Put stores a payload unconditionally, replacing any prior entry. The
// write goes through a temp file and rename so concurrent readers never see
// a partial entry.
func (s *CacheStore) Put(kind models.ItemKind, itemID string, payload json.RawMessage) error {
	now := s.now()
	entry := cacheEntry{
		CachedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Payload:   payload,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return writeFileAtomic(s.path(kind, itemID), data)
}

// Invalidate removes the entry for itemID, or every entry when itemID is
// empty.
func (s *CacheStore) Invalidate(kind models.ItemKind, itemID string) error {
	if itemID != "" {
		if err := os.Remove(s.path(kind, itemID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to invalidate cache entry: %w", err)
		}
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, string(kind)+"_*.json"))
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to invalidate cache entry: %w", err)
		}
	}
	return nil
}

func (s *CacheStore) path(kind models.ItemKind, itemID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", kind, sanitize(itemID)))
}

// writeFileAtomic writes data via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// sanitize strips path separators from ids used in filenames.
func sanitize(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Ensure CacheStore implements the interface
var _ secondary.DetailCache = (*CacheStore)(nil)
