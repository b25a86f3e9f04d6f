package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/casewatch/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from an arbitrary identifier
func CacheKey(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "casewatch:v1:" + hex.EncodeToString(hash[:])
}

// OpinionKey is the cache key for the text of one opinion
func OpinionKey(opinionID int64) string {
	return CacheKey(fmt.Sprintf("opinion:%d", opinionID))
}

// New builds the opinion text cache from configuration. A disabled cache
// returns Noop so callers never branch on nil.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Noop caches nothing
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error { return nil }
func (Noop) Clear() error { return nil }
