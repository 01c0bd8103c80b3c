package dict

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store hands out validated dictionaries. Batch runs hit the same file many
// times; the store caches the parsed dictionary keyed by path and mtime so
// validation happens once while an edited file is still picked up.
type Store struct {
	req   Requirements
	cache *gocache.Cache
}

// NewStore creates a dictionary store with the given cache TTL
func NewStore(req Requirements, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		req:   req,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Acquire returns the validated dictionary at path, loading it on first use
func (s *Store) Acquire(path string) (*Dictionary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, configErrf("resolve %s: %v", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, configErrf("stat %s: %v", path, err)
	}

	key := fmt.Sprintf("%s|%d", abs, info.ModTime().UnixNano())
	if v, found := s.cache.Get(key); found {
		return v.(*Dictionary), nil
	}

	d, err := Load(abs, s.req)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, d, gocache.DefaultExpiration)
	return d, nil
}
