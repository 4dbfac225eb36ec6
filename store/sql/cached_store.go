package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-apiclient/core"
)

const sessionEntryCacheKeyPrefix = "go-apiclient::session_entry::v1"

// CachedStore serves reads through a go-repository-cache service and
// invalidates the cached key on every write.
type CachedStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

type cachedEntry struct {
	Value []byte
	Found bool
}

func NewCachedStore(base core.CredentialStore, cacheService repositorycache.CacheService) (*CachedStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: cache service is required")
	}
	return &CachedStore{base: base, cache: cacheService}, nil
}

// SessionEntryCacheKey returns go-apiclient::session_entry::v1::<key> with
// the key URL-path escaped.
func SessionEntryCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: session entry key is required")
	}
	return sessionEntryCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, false, fmt.Errorf("sqlstore: cached store is not configured")
	}
	cacheKey, err := SessionEntryCacheKey(key)
	if err != nil {
		return nil, false, err
	}
	entry, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedEntry, error) {
		value, found, fetchErr := s.base.Get(ctx, key)
		if fetchErr != nil {
			return cachedEntry{}, fetchErr
		}
		return cachedEntry{Value: append([]byte(nil), value...), Found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !entry.Found {
		return nil, false, nil
	}
	return append([]byte(nil), entry.Value...), true, nil
}

func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached store is not configured")
	}
	if err := s.base.Set(ctx, key, value); err != nil {
		return err
	}
	return s.invalidate(ctx, key)
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached store is not configured")
	}
	if err := s.base.Delete(ctx, key); err != nil {
		return err
	}
	return s.invalidate(ctx, key)
}

func (s *CachedStore) invalidate(ctx context.Context, key string) error {
	cacheKey, err := SessionEntryCacheKey(key)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
