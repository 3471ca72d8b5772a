package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expiry-scanner/internal/core/cache"
	"expiry-scanner/internal/features/expiry/domain"
)

const noticeKeyPrefix = "expiry:notices"

// RedisNoticeCache implements ports.NoticeCache on top of the cache port.
type RedisNoticeCache struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisNoticeCache creates a RedisNoticeCache whose entries live for ttl.
func NewRedisNoticeCache(c cache.Cache, ttl time.Duration) *RedisNoticeCache {
	return &RedisNoticeCache{
		cache: c,
		ttl:   ttl,
	}
}

// Get retrieves the notices cached for a user and day.
func (r *RedisNoticeCache) Get(ctx context.Context, userID, day string) ([]domain.ExpiryNotice, bool, error) {
	data, err := r.cache.Get(ctx, noticeKey(userID, day))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get notices from cache: %w", err)
	}

	var notices []domain.ExpiryNotice
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal notices: %w", err)
	}

	return notices, true, nil
}

// Save stores the notices in the cache.
func (r *RedisNoticeCache) Save(ctx context.Context, userID, day string, notices []domain.ExpiryNotice) error {
	if notices == nil {
		notices = []domain.ExpiryNotice{}
	}
	data, err := json.Marshal(notices)
	if err != nil {
		return fmt.Errorf("failed to marshal notices: %w", err)
	}

	if err := r.cache.Set(ctx, noticeKey(userID, day), data, r.ttl); err != nil {
		return fmt.Errorf("failed to save notices to cache: %w", err)
	}

	return nil
}

// Invalidate removes the cached notices of a user for a day.
func (r *RedisNoticeCache) Invalidate(ctx context.Context, userID, day string) error {
	if err := r.cache.Delete(ctx, noticeKey(userID, day)); err != nil {
		return fmt.Errorf("failed to delete notices from cache: %w", err)
	}
	return nil
}

func noticeKey(userID, day string) string {
	return fmt.Sprintf("%s:%s:%s", noticeKeyPrefix, userID, day)
}
