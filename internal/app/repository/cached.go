package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	linkCachePrefix = "link:"
	linkCacheTTL    = 60 * time.Second
)

// cachedStore decorates a Store with a Redis read-through cache on the hot
// code-or-alias lookup the redirect gateway performs. The cache is advisory:
// Redis failures degrade to the underlying store, never to the caller.
type cachedStore struct {
	Store
	client *redis.Client
	logger *zap.Logger
}

// NewCachedStore wraps a Store with Redis caching for link-by-code reads.
func NewCachedStore(store Store, client *redis.Client, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedStore{Store: store, client: client, logger: logger}
}

func (s *cachedStore) LinkByCode(ctx context.Context, code string) (*model.Link, error) {
	if raw, err := s.client.Get(ctx, linkCachePrefix+code).Bytes(); err == nil {
		var link model.Link
		if err := json.Unmarshal(raw, &link); err == nil {
			return &link, nil
		}
	}

	link, err := s.Store.LinkByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, code, link)
	return link, nil
}

func (s *cachedStore) DeleteLink(ctx context.Context, id int64) error {
	link, err := s.Store.LinkByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteLink(ctx, id); err != nil {
		return err
	}

	keys := []string{linkCachePrefix + link.ShortCode}
	if link.CustomAlias != "" {
		keys = append(keys, linkCachePrefix+link.CustomAlias)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("link cache invalidation failed",
			zap.Int64("link_id", id), zap.Error(err))
	}
	return nil
}

func (s *cachedStore) cache(ctx context.Context, code string, link *model.Link) {
	raw, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, linkCachePrefix+code, raw, linkCacheTTL).Err(); err != nil {
		s.logger.Debug("link cache write failed", zap.String("code", code), zap.Error(err))
	}
}
