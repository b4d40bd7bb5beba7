package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/usecase"
)

const keyPrefix = "catalog:config:"

// ConfigRepository caches integration configs in process and, when a
// memcached client is given, in memcached as well. Every write goes to the
// wrapped repository first and then drops the affected keys.
type ConfigRepository struct {
	next   usecase.ConfigRepository
	local  *cache.Cache
	mc     *memcache.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewConfigRepository(next usecase.ConfigRepository, mc *memcache.Client, ttl time.Duration, logger *slog.Logger) *ConfigRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ConfigRepository{
		next:   next,
		local:  cache.New(ttl, 2*ttl),
		mc:     mc,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "config-cache"),
	}
}

func configKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func activeKey(d domain.Domain) string {
	return keyPrefix + "active:" + string(d)
}

func (r *ConfigRepository) Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error) {
	key := configKey(id)
	var cached domain.IntegrationConfig
	if r.lookup(key, &cached) {
		return &cached, nil
	}

	config, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(key, config)
	return config, nil
}

func (r *ConfigRepository) ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error) {
	key := activeKey(d)
	var cached []domain.IntegrationConfig
	if r.lookup(key, &cached) {
		return cached, nil
	}

	configs, err := r.next.ListActive(ctx, d)
	if err != nil {
		return nil, err
	}
	r.store(key, configs)
	return configs, nil
}

func (r *ConfigRepository) Create(ctx context.Context, config *domain.IntegrationConfig) error {
	if err := r.next.Create(ctx, config); err != nil {
		return err
	}
	r.invalidate(config.ID)
	return nil
}

func (r *ConfigRepository) Update(ctx context.Context, config *domain.IntegrationConfig) error {
	if err := r.next.Update(ctx, config); err != nil {
		return err
	}
	r.invalidate(config.ID)
	return nil
}

func (r *ConfigRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

// lookup decodes the cached JSON under key into dst.
func (r *ConfigRepository) lookup(key string, dst any) bool {
	if raw, found := r.local.Get(key); found {
		if err := json.Unmarshal(raw.([]byte), dst); err == nil {
			return true
		}
		r.local.Delete(key)
	}

	if r.mc == nil {
		return false
	}
	item, err := r.mc.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			r.logger.Warn("memcached get failed", logging.String("key", key), logging.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(item.Value, dst); err != nil {
		return false
	}
	r.local.Set(key, item.Value, cache.DefaultExpiration)
	return true
}

func (r *ConfigRepository) store(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("config not cacheable", logging.String("key", key), logging.Error(err))
		return
	}
	r.local.Set(key, raw, cache.DefaultExpiration)

	if r.mc == nil {
		return
	}
	err = r.mc.Set(&memcache.Item{Key: key, Value: raw, Expiration: int32(r.ttl.Seconds())})
	if err != nil {
		r.logger.Warn("memcached set failed", logging.String("key", key), logging.Error(err))
	}
}

// invalidate drops the config and every active list, since an update may
// move a config between domains.
func (r *ConfigRepository) invalidate(id int64) {
	keys := []string{configKey(id)}
	for _, d := range domain.Domains {
		keys = append(keys, activeKey(d))
	}
	for _, key := range keys {
		r.local.Delete(key)
		if r.mc == nil {
			continue
		}
		if err := r.mc.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			r.logger.Warn("memcached delete failed", logging.String("key", key), logging.Error(err))
		}
	}
}

var _ usecase.ConfigRepository = (*ConfigRepository)(nil)
