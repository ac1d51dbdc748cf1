package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// CachedTenantRepository is a cache-aside decorator over a TenantRepository.
// DID resolution runs on every webhook delivery, so tenant rows are cached
// under a short TTL. Cache failures degrade to database reads; they are
// logged and never surfaced to the pipeline.
type CachedTenantRepository struct {
	inner  domain.TenantRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedTenantRepository(inner domain.TenantRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedTenantRepository {
	return &CachedTenantRepository{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "tenant_cache"),
	}
}

func didKey(number string) string { return "tenant:did:" + number }
func idKey(id uuid.UUID) string   { return "tenant:id:" + id.String() }

func (c *CachedTenantRepository) FindByReceivingNumber(ctx context.Context, number string) (*domain.Tenant, error) {
	if tenant := c.get(ctx, didKey(number)); tenant != nil {
		return tenant, nil
	}

	tenant, err := c.inner.FindByReceivingNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	c.put(ctx, didKey(number), tenant)
	return tenant, nil
}

func (c *CachedTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if tenant := c.get(ctx, idKey(id)); tenant != nil {
		return tenant, nil
	}

	tenant, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.put(ctx, idKey(id), tenant)
	return tenant, nil
}

// Invalidate drops the cached entries for a tenant. Exposed for the admin
// surface when tenant configuration changes.
func (c *CachedTenantRepository) Invalidate(ctx context.Context, tenant *domain.Tenant) {
	keys := []string{idKey(tenant.ID)}
	for _, num := range tenant.ContactNumbers {
		keys = append(keys, didKey(num))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to invalidate tenant cache entries", "error", err, "tenant_id", tenant.ID)
	}
}

func (c *CachedTenantRepository) get(ctx context.Context, key string) *domain.Tenant {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Tenant cache read failed", "error", err, "key", key)
		}
		return nil
	}

	var tenant domain.Tenant
	if err := json.Unmarshal(raw, &tenant); err != nil {
		c.logger.WarnContext(ctx, "Tenant cache entry corrupt, dropping", "error", err, "key", key)
		c.rdb.Del(ctx, key)
		return nil
	}
	return &tenant
}

func (c *CachedTenantRepository) put(ctx context.Context, key string, tenant *domain.Tenant) {
	raw, err := json.Marshal(tenant)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to marshal tenant for cache", "error", err, "tenant_id", tenant.ID)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, fmt.Sprintf("Tenant cache write failed for %s", key), "error", err)
	}
}
