package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercado/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedProductRepository puts a Redis read-through cache in front of another
// ProductRepository. Cache failures degrade to the inner repository.
type CachedProductRepository struct {
	inner  ProductRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProductRepository wraps inner with a Redis cache.
func NewCachedProductRepository(inner ProductRepository, client *redis.Client, ttl time.Duration) *CachedProductRepository {
	return &CachedProductRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
	}
}

func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.inner.GetAll(ctx)
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	key := productCacheKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var product models.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cached product", "product_id", id)
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "product cache get failed", "product_id", id, "error", err)
	}

	product, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(product); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "product cache set failed", "product_id", id, "error", err)
		}
	}
	return product, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.inner.Create(ctx, product)
}

// Update writes through and evicts the cached copy so the next read sees the new price.
func (r *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.inner.Update(ctx, product); err != nil {
		return err
	}
	if err := r.client.Del(ctx, productCacheKey(product.ID)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached product %s: %w", product.ID, err)
	}
	return nil
}

func productCacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
