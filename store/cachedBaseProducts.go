package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/genautech/rewards_backend/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedBaseProducts serves base product reads from redis before falling
// through to the wrapped repository. Redis failures only cost a cache miss.
type CachedBaseProducts struct {
	models.BaseProductRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedBaseProducts(repo models.BaseProductRepository, client redis.UniversalClient, ttl time.Duration, logger *logrus.Logger) *CachedBaseProducts {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedBaseProducts{
		BaseProductRepository: repo,
		client:                client,
		ttl:                   ttl,
		logger:                logger,
	}
}

func baseProductCacheKey(id int) string {
	return fmt.Sprintf("BaseProduct:%d", id)
}

func (c *CachedBaseProducts) GetBaseProductById(ctx context.Context, id int) (*models.BaseProduct, error) {
	key := baseProductCacheKey(id)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var product models.BaseProduct
		if jsonErr := json.Unmarshal(raw, &product); jsonErr == nil {
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithField("key", key).WithError(err).Warn("base product cache read failed")
	}

	product, err := c.BaseProductRepository.GetBaseProductById(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(product); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.WithField("key", key).WithError(setErr).Warn("base product cache write failed")
		}
	}
	return product, nil
}

func (c *CachedBaseProducts) SaveBaseProduct(ctx context.Context, product *models.BaseProduct) error {
	if err := c.BaseProductRepository.SaveBaseProduct(ctx, product); err != nil {
		return err
	}
	if err := c.client.Del(ctx, baseProductCacheKey(product.ID)).Err(); err != nil {
		c.logger.WithField("id", product.ID).WithError(err).Warn("base product cache invalidation failed")
	}
	return nil
}
