package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// DefaultTTL bounds how long a fetched production is served from cache.
const DefaultTTL = 5 * time.Minute

const serviceName = "checkout"

// ProductionCache is a read-through Redis cache in front of a production gateway.
// Draft writes always go to the inner gateway.
type ProductionCache struct {
	inner  ports.ProductionGateway
	client goredis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*ProductionCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *ProductionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *ProductionCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewProductionCache(inner ports.ProductionGateway, client goredis.UniversalClient, opts ...Option) *ProductionCache {
	c := &ProductionCache{
		inner:  inner,
		client: client,
		ttl:    DefaultTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewClient dials Redis at addr.
func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

// GenerateKey namespaces cache keys as service:operation:key.
func GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", serviceName, operation, key)
}

type cachedQuantity struct {
	ID        string `json:"id"`
	Amount    int32  `json:"amount"`
	PlusPrice string `json:"plus_price"`
}

type cachedProduction struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	OverviewImage string           `json:"overview_image"`
	Quantities    []cachedQuantity `json:"quantities"`
}

// GetProduction serves from Redis when possible. Cache failures fall through to the
// inner gateway; an entry that no longer decodes is dropped before the fetch.
func (c *ProductionCache) GetProduction(ctx context.Context, id string) (*domain.Production, error) {
	key := GenerateKey("production", id)
	production, hit, corrupt := c.lookup(ctx, key)
	if hit {
		return production, nil
	}
	if corrupt {
		if err := c.Invalidate(ctx, id); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "production cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	production, err := c.inner.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, production)
	return production, nil
}

func (c *ProductionCache) CreateHeadshot(ctx context.Context, req domain.HeadshotDraftRequest) (*domain.DraftHeadshot, error) {
	return c.inner.CreateHeadshot(ctx, req)
}

func (c *ProductionCache) DeleteHeadshot(ctx context.Context, id string) error {
	return c.inner.DeleteHeadshot(ctx, id)
}

// Invalidate drops a cached production.
func (c *ProductionCache) Invalidate(ctx context.Context, id string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, GenerateKey("production", id)).Err()
}

func (c *ProductionCache) lookup(ctx context.Context, key string) (production *domain.Production, hit, corrupt bool) {
	if c.client == nil {
		return nil, false, false
	}
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, false
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "production cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false, false
	}
	var cached cachedProduction
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "discarding corrupt production cache entry", slog.String("key", key))
		return nil, false, true
	}
	return fromCache(cached), true, false
}

func (c *ProductionCache) store(ctx context.Context, key string, production *domain.Production) {
	if c.client == nil || production == nil {
		return
	}
	payload, err := json.Marshal(toCache(production))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "production cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func toCache(p *domain.Production) cachedProduction {
	quantities := make([]cachedQuantity, 0, len(p.Quantities))
	for _, q := range p.Quantities {
		quantities = append(quantities, cachedQuantity{ID: q.ID, Amount: q.Amount, PlusPrice: q.PlusPrice})
	}
	return cachedProduction{ID: p.ID, Title: p.Title, OverviewImage: p.OverviewImage, Quantities: quantities}
}

func fromCache(c cachedProduction) *domain.Production {
	quantities := make([]domain.ProductionQuantity, 0, len(c.Quantities))
	for _, q := range c.Quantities {
		quantities = append(quantities, domain.ProductionQuantity{ID: q.ID, Amount: q.Amount, PlusPrice: q.PlusPrice})
	}
	return &domain.Production{ID: c.ID, Title: c.Title, OverviewImage: c.OverviewImage, Quantities: quantities}
}

var _ ports.ProductionGateway = (*ProductionCache)(nil)
