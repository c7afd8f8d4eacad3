package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/Leopold1975/awr_control/internal/awr/repository/inventorycache"
	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"github.com/Leopold1975/awr_control/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

const (
	materialsKey = "inventory:materials"
	toolsKey     = "inventory:tools"

	// genKey увеличивается при каждой инвалидации.
	genKey = "inventory:gen"
)

type InventoryCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (InventoryCache, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redistools.Connect(ctx, rdb); err != nil {
		return InventoryCache{}, fmt.Errorf("connect error: %w", err)
	}

	return NewWithClient(rdb, cfg.ExpTime), nil
}

func NewWithClient(rdb *redis.Client, expTime time.Duration) InventoryCache {
	return InventoryCache{
		rdb:     rdb,
		expTime: expTime,
	}
}

// GetInventory возвращает inventorycache.ErrMiss, если хотя бы одной части нет в кэше.
func (ic InventoryCache) GetInventory(ctx context.Context) (models.Inventory, error) {
	vals, err := ic.rdb.MGet(ctx, materialsKey, toolsKey).Result()
	if err != nil {
		return models.Inventory{}, fmt.Errorf("mget error: %w", err)
	}

	var inv models.Inventory

	for i, dst := range []any{&inv.Materials, &inv.Tools} {
		s, ok := vals[i].(string)
		if !ok {
			return models.Inventory{}, inventorycache.ErrMiss
		}

		if err := json.Unmarshal([]byte(s), dst); err != nil {
			return models.Inventory{}, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return inv, nil
}

func (ic InventoryCache) Generation(ctx context.Context) (int64, error) {
	gen, err := ic.rdb.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("get generation error: %w", err)
	}

	return gen, nil
}

// SetInventory пишет остатки, только если с момента чтения gen кэш не инвалидировали.
// Иначе возвращает inventorycache.ErrStale и ничего не пишет.
func (ic InventoryCache) SetInventory(ctx context.Context, inv models.Inventory, gen int64) error {
	materialsJSON, err := json.Marshal(inv.Materials)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	toolsJSON, err := json.Marshal(inv.Tools)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	err = ic.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("get generation error: %w", err)
		}

		if cur != gen {
			return inventorycache.ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, materialsKey, materialsJSON, ic.expTime)
			p.Set(ctx, toolsKey, toolsJSON, ic.expTime)

			return nil
		})

		return err //nolint:wrapcheck
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, inventorycache.ErrStale), errors.Is(err, redis.TxFailedErr):
		return inventorycache.ErrStale
	default:
		return fmt.Errorf("set error: %w", err)
	}
}

// Invalidate удаляет остатки и сдвигает поколение, чтобы запоздавшие SetInventory не записали старые данные.
func (ic InventoryCache) Invalidate(ctx context.Context) error {
	_, err := ic.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey)
		p.Del(ctx, materialsKey, toolsKey)

		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate error: %w", err)
	}

	return nil
}

func (ic InventoryCache) Close() error {
	if err := ic.rdb.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	return nil
}
