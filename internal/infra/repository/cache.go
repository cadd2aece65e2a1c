package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/xcheck/internal/domain"
)

// Store is the record store contract the cache decorates.
type Store interface {
	Get(ctx context.Context, coll domain.Collection, id string, out any) error
	Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error
	SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error
	List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error
}

// Memcache is the subset of the memcache client the cache uses.
type Memcache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Add(item *memcache.Item) error
	Increment(key string, delta uint64) (uint64, error)
}

// ListingCache keeps listing results in memcached. Every write to a
// collection bumps its generation, which retires all cached listings of that
// collection at once.
type ListingCache struct {
	Store
	mc  Memcache
	ttl time.Duration
}

func NewListingCache(store Store, mc Memcache, ttl time.Duration) *ListingCache {
	return &ListingCache{Store: store, mc: mc, ttl: ttl}
}

func generationKey(coll domain.Collection) string {
	return "xcheck:gen:" + coll.String()
}

func listingKey(coll domain.Collection, generation string, filter domain.Fields) (string, error) {
	// map keys are marshalled in sorted order
	b, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("xcheck:list:%s:%s:%016x", coll, generation, xxh3.Hash(b)), nil
}

func (c *ListingCache) generation(coll domain.Collection) (string, error) {
	item, err := c.mc.Get(generationKey(coll))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Value), nil
}

func (c *ListingCache) invalidate(ctx context.Context, coll domain.Collection) {
	key := generationKey(coll)
	_, err := c.mc.Increment(key, 1)
	if errors.Is(err, memcache.ErrCacheMiss) {
		err = c.mc.Add(&memcache.Item{Key: key, Value: []byte(strconv.FormatInt(time.Now().UnixNano(), 10))})
		if errors.Is(err, memcache.ErrNotStored) {
			_, err = c.mc.Increment(key, 1)
		}
	}
	if err != nil {
		slog.WarnContext(
			ctx, "failed to invalidate listing cache",
			slog.String("collection", coll.String()),
			slog.String("error", err.Error()),
			slog.String("module", "store"),
		)
	}
}

func (c *ListingCache) Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error {
	err := c.Store.Upsert(ctx, coll, id, fields)
	c.invalidate(ctx, coll)
	return err
}

func (c *ListingCache) SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error {
	err := c.Store.SetAndPush(ctx, coll, id, set, push)
	c.invalidate(ctx, coll)
	return err
}

func (c *ListingCache) List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error {
	ctx, span := tracer.Start(ctx, "Repository.ListingCache.List")
	defer span.End()

	gen, err := c.generation(coll)
	if err != nil {
		slog.WarnContext(
			ctx, "listing cache unavailable",
			slog.String("error", err.Error()),
			slog.String("module", "store"),
		)
		return c.Store.List(ctx, coll, filter, out)
	}

	key, err := listingKey(coll, gen, filter)
	if err != nil {
		return c.Store.List(ctx, coll, filter, out)
	}

	if item, err := c.mc.Get(key); err == nil {
		if err := json.Unmarshal(item.Value, out); err == nil {
			return nil
		}
	}

	var raw []json.RawMessage
	if err := c.Store.List(ctx, coll, filter, &raw); err != nil {
		return err
	}
	if raw == nil {
		raw = []json.RawMessage{}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	err = c.mc.Set(&memcache.Item{Key: key, Value: b, Expiration: int32(c.ttl.Seconds())})
	if err != nil {
		slog.WarnContext(
			ctx, "failed to fill listing cache",
			slog.String("key", key),
			slog.String("error", err.Error()),
			slog.String("module", "store"),
		)
	}

	return json.Unmarshal(b, out)
}
