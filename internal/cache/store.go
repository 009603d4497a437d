// Package cache keeps read results of a store.Store in Redis.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CrudAPI/internal/logger"
	"CrudAPI/internal/model"
	"CrudAPI/internal/query"
	"CrudAPI/internal/store"

	"github.com/redis/go-redis/v9"
)

// Client is the part of the Redis API the cache uses. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a read-through cache in front of another store.Store.
// Successful writes drop every cached entry of the written model.
// Redis failures are logged and the request goes to the inner store.
type Store struct {
	store.Store
	rdb Client
	ttl time.Duration
}

func New(inner store.Store, rdb Client, ttl time.Duration) *Store {
	return &Store{Store: inner, rdb: rdb, ttl: ttl}
}

func (s *Store) Find(ctx context.Context, m *model.Model, d query.Descriptor) ([]map[string]any, error) {
	key, ok := s.key(m, map[string]any{"op": "find", "query": d.CacheKey()})
	var rows []map[string]any
	if ok && s.load(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Store.Find(ctx, m, d)
	if err == nil && ok {
		s.save(ctx, key, rows)
	}
	return rows, err
}

func (s *Store) FindOne(ctx context.Context, m *model.Model, d query.Descriptor) (map[string]any, error) {
	key, ok := s.key(m, map[string]any{"op": "findOne", "query": d.CacheKey()})
	return s.document(ctx, key, ok, func() (map[string]any, error) {
		return s.Store.FindOne(ctx, m, d)
	})
}

func (s *Store) FindByID(ctx context.Context, m *model.Model, id string, proj query.Projection) (map[string]any, error) {
	key, ok := s.key(m, map[string]any{
		"op":    "findById",
		"id":    id,
		"query": query.Descriptor{Projection: proj}.CacheKey(),
	})
	return s.document(ctx, key, ok, func() (map[string]any, error) {
		return s.Store.FindByID(ctx, m, id, proj)
	})
}

func (s *Store) Count(ctx context.Context, m *model.Model, filter map[string]any) (int64, error) {
	key, ok := s.key(m, map[string]any{"op": "count", "query": query.Descriptor{Filter: filter}.CacheKey()})
	var n int64
	if ok && s.load(ctx, key, &n) {
		return n, nil
	}
	n, err := s.Store.Count(ctx, m, filter)
	if err == nil && ok {
		s.save(ctx, key, n)
	}
	return n, err
}

func (s *Store) Insert(ctx context.Context, m *model.Model, doc map[string]any) (map[string]any, error) {
	out, err := s.Store.Insert(ctx, m, doc)
	if err == nil {
		s.flush(ctx, m)
	}
	return out, err
}

func (s *Store) Update(ctx context.Context, m *model.Model, id string, set map[string]any) (map[string]any, error) {
	out, err := s.Store.Update(ctx, m, id, set)
	if err == nil && out != nil {
		s.flush(ctx, m)
	}
	return out, err
}

func (s *Store) Delete(ctx context.Context, m *model.Model, id string) (map[string]any, error) {
	out, err := s.Store.Delete(ctx, m, id)
	if err == nil && out != nil {
		s.flush(ctx, m)
	}
	return out, err
}

// Flush drops every cached entry of m.
func (s *Store) Flush(ctx context.Context, m *model.Model) error {
	iter := s.rdb.Scan(ctx, 0, modelPattern(m.Name), 1000).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	return nil
}

func (s *Store) flush(ctx context.Context, m *model.Model) {
	if err := s.Flush(ctx, m); err != nil {
		logger.Warn("cache_flush_failed", map[string]any{"model": m.Name, "error": err.Error()})
	}
}

// document caches single-row lookups. Misses (nil rows) are not stored.
func (s *Store) document(ctx context.Context, key string, ok bool, fetch func() (map[string]any, error)) (map[string]any, error) {
	var doc map[string]any
	if ok && s.load(ctx, key, &doc) && doc != nil {
		return doc, nil
	}
	doc, err := fetch()
	if err == nil && ok && doc != nil {
		s.save(ctx, key, doc)
	}
	return doc, err
}

func (s *Store) key(m *model.Model, payload map[string]any) (string, bool) {
	key, err := Key(m.Name, payload)
	if err != nil {
		logger.Warn("cache_key_failed", map[string]any{"model": m.Name, "error": err.Error()})
		return "", false
	}
	return key, true
}

func (s *Store) load(ctx context.Context, key string, dst any) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache_get_failed", map[string]any{"key": key, "error": err.Error()})
		}
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		logger.Warn("cache_decode_failed", map[string]any{"key": key, "error": err.Error()})
		return false
	}
	logger.Debug("cache_hit", map[string]any{"key": key})
	return true
}

func (s *Store) save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache_encode_failed", map[string]any{"key": key, "error": err.Error()})
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		logger.Warn("cache_set_failed", map[string]any{"key": key, "error": err.Error()})
	}
}
