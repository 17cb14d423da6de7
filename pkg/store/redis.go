package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	backendRedis = "redis"

	// maxPutAttempts bounds optimistic-lock retries when concurrent writers
	// touch the same document.
	maxPutAttempts = 16

	listTimeout = 10 * time.Second
)

// RedisStore keeps documents as JSON strings in Redis, with a set of IDs
// for listing.
type RedisStore struct {
	redis *redis.Client
	keys  Keys
	now   Clock
	lists singleflight.Group

	// beforeList runs at the start of each shared List load. Tests only.
	beforeList func()
}

// NewRedisStore creates a RedisStore. An empty prefix uses DefaultPrefix;
// a nil clock uses time.Now in UTC.
func NewRedisStore(redisClient *redis.Client, prefix string, clock Clock) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if clock == nil {
		clock = systemClock
	}
	return &RedisStore{
		redis: redisClient,
		keys:  Keys{Prefix: prefix},
		now:   clock,
	}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (Document, error) {
	Operations.WithLabelValues(backendRedis, "get").Inc()

	data, err := s.redis.Get(ctx, s.keys.Document(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		Errors.WithLabelValues(backendRedis, "get").Inc()
		return Document{}, fmt.Errorf("redis get: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		Errors.WithLabelValues(backendRedis, "get").Inc()
		return Document{}, err
	}
	return doc, nil
}

// List implements Store. Concurrent calls share one round trip. The shared
// load is detached from the caller that started it and bounded by
// listTimeout, so one caller giving up does not fail the others.
func (s *RedisStore) List(ctx context.Context) ([]Document, error) {
	Operations.WithLabelValues(backendRedis, "list").Inc()

	ch := s.lists.DoChan(s.keys.Index(), func() (any, error) {
		if s.beforeList != nil {
			s.beforeList()
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		return s.list(loadCtx)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		Errors.WithLabelValues(backendRedis, "list").Inc()
		return nil, res.Err
	}

	shared := res.Val.([]Document)
	docs := make([]Document, len(shared))
	for i, doc := range shared {
		docs[i] = cloneDocument(doc)
	}
	return docs, nil
}

func (s *RedisStore) list(ctx context.Context) ([]Document, error) {
	ids, err := s.redis.SMembers(ctx, s.keys.Index()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.Document(id)
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	docs := make([]Document, 0, len(values))
	for _, value := range values {
		// Deleted between SMEMBERS and MGET.
		if value == nil {
			continue
		}
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected redis value %T", ErrInvalidDocument, value)
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Put implements Store using WATCH/MULTI so the revision increments
// atomically.
func (s *RedisStore) Put(ctx context.Context, doc Document) (Document, error) {
	Operations.WithLabelValues(backendRedis, "put").Inc()

	if err := doc.Validate(); err != nil {
		Errors.WithLabelValues(backendRedis, "put").Inc()
		return Document{}, err
	}

	key := s.keys.Document(doc.ID)
	var stored Document

	txf := func(tx *redis.Tx) error {
		var revision int64
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			prev, err := decodeDocument(data)
			if err != nil {
				return err
			}
			revision = prev.Revision
		case errors.Is(err, redis.Nil):
		default:
			return fmt.Errorf("redis get: %w", err)
		}

		stored = cloneDocument(doc)
		stored.Revision = revision + 1
		stored.UpdatedAt = s.now()

		encoded, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			pipe.SAdd(ctx, s.keys.Index(), doc.ID)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxPutAttempts; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == nil {
			// A List already in flight may predate this write.
			s.lists.Forget(s.keys.Index())
			return stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		Errors.WithLabelValues(backendRedis, "put").Inc()
		return Document{}, fmt.Errorf("redis put: %w", err)
	}

	Errors.WithLabelValues(backendRedis, "put").Inc()
	return Document{}, fmt.Errorf("redis put: %w after %d attempts", redis.TxFailedErr, maxPutAttempts)
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	Operations.WithLabelValues(backendRedis, "delete").Inc()

	var del *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.keys.Document(id))
		pipe.SRem(ctx, s.keys.Index(), id)
		return nil
	})
	if err != nil {
		Errors.WithLabelValues(backendRedis, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.lists.Forget(s.keys.Index())
	return nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}
