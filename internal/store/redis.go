package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "boardr"

type redisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisStore keeps the catalog in one hash and each board under its own
// key. An empty prefix uses "boardr".
func NewRedisStore(client *redis.Client, prefix string) *Catalog {
	if client == nil {
		panic("store.NewRedisStore: client is nil")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return newCatalog(&redisBackend{client: client, prefix: prefix})
}

func (r *redisBackend) catalogKey() string { return r.prefix + ":catalog" }

func (r *redisBackend) boardKey(id string) string { return r.prefix + ":board:" + id }

func (r *redisBackend) putMeta(ctx context.Context, m ProjectMeta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.catalogKey(), m.ID, b).Err()
}

func (r *redisBackend) metas(ctx context.Context) (map[string]ProjectMeta, error) {
	raw, err := r.client.HGetAll(ctx, r.catalogKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]ProjectMeta, len(raw))
	for id, v := range raw {
		var m ProjectMeta
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			// A corrupt record is treated like a missing one.
			continue
		}
		out[id] = m
	}
	return out, nil
}

func (r *redisBackend) putContent(ctx context.Context, id string, data []byte) error {
	return r.client.Set(ctx, r.boardKey(id), data, 0).Err()
}

func (r *redisBackend) content(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.boardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrProjectNotFound
	}
	return b, err
}

func (r *redisBackend) contentIDs(ctx context.Context) ([]string, error) {
	prefix := r.boardKey("")
	var ids []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}
	return ids, iter.Err()
}

func (r *redisBackend) remove(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.HDel(ctx, r.catalogKey(), id)
	pipe.Del(ctx, r.boardKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisBackend) close() error { return r.client.Close() }
