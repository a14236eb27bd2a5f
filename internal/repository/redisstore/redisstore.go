// Package redisstore implements repository.Store as a document store on Redis.
//
// DATA LAYOUT (prefix defaults to "otayori"):
//
//	{prefix}:theme:{id}    STRING  JSON document of one model.Theme
//	{prefix}:themes        ZSET    theme ids scored by created_at (unix µs)
//	{prefix}:message:{id}  STRING  JSON document of one model.Message
//	{prefix}:messages      ZSET    message ids scored by created_at (unix µs)
//	{prefix}:token         STRING  JSON document of THE access token
//
// Every record is a whole JSON document, read and written in one piece, the
// way a document database would treat it. The sorted sets are the only
// "indexes" and give newest-first ordering via ZREVRANGE.
//
// The access token has no id in its key: there is exactly one key, so there
// can be at most one token. That key is the uniqueness constraint.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/otayori/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// maxTxRetries bounds optimistic-lock retries for read-modify-write updates.
const maxTxRetries = 3

// Store is a Redis-backed repository.Store.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing client. The caller keeps no other reference to it;
// Store.Close closes the client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "otayori"
	}
	return &Store{client: client, prefix: prefix}
}

// Open connects to the Redis server at url (redis://host:port/db) and
// verifies the connection with PING.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parsing url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: pinging server: %w", err)
	}

	return New(client, prefix), nil
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) themeKey(id string) string   { return s.prefix + ":theme:" + id }
func (s *Store) themesIndex() string         { return s.prefix + ":themes" }
func (s *Store) messageKey(id string) string { return s.prefix + ":message:" + id }
func (s *Store) messagesIndex() string       { return s.prefix + ":messages" }
func (s *Store) tokenKey() string            { return s.prefix + ":token" }

// loadDocs fetches the JSON documents for ids with one MGET, in order.
// Ids whose document is missing are skipped.
func loadDocs[T any](ctx context.Context, client *redis.Client, keys []string) ([]T, error) {
	if len(keys) == 0 {
		return []T{}, nil
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // nil: index entry without a document
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// updateDoc runs a WATCH-guarded read-modify-write on one JSON document.
//
// mutate receives the decoded document and changes it in place. If the key
// does not exist, updateDoc returns redis.Nil without writing anything. If
// another client changes the key between GET and EXEC, the transaction is
// retried up to maxTxRetries times.
func updateDoc[T any](ctx context.Context, client *redis.Client, key string, mutate func(*T)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}

		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		mutate(&doc)

		updated, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
