// Package sessionstore persists console sessions in redis.
package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
)

const keyPrefix = "session:"

// RedisStore keeps each session as a JSON value expiring with the session.
type RedisStore struct {
	client *redis.Client
}

var _ session.Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Open connects to the redis server configured in conf and checks it answers.
func Open(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", conf.Address)
	}
	return client, nil
}

func key(id string) string { return keyPrefix + id }

func (s *RedisStore) Save(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		if ttl = time.Until(sess.ExpiresAt); ttl <= 0 {
			return session.ErrExpired
		}
	}
	if err := s.client.Set(ctx, key(sess.ID), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "storing session")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (session.Session, error) {
	var sess session.Session
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sess, session.ErrNotFound
		}
		return sess, errors.Wrap(err, "loading session")
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return sess, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
