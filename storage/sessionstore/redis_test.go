package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
)

func setup(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client, err := Open(context.Background(), core.RedisConfig{Address: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), srv
}

func TestRedisStore(t *testing.T) {
	store, srv := setup(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	sess := session.Session{
		ID:        "s1",
		User:      session.User{ID: "1", Username: "admin", Roles: []string{"admin"}},
		Token:     "tok",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, srv.Exists("session:s1"))
	assert.InDelta(t, time.Hour.Seconds(), srv.TTL("session:s1").Seconds(), 5)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.User, got.User)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	_, err = store.Get(ctx, "s2")
	assert.True(t, errors.Is(err, session.ErrNotFound))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.True(t, errors.Is(store.Delete(ctx, "s1"), session.ErrNotFound))

	srv.FastForward(2 * time.Hour)
	assert.False(t, srv.Exists("session:s1"))
}

func TestRedisStore_expiry(t *testing.T) {
	store, srv := setup(t)
	ctx := context.Background()

	sess := session.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Save(ctx, sess))
	srv.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "s1")
	assert.True(t, errors.Is(err, session.ErrNotFound))

	stale := session.Session{ID: "s2", ExpiresAt: time.Now().Add(-time.Minute)}
	assert.Equal(t, session.ErrExpired, store.Save(ctx, stale))
}

func TestOpen_unreachable(t *testing.T) {
	_, err := Open(context.Background(), core.RedisConfig{Address: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestProviderWithRedis(t *testing.T) {
	store, _ := setup(t)
	p := session.NewProvider(authFunc(func() (session.User, string, error) {
		return session.User{ID: "1", Username: "admin"}, "tok", nil
	}), store, time.Hour)
	ctx := context.Background()

	sess, err := p.Login(ctx, "admin", "pwd")
	require.NoError(t, err)
	got, err := p.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	require.NoError(t, p.Logout(ctx, sess.ID))
}

type authFunc func() (session.User, string, error)

func (f authFunc) Login(context.Context, string, string) (session.User, string, error) { return f() }
