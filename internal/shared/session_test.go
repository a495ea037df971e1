package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionIssueResolveRevoke(t *testing.T) {
	store, mr := newSessionStore(t, time.Hour)
	ctx := context.Background()
	actor := Actor{ID: 4, Name: "Dana", Role: RoleStaff, Department: "accounting"}

	token, err := store.Issue(ctx, actor)
	require.NoError(t, err)
	require.Len(t, token, 32)
	require.True(t, mr.Exists("orders:session:"+token))

	got, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, actor, got)

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Equal(t, KindForbidden, KindOf(err))
}

func TestSessionExpiryAndSliding(t *testing.T) {
	store, mr := newSessionStore(t, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, Actor{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	mr.FastForward(40 * time.Second)
	_, err = store.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, time.Minute, mr.TTL("orders:session:"+token))

	mr.FastForward(61 * time.Second)
	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Resolve(ctx, "   ")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Issue(ctx, Actor{})
	require.Error(t, err)
}
