package shared

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates an unknown or expired token.
var ErrSessionNotFound = NewError(KindForbidden, "session not found")

// SessionStore resolves bearer tokens to actors. Sessions are issued by the
// identity provider and stored in Redis as JSON.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{client: client, prefix: "orders:session:", ttl: ttl}
}

// Issue stores the actor under a freshly generated token.
func (s *SessionStore) Issue(ctx context.Context, actor Actor) (string, error) {
	if actor.ID <= 0 {
		return "", errors.New("session requires actor id")
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	data, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve loads the actor bound to token and slides its expiry.
func (s *SessionStore) Resolve(ctx context.Context, token string) (Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, ErrSessionNotFound
	}
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Actor{}, ErrSessionNotFound
		}
		return Actor{}, err
	}
	var actor Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return Actor{}, err
	}
	_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	return actor, nil
}

// Revoke deletes the session.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *SessionStore) key(token string) string {
	return s.prefix + token
}
