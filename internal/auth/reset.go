package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore holds ephemeral password-reset tokens. Tokens are
// single-use: a successful Consume removes the mapping so a second attempt
// with the same token fails.
type ResetTokenStore interface {
	// Issue creates a high-entropy token mapped to the user for ttl.
	Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error)
	// Consume looks up and deletes the token. ok is false for unknown or
	// expired tokens.
	Consume(ctx context.Context, token string) (userID uint64, ok bool, err error)
}

// randomToken returns a hex-encoded string from n bytes of secure random data.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type resetEntry struct {
	userID    uint64
	expiresAt time.Time
}

// MemoryResetStore keeps reset tokens in a process-local map. State is lost
// on restart and is not shared across server instances; deployments running
// more than one instance should use RedisResetStore instead.
type MemoryResetStore struct {
	mu     sync.Mutex
	tokens map[string]resetEntry
}

func NewMemoryResetStore() *MemoryResetStore {
	return &MemoryResetStore{tokens: make(map[string]resetEntry)}
}

func (s *MemoryResetStore) Issue(_ context.Context, userID uint64, ttl time.Duration) (string, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = resetEntry{userID: userID, expiresAt: time.Now().UTC().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryResetStore) Consume(_ context.Context, token string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return 0, false, nil
	}
	// Expired entries are deleted lazily here, on next lookup.
	delete(s.tokens, token)
	if time.Now().UTC().After(entry.expiresAt) {
		return 0, false, nil
	}
	return entry.userID, true, nil
}

// RedisResetStore keeps reset tokens in Redis with server-side expiry.
// GETDEL makes consumption atomic, so a token stays single-use even when
// two instances race on it.
type RedisResetStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisResetStore(rdb *redis.Client) *RedisResetStore {
	return &RedisResetStore{rdb: rdb, prefix: "pwreset:"}
}

func (s *RedisResetStore) Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error) {
	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	key := s.prefix + token
	if err := s.rdb.Set(ctx, key, strconv.FormatUint(userID, 10), ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisResetStore) Consume(ctx context.Context, token string) (uint64, bool, error) {
	val, err := s.rdb.GetDel(ctx, s.prefix+token).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil || userID == 0 {
		return 0, false, nil
	}
	return userID, true, nil
}
