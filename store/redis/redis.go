// Package redis implements conversation.Store on top of Redis, storing one
// JSON value per session key with an optional TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"goa.design/convo/conversation"
)

const defaultKeyPrefix = "convo:state:"

// Options configures the Redis-backed Store.
type Options struct {
	// Client is a connected Redis client, shared with the rest of the host.
	Client *redis.Client
	// KeyPrefix prefixes every session key. Defaults to "convo:state:".
	KeyPrefix string
	// TTL expires a session's state after this long with no Save. Zero
	// means no expiration.
	TTL time.Duration
}

// Store implements conversation.Store.
type Store struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New returns a Store using opts.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{rdb: opts.Client, keyPrefix: prefix, ttl: opts.TTL}, nil
}

func (s *Store) keyFor(sessionID string) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, sessionID)
}

// Load implements conversation.Store.
func (s *Store) Load(ctx context.Context, sessionID string) (*conversation.State, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	raw, err := s.rdb.Get(ctx, s.keyFor(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	var state conversation.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	return &state, nil
}

// Save implements conversation.Store.
func (s *Store) Save(ctx context.Context, sessionID string, state *conversation.State) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.keyFor(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}
