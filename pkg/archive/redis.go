package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/domainchat-dev/domainchat/pkg/chat"
)

// RedisStore implements Store using Redis. It suits setups where several
// workstations share one transcript archive.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix (default: "domainchat:transcript:").
	Prefix string
	// TTL is the transcript expiry duration (0 = never expire).
	TTL time.Duration
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore creates a Redis transcript store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisStore(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreFromClient creates a Redis store from an existing client.
// This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return newRedisStore(client, prefix, ttl)
}

func newRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "domainchat:transcript:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) transcriptKey(sessionID string) string {
	return s.prefix + "data:" + sessionID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// Save stores a transcript and adds it to the time-ordered index.
func (s *RedisStore) Save(ctx context.Context, t *chat.Transcript) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if t.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.transcriptKey(t.SessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(t.ExportDate.UnixMilli()),
		Member: t.SessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// Load retrieves a transcript by session ID.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*chat.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	data, err := s.client.Get(ctx, s.transcriptKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	var t chat.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return &t, nil
}

// List returns transcript summaries, newest first.
func (s *RedisStore) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.transcriptKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Expired transcript still present in the index.
				continue
			}
			return nil, fmt.Errorf("load transcript %s: %w", id, err)
		}
		var t chat.Transcript
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse transcript %s: %w", id, err)
		}
		summaries = append(summaries, Summary{
			SessionID:    t.SessionID,
			ExportDate:   t.ExportDate,
			MessageCount: len(t.Messages),
		})
	}

	return page(summaries, opts), nil
}

// Delete removes a transcript and its index entry.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	deleted, err := s.client.Del(ctx, s.transcriptKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	if err := s.client.ZRem(ctx, s.indexKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("remove from index: %w", err)
	}
	if deleted == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
