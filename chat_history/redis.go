package chat_history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/observability"
)

const (
	defaultRedisKeyPrefix = "recipechat:"
	redisScanCount        = 100
)

// RedisClient is the subset of the go-redis client used by RedisConversationStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// RedisStoreOptions configures NewRedisConversationStore.
type RedisStoreOptions struct {
	// URL in the form redis://[:password@]host:port/db
	URL       string
	KeyPrefix string
	// TTL of a conversation key; zero keeps conversations forever.
	TTL time.Duration
}

type redisEnvelope struct {
	Messages  []recipechat.LLMMessage `json:"messages"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// RedisConversationStore keeps each conversation as a JSON document under its own key.
type RedisConversationStore struct {
	client    RedisClient
	keyPrefix string
	ttl       time.Duration
	logger    observability.Logger
	now       func() time.Time
}

// NewRedisConversationStore connects to the Redis server described by opts.URL.
func NewRedisConversationStore(ctx context.Context, opts RedisStoreOptions, logger observability.Logger) (*RedisConversationStore, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisConversationStoreWithClient(client, opts, logger), nil
}

// NewRedisConversationStoreWithClient builds a store on top of an existing client.
func NewRedisConversationStoreWithClient(client RedisClient, opts RedisStoreOptions, logger observability.Logger) *RedisConversationStore {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}

	return &RedisConversationStore{
		client:    client,
		keyPrefix: prefix,
		ttl:       opts.TTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RedisConversationStore) key(userID string) string {
	return s.keyPrefix + "conversation:" + userID
}

// Put replaces the conversation of userID
func (s *RedisConversationStore) Put(ctx context.Context, userID string, messages []recipechat.LLMMessage) error {
	envelope := redisEnvelope{
		Messages:  cloneMessages(messages),
		UpdatedAt: s.now().UTC(),
	}
	if envelope.Messages == nil {
		envelope.Messages = []recipechat.LLMMessage{}
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store conversation (user_id: %s): %w", userID, err)
	}
	return nil
}

// Get retrieves the conversation of userID
func (s *RedisConversationStore) Get(ctx context.Context, userID string) ([]recipechat.LLMMessage, error) {
	envelope, err := s.load(ctx, s.key(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []recipechat.LLMMessage{}, nil
		}
		return nil, fmt.Errorf("failed to load conversation (user_id: %s): %w", userID, err)
	}
	return envelope.Messages, nil
}

func (s *RedisConversationStore) load(ctx context.Context, key string) (redisEnvelope, error) {
	var envelope redisEnvelope

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return envelope, err
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return envelope, fmt.Errorf("failed to decode conversation: %w", err)
	}
	if envelope.Messages == nil {
		envelope.Messages = []recipechat.LLMMessage{}
	}
	return envelope, nil
}

// ListConversations returns all stored conversations
func (s *RedisConversationStore) ListConversations(ctx context.Context) ([]recipechat.ConversationRecord, error) {
	pattern := s.keyPrefix + "conversation:*"
	keyPrefix := s.keyPrefix + "conversation:"

	records := []recipechat.ConversationRecord{}
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, redisScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversations: %w", err)
		}

		for _, key := range keys {
			envelope, err := s.load(ctx, key)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					// expired between SCAN and GET
					continue
				}
				return nil, fmt.Errorf("failed to load %s: %w", key, err)
			}
			records = append(records, recipechat.ConversationRecord{
				UserID:    strings.TrimPrefix(key, keyPrefix),
				Messages:  envelope.Messages,
				UpdatedAt: envelope.UpdatedAt,
			})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	s.logger.WithFields(map[string]interface{}{"count": len(records)}).Debug("listed redis conversations")
	return records, nil
}

// Close closes the underlying client.
func (s *RedisConversationStore) Close() error {
	return s.client.Close()
}
