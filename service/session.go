package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Session store key namespace. Key names and value shapes are a persistence
// contract: stored registries and snapshots from earlier deployments must
// keep decoding.
const (
	KeyContracts       = "contracts"
	KeyCurrentAnalysis = "current_analysis"
	KeyExtractionInfo  = "extractionInfo"
	KeyChatMessages    = "chatMessages"
	KeyChatContractID  = "chat_contract_id"
	KeyReviewViewMode  = "contract_review_view_mode"

	// Per-analysis-type snapshot keys
	KeyContractReview = "contract_review"
	KeyLegalResearch  = "legal_research"
	KeyRiskAssessment = "risk_assessment"
	KeyExtraction     = "extraction"
)

// SnapshotKeys lists every key that may hold a per-document snapshot and is
// therefore subject to cascade deletion when a document is removed.
func SnapshotKeys() []string {
	return []string{
		KeyContractReview, KeyLegalResearch, KeyRiskAssessment, KeyExtraction,
		KeyExtractionInfo, KeyCurrentAnalysis,
	}
}

// SessionStore is a per-user key/value store over Redis holding JSON-encoded
// values. It stands in for the browser's persisted storage: unsynchronized,
// last-write-wins, whole-value replacement on every write.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a session store backed by an existing Redis client
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// NewRedisClient creates and pings a Redis client for the session store
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *SessionStore) key(user, key string) string {
	return s.prefix + user + ":" + key
}

// Get reads a key into dest. It returns false for both a missing key and a
// malformed stored value; malformed values are logged and treated as absent,
// never surfaced to the caller.
func (s *SessionStore) Get(ctx context.Context, user, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(user, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session key %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		slog.Warn("malformed session value, treating as absent",
			"key", key,
			"error", err,
		)
		return false, nil
	}

	return true, nil
}

// Set writes a key as a whole-value replacement
func (s *SessionStore) Set(ctx context.Context, user, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session value for %q: %w", key, err)
	}

	if err := s.client.Set(ctx, s.key(user, key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write session key %q: %w", key, err)
	}

	return nil
}

// Remove deletes one or more keys
func (s *SessionStore) Remove(ctx context.Context, user string, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(user, k)
	}

	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to remove session keys %v: %w", keys, err)
	}

	return nil
}
