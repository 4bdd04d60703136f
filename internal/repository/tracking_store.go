package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"educonnect-tracking/internal/models"
)

// key per user, mirrors the platform's current_lesson_tracking collection
const trackingKeyPrefix = "tracking:current_lesson:"

// TrackingStore is the key-value document store for per-user tracking
// records. Get returns (nil, nil) when no record exists.
type TrackingStore interface {
	Get(ctx context.Context, userID string) (*models.TrackingRecord, error)
	Save(ctx context.Context, record *models.TrackingRecord) error
	Delete(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)
}

// RedisTrackingStore keeps each record as a single JSON document under
// tracking:current_lesson:<user_id>. Save replaces the whole document in one
// SET, which is the atomic unit here: two concurrent writers to the same
// user can each read a stale pre-image and the later SET wins. There is no
// version token; last-writer-wins at record granularity is the accepted
// consistency model.
type RedisTrackingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTrackingStore creates the store. A positive ttl puts an expiry on
// every saved record as a safety net against abandoned browsers; ttl <= 0
// disables expiry.
func NewRedisTrackingStore(client *redis.Client, ttl time.Duration) *RedisTrackingStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisTrackingStore{client: client, ttl: ttl}
}

func trackingKey(userID string) string {
	return trackingKeyPrefix + userID
}

func (s *RedisTrackingStore) Get(ctx context.Context, userID string) (*models.TrackingRecord, error) {
	data, err := s.client.Get(ctx, trackingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking record: %w", err)
	}

	var record models.TrackingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode tracking record: %w", err)
	}
	return &record, nil
}

func (s *RedisTrackingStore) Save(ctx context.Context, record *models.TrackingRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode tracking record: %w", err)
	}

	if err := s.client.Set(ctx, trackingKey(record.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tracking record: %w", err)
	}
	return nil
}

func (s *RedisTrackingStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, trackingKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete tracking record: %w", err)
	}
	return nil
}

// ListUsers scans the tracking keyspace and returns every user id with a
// record. Used by the stale-tab sweeper, not by request handling.
func (s *RedisTrackingStore) ListUsers(ctx context.Context) ([]string, error) {
	var users []string

	iter := s.client.Scan(ctx, 0, trackingKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), trackingKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tracking records: %w", err)
	}
	return users, nil
}
