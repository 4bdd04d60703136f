package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"educonnect-tracking/internal/models"
)

// EventPublisher pushes tracking updates onto the per-user pub/sub channel
// the websocket hub fans out from. Publishing is fire-and-forget: a failed
// publish is logged and never fails the operation that produced it.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) PublishTrackingEvent(ctx context.Context, userID string, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	if err := p.redis.Publish(ctx, fmt.Sprintf("tracking_updates:%s", userID), string(data)).Err(); err != nil {
		log.Printf("Failed to publish tracking event for user %s: %v", userID, err)
	}
}
