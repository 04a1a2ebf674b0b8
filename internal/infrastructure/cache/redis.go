package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/pkg/config"
)

// EventMeetingUpdated is the event type of every published snapshot
const EventMeetingUpdated = "meeting.updated"

// snapshotTTL bounds how long the latest snapshot key outlives the process
const snapshotTTL = 24 * time.Hour

// redisClient is the subset of *redis.Client the publisher needs
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// MeetingEvent is the payload published on the meeting channel
type MeetingEvent struct {
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	MeetingID string            `json:"meeting_id"`
	Meeting   *entities.Meeting `json:"meeting"`
}

// SnapshotPublisher fans meeting snapshots out over Redis pub/sub and keeps the latest one
// under {prefix}{meeting id}:latest
type SnapshotPublisher struct {
	client redisClient
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewSnapshotPublisher creates a publisher writing to channels named {prefix}{meeting id}
func NewSnapshotPublisher(client redisClient, prefix string, logger *zap.Logger) *SnapshotPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotPublisher{
		client: client,
		prefix: prefix,
		now:    time.Now,
		logger: logger.With(zap.String("component", "snapshot_publisher")),
	}
}

// Channel returns the pub/sub channel of a meeting
func (p *SnapshotPublisher) Channel(meetingID string) string {
	return p.prefix + meetingID
}

// PublishMeeting publishes m and stores it as the latest snapshot
func (p *SnapshotPublisher) PublishMeeting(ctx context.Context, m *entities.Meeting) error {
	if m == nil {
		return appErrors.ErrInvalidArgument("meeting is required")
	}

	data, err := json.Marshal(MeetingEvent{
		EventType: EventMeetingUpdated,
		Timestamp: p.now().UTC(),
		MeetingID: m.ID,
		Meeting:   m,
	})
	if err != nil {
		return appErrors.ErrInternal(fmt.Errorf("failed to marshal meeting event: %w", err))
	}

	channel := p.Channel(m.ID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("❌ Failed to publish meeting snapshot",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return appErrors.ErrCacheFailed("publish snapshot", err)
	}
	if err := p.client.Set(ctx, channel+":latest", data, snapshotTTL).Err(); err != nil {
		return appErrors.ErrCacheFailed("store latest snapshot", err)
	}

	p.logger.Debug("meeting snapshot published",
		zap.String("channel", channel),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Close releases the Redis connection
func (p *SnapshotPublisher) Close() error {
	return p.client.Close()
}
