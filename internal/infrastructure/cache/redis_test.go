package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/johnquangdev/levelus/errors"
	"github.com/johnquangdev/levelus/internal/domain/entities"
)

type published struct {
	channel string
	payload []byte
}

type fakeRedis struct {
	published  []published
	keys       map[string][]byte
	ttl        map[string]time.Duration
	publishErr error
	setErr     error
	closed     bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: make(map[string][]byte), ttl: make(map[string]time.Duration)}
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.publishErr != nil {
		cmd.SetErr(f.publishErr)
		return cmd
	}
	f.published = append(f.published, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
		return cmd
	}
	f.keys[key] = value.([]byte)
	f.ttl[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestPublishMeeting(t *testing.T) {
	client := newFakeRedis()
	p := NewSnapshotPublisher(client, "levelus:meeting:", nil)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, p.PublishMeeting(context.Background(), entities.DemoMeeting()))

	require.Len(t, client.published, 1)
	assert.Equal(t, "levelus:meeting:demo", client.published[0].channel)

	var event MeetingEvent
	require.NoError(t, json.Unmarshal(client.published[0].payload, &event))
	assert.Equal(t, EventMeetingUpdated, event.EventType)
	assert.Equal(t, "demo", event.MeetingID)
	assert.Equal(t, "2025-01-02T03:04:05Z", event.Timestamp.Format(time.RFC3339))
	require.NotNil(t, event.Meeting)
	assert.Len(t, event.Meeting.Participants, 3)

	assert.Equal(t, client.published[0].payload, client.keys["levelus:meeting:demo:latest"])
	assert.Equal(t, snapshotTTL, client.ttl["levelus:meeting:demo:latest"])
}

func TestPublishMeeting_Errors(t *testing.T) {
	t.Run("nil meeting", func(t *testing.T) {
		err := NewSnapshotPublisher(newFakeRedis(), "p:", nil).PublishMeeting(context.Background(), nil)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_INVALID_ARGUMENT))
	})

	t.Run("publish failure", func(t *testing.T) {
		client := newFakeRedis()
		client.publishErr = errors.New("connection reset")

		err := NewSnapshotPublisher(client, "p:", nil).PublishMeeting(context.Background(), entities.NewMeeting("m1", ""))

		assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_CACHE_FAILED))
		assert.Empty(t, client.keys)
	})

	t.Run("set failure", func(t *testing.T) {
		client := newFakeRedis()
		client.setErr = errors.New("READONLY")

		err := NewSnapshotPublisher(client, "p:", nil).PublishMeeting(context.Background(), entities.NewMeeting("m1", ""))

		assert.True(t, appErrors.HasCode(err, appErrors.ErrorCode_CACHE_FAILED))
		assert.Len(t, client.published, 1)
	})
}

func TestSnapshotPublisher_Close(t *testing.T) {
	client := newFakeRedis()
	p := NewSnapshotPublisher(client, "p:", nil)

	assert.Equal(t, "p:m1", p.Channel("m1"))
	require.NoError(t, p.Close())
	assert.True(t, client.closed)
}
