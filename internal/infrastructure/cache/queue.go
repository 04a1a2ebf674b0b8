package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/domain/repositories"
)

const (
	// queueSize bounds the snapshots waiting for the publisher
	queueSize = 64

	defaultPublishTimeout = 2 * time.Second
)

// PublishQueue hands meeting snapshots to a single background worker so callers never wait
// on Redis. Snapshots are published in the order they were queued. When the queue is full the
// oldest waiting snapshot is dropped.
type PublishQueue struct {
	publisher repositories.SnapshotPublisher
	timeout   time.Duration
	queue     chan *entities.Meeting
	done      chan struct{}
	logger    *zap.Logger
}

// NewPublishQueue creates a queue in front of publisher. A zero timeout uses 2s per publish.
func NewPublishQueue(publisher repositories.SnapshotPublisher, timeout time.Duration, logger *zap.Logger) *PublishQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PublishQueue{
		publisher: publisher,
		timeout:   timeout,
		queue:     make(chan *entities.Meeting, queueSize),
		done:      make(chan struct{}),
		logger:    logger.With(zap.String("component", "publish_queue")),
	}
}

// Run publishes queued snapshots until ctx is cancelled
func (q *PublishQueue) Run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-q.queue:
			publishCtx, cancel := context.WithTimeout(ctx, q.timeout)
			err := q.publisher.PublishMeeting(publishCtx, m)
			cancel()
			if err != nil {
				q.logger.Warn("⚠️ Failed to publish meeting snapshot",
					zap.String("meeting_id", m.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// Enqueue queues m without blocking. It reports false when the queue has stopped.
func (q *PublishQueue) Enqueue(m *entities.Meeting) bool {
	if m == nil {
		return false
	}
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.queue <- m:
		return true
	default:
	}

	select {
	case dropped := <-q.queue:
		q.logger.Warn("⚠️ Publish queue full, dropping oldest snapshot", zap.String("meeting_id", dropped.ID))
	default:
	}
	select {
	case q.queue <- m:
		return true
	default:
		return false
	}
}
