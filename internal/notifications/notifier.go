// Package notifications publishes review lifecycle events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"reviewhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ReviewsChannel carries every review event.
const ReviewsChannel = "events:reviews"

// Event types published on ReviewsChannel.
const (
	EventReviewCreated = "review.created"
	EventReviewUpdated = "review.updated"
	EventReviewDeleted = "review.deleted"
	EventReviewVoted   = "review.voted"
)

// ReviewEvent is the payload published for each review mutation.
type ReviewEvent struct {
	Type       string    `json:"type"`
	ReviewID   uint      `json:"reviewId"`
	AuthorID   string    `json:"authorId"`
	ActorID    string    `json:"actorId"`
	CategoryID *uint     `json:"categoryId,omitempty"`
	IsHelpful  *bool     `json:"isHelpful,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier provides helpers to publish events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishReviewEvent sends an event to ReviewsChannel.
func (n *Notifier) PublishReviewEvent(ctx context.Context, event ReviewEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, ReviewsChannel, payload).Err()
}

// StartReviewSubscriber subscribes to ReviewsChannel and calls onEvent for
// every decodable message until ctx is cancelled.
func (n *Notifier) StartReviewSubscriber(ctx context.Context, onEvent func(ReviewEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ReviewsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ReviewsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ReviewEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					observability.Logger.WarnContext(ctx, "dropping malformed review event",
						"channel", msg.Channel, "error", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.ErrorContext(ctx, "panic in review subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}
