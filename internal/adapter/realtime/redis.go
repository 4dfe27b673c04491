// Package realtime fans notification pushes out over Redis pub/sub, one
// channel per user, so any API instance can serve a user's stream.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"loancrm/internal/domain/notification"
)

var _ notification.Pusher = (*RedisPusher)(nil)

func Channel(userID uint64) string { return fmt.Sprintf("user_%d_notifications", userID) }

type RedisPusher struct{ rdb *redis.Client }

func NewRedisPusher(rdb *redis.Client) *RedisPusher { return &RedisPusher{rdb: rdb} }

// PushToUser succeeds even when nobody is listening.
func (p *RedisPusher) PushToUser(ctx context.Context, userID uint64, msg notification.PushMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}
	return p.rdb.Publish(ctx, Channel(userID), payload).Err()
}

type Subscription struct {
	ps *redis.PubSub
	ch <-chan *redis.Message
}

// Subscribe returns once Redis has confirmed the subscription, so nothing
// published afterwards is missed.
func (p *RedisPusher) Subscribe(ctx context.Context, userID uint64) (*Subscription, error) {
	ps := p.rdb.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(userID), err)
	}
	return &Subscription{ps: ps, ch: ps.Channel()}, nil
}

// Messages carries each payload as published. Close closes it.
func (s *Subscription) Messages() <-chan *redis.Message { return s.ch }

func (s *Subscription) Close() error { return s.ps.Close() }
