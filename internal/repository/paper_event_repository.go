package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stemsi/papercraft/internal/model"
)

// PaperEventRepository fans paper change events out over Redis Pub/Sub so
// every server replica can push them to its live preview connections.
type PaperEventRepository struct {
	rdb *redis.Client
}

// NewPaperEventRepository creates a new PaperEventRepository.
func NewPaperEventRepository(rdb *redis.Client) *PaperEventRepository {
	return &PaperEventRepository{rdb: rdb}
}

// Publish sends ev on the paper's channel.
func (r *PaperEventRepository) Publish(ctx context.Context, ev model.PaperEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, config.CacheKey.PaperEventsChannel(ev.PaperID.String()), payload).Err()
}

// Subscription is an open paper channel. *redis.PubSub implements it.
type Subscription interface {
	Receive(ctx context.Context) (interface{}, error)
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Subscribe opens a subscription to the paper's channel. The caller confirms
// it with Receive and closes it.
func (r *PaperEventRepository) Subscribe(ctx context.Context, paperID uuid.UUID) Subscription {
	return r.rdb.Subscribe(ctx, config.CacheKey.PaperEventsChannel(paperID.String()))
}
