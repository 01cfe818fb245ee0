package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/remedy/internal/config"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/log"
)

// Publisher sends workflow completion signals to a Redis pub/sub channel
type Publisher struct {
	client  *redis.Client
	channel string
}

var (
	ErrNoAddress = errors.New("notify redis address not configured")
	ErrNoChannel = errors.New("notify channel not configured")
)

// DefaultNotifyTimeout bounds a single publish made from OnComplete
const DefaultNotifyTimeout = 5 * time.Second

// NewPublisher connects to the Redis instance described by cfg
func NewPublisher(cfg *config.NotifyConfig) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, ErrNoAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewPublisherWithClient(client, cfg.Channel)
}

// NewPublisherWithClient wraps an existing Redis client
func NewPublisherWithClient(
	client *redis.Client, channel string,
) (*Publisher, error) {
	if channel == "" {
		return nil, ErrNoChannel
	}
	return &Publisher{
		client:  client,
		channel: channel,
	}, nil
}

// Channel returns the pub/sub channel completions are published on
func (p *Publisher) Channel() string {
	return p.channel
}

// Ping checks that Redis is reachable
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Notify publishes res as JSON and returns the number of subscribers that
// received it
func (p *Publisher) Notify(
	ctx context.Context, res api.CompletionResult,
) (int64, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return 0, err
	}
	return p.client.Publish(ctx, p.channel, data).Result()
}

// OnComplete returns a completion callback that publishes each result,
// logging rather than returning failures
func (p *Publisher) OnComplete(
	timeout time.Duration,
) func(api.CompletionResult) {
	return func(res api.CompletionResult) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		receivers, err := p.Notify(ctx, res)
		if err != nil {
			slog.Error("Failed to publish workflow completion",
				log.RunID(res.RunID),
				slog.String("channel", p.channel),
				log.Error(err))
			return
		}
		slog.Info("Workflow completion published",
			log.RunID(res.RunID),
			slog.String("channel", p.channel),
			slog.Int64("receivers", receivers))
	}
}

// Close releases the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}
