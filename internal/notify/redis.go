package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookline/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const changeChannelPrefix = "bookline:changes:"

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisBridge extends the in-process Hub across processes via Redis
// pub/sub. Local subscribers are signalled directly on Notify; the publish
// fans the signal out to other processes, and the receive loop feeds remote
// publishes (including our own echo) back into the local hub. The echo is a
// duplicate, which the at-least-once contract allows.
type RedisBridge struct {
	client  *redis.Client
	local   *Hub
	backoff Backoff
	log     zerolog.Logger
}

func NewRedisBridge(client *redis.Client, local *Hub, logger *zerolog.Logger) *RedisBridge {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify-redis").Logger()
	}
	return &RedisBridge{
		client:  client,
		local:   local,
		backoff: Backoff{Initial: time.Second, Max: 30 * time.Second},
		log:     log,
	}
}

func (r *RedisBridge) Subscribe(partyID int64) *Subscription {
	return r.local.Subscribe(partyID)
}

func (r *RedisBridge) Notify(ctx context.Context, partyID int64) {
	r.local.Notify(ctx, partyID)

	channel := fmt.Sprintf("%s%d", changeChannelPrefix, partyID)
	if err := r.client.Publish(ctx, channel, "1").Err(); err != nil {
		// Local subscribers were already signalled; remote fan-out is lost
		// until Redis recovers.
		r.log.Warn().Err(err).Int64("party_id", partyID).Msg("redis publish failed")
	}
}

// Run consumes remote change publishes until ctx is cancelled, reconnecting
// with backoff when the subscription drops.
func (r *RedisBridge) Run(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		pubsub := r.client.PSubscribe(ctx, changeChannelPrefix+"*")

		for msg := range pubsub.Channel() {
			attempt = 0
			partyID, err := parseChangeChannel(msg.Channel)
			if err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("unexpected change channel")
				continue
			}
			r.local.Notify(ctx, partyID)
		}
		_ = pubsub.Close()

		if ctx.Err() != nil {
			return
		}
		attempt++
		delay := r.backoff.Next(attempt)
		r.log.Warn().Int("attempt", attempt).Dur("delay", delay).Msg("redis subscription dropped, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func parseChangeChannel(channel string) (int64, error) {
	raw, ok := strings.CutPrefix(channel, changeChannelPrefix)
	if !ok {
		return 0, fmt.Errorf("channel %q lacks prefix %q", channel, changeChannelPrefix)
	}
	return strconv.ParseInt(raw, 10, 64)
}
