package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
)

// publishTimeout bounds how long a single PUBLISH is allowed to block the
// caller. Acquisition is expected to be fast; if Redis is unreachable this
// keeps a stalled publish from holding the IMDS mutex indefinitely.
const publishTimeout = 500 * time.Millisecond

// RedisBus publishes events as JSON onto a single Redis pub/sub channel.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus wraps an already-connected client.
func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

// Publish JSON-encodes event and PUBLISHes it to the configured channel.
// Encode or publish failure is logged at Warn and otherwise swallowed —
// bus acquisition failure must never propagate back into IMDS (§7).
func (b *RedisBus) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logging.WithComponent("bus").WithError(err).Warn("failed to encode event, dropping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		logging.WithComponent("bus").WithError(err).Warn("failed to publish event, dropping")
	}
}
