package redis

import (
	"context"
	"encoding/json"

	"teamflow/internal/domain"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "teamflow:channel:"

// RedisBroadcaster publishes channel messages on Redis Pub/Sub, one Redis
// channel per chat channel, for the socket layer to fan out.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func ChannelTopic(channelID string) string {
	return channelPrefix + channelID + ":messages"
}

// PublishMessage broadcasts the event to the network
func (b *RedisBroadcaster) PublishMessage(ctx context.Context, event domain.MessagePostedEvent) error {
	// Serialize the struct to JSON
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, ChannelTopic(event.ChannelID.String()), payload).Err()
}
