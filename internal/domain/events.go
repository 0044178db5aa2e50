package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessagePostedEvent is published to Redis Pub/Sub after send_message
// stores a message, for the socket layer to fan out.
type MessagePostedEvent struct {
	MessageID uuid.UUID  `json:"message_id"`
	ChannelID uuid.UUID  `json:"channel_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	RunID     uuid.UUID  `json:"run_id"`
	Content   string     `json:"content"`
	PostedAt  time.Time  `json:"posted_at"`
}
