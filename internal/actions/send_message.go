package actions

import (
	"context"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/sirupsen/logrus"
)

const KindSendMessage = "send_message"

// SendMessage stores a message in a channel of the run's workspace and
// hands it to the broadcaster.
// A broadcast failure is logged only; the message is already stored.
type SendMessage struct {
	store       ports.MessageStore
	broadcaster ports.MessageBroadcaster
	logger      logrus.FieldLogger
}

func NewSendMessage(store ports.MessageStore, broadcaster ports.MessageBroadcaster, logger logrus.FieldLogger) *SendMessage {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SendMessage{store: store, broadcaster: broadcaster, logger: logger}
}

func (h *SendMessage) Execute(ctx context.Context, req Request) (any, error) {
	channelID, err := requiredUUID(req.Config, "channelId")
	if err != nil {
		return nil, err
	}
	content, err := requiredString(req.Config, "message")
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ChannelID: channelID,
		UserID:    req.Scope.UserID,
		Content:   content,
	}
	if err := h.store.PostMessage(ctx, req.Scope.WorkspaceID, msg); err != nil {
		return nil, err
	}

	if h.broadcaster != nil {
		event := domain.MessagePostedEvent{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID,
			UserID:    msg.UserID,
			RunID:     req.Scope.RunID,
			Content:   msg.Content,
			PostedAt:  msg.CreatedAt,
		}
		if err := h.broadcaster.PublishMessage(ctx, event); err != nil {
			h.logger.WithFields(logrus.Fields{
				"run_id":     req.Scope.RunID,
				"channel_id": channelID,
				"message_id": msg.ID,
			}).WithError(err).Warn("message stored but broadcast failed")
		}
	}

	return map[string]any{"message": "Message sent", "messageId": msg.ID.String()}, nil
}
