package actions

import (
	"context"
	"errors"

	"teamflow/internal/core/ports"
)

const KindSendEmail = "send_email"

// SendEmail hands a message to the mailer. Acceptance is all it confirms.
type SendEmail struct {
	mailer ports.Mailer
}

func NewSendEmail(mailer ports.Mailer) *SendEmail {
	return &SendEmail{mailer: mailer}
}

func (h *SendEmail) Execute(ctx context.Context, req Request) (any, error) {
	to, err := stringList(req.Config, "to")
	if err != nil {
		return nil, err
	}
	if len(to) == 0 {
		return nil, errors.New("to is required")
	}
	subject, err := requiredString(req.Config, "subject")
	if err != nil {
		return nil, err
	}
	body, err := optionalString(req.Config, "body")
	if err != nil {
		return nil, err
	}

	if err := h.mailer.Send(ctx, to, subject, body); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Email sent", "to": to}, nil
}
