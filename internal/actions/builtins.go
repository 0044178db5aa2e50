package actions

import (
	"net/http"

	"teamflow/internal/core/ports"

	"github.com/sirupsen/logrus"
)

// Deps are the side-effect collaborators of the built-in actions.
type Deps struct {
	Tasks       ports.TaskStore
	Messages    ports.MessageStore
	Documents   ports.DocumentStore
	Users       ports.UserStore
	Mailer      ports.Mailer
	Broadcaster ports.MessageBroadcaster
	HTTPClient  *http.Client
	Logger      logrus.FieldLogger
}

// RegisterBuiltins wires up the actual business logic
func RegisterBuiltins(r *Registry, deps Deps) error {
	builtins := map[string]Handler{
		KindSendEmail:      NewSendEmail(deps.Mailer),
		KindCreateTask:     NewCreateTask(deps.Tasks),
		KindSendMessage:    NewSendMessage(deps.Messages, deps.Broadcaster, deps.Logger),
		KindCreateDocument: NewCreateDocument(deps.Documents),
		KindUpdateUser:     NewUpdateUser(deps.Users),
		KindAPICall:        NewAPICall(deps.HTTPClient),
	}
	for kind, handler := range builtins {
		if err := r.Register(kind, handler); err != nil {
			return err
		}
	}
	return nil
}
