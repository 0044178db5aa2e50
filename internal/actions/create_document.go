package actions

import (
	"context"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"
)

const KindCreateDocument = "create_document"

type CreateDocument struct {
	store ports.DocumentStore
}

func NewCreateDocument(store ports.DocumentStore) *CreateDocument {
	return &CreateDocument{store: store}
}

func (h *CreateDocument) Execute(ctx context.Context, req Request) (any, error) {
	title, err := requiredString(req.Config, "title")
	if err != nil {
		return nil, err
	}
	content, err := optionalString(req.Config, "content")
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		WorkspaceID: req.Scope.WorkspaceID,
		Title:       title,
		Content:     content,
		CreatedBy:   req.Scope.UserID,
	}
	if err := h.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Document created", "documentId": doc.ID.String()}, nil
}
