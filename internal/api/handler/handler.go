package handler

import (
	"errors"
	"net/http"

	"teamflow/internal/api/dto"
	"teamflow/internal/auth"
	"teamflow/internal/domain"
	"teamflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ActionCatalog lists the action kinds the dispatcher can run.
type ActionCatalog interface {
	Kinds() []string
}

type WorkflowHandler struct {
	service service.WorkflowService
	catalog ActionCatalog
	logger  logrus.FieldLogger
}

func NewWorkflowHandler(svc service.WorkflowService, catalog ActionCatalog, logger logrus.FieldLogger) *WorkflowHandler {
	return &WorkflowHandler{service: svc, catalog: catalog, logger: logger}
}

func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.writeError(c, domain.ErrUnauthenticated)
		return
	}

	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.service.CreateWorkflow(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wf)
}

func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	userID, workspaceID, ok := h.userAndParam(c, "workspaceId")
	if !ok {
		return
	}
	workflows, err := h.service.ListWorkflows(c.Request.Context(), userID, workspaceID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if workflows == nil {
		workflows = []domain.Workflow{}
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	userID, workflowID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}
	wf, err := h.service.GetWorkflow(c.Request.Context(), userID, workflowID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	userID, workflowID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.service.UpdateWorkflow(c.Request.Context(), userID, workflowID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	userID, workflowID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteWorkflow(c.Request.Context(), userID, workflowID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunWorkflow starts a run and answers 202 before any action executes.
func (h *WorkflowHandler) RunWorkflow(c *gin.Context) {
	userID, workflowID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}

	var req dto.RunWorkflowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	run, err := h.service.InvokeWorkflow(c.Request.Context(), userID, workflowID, req.TriggerData)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.RunWorkflowResponse{RunID: run.ID, Status: run.Status})
}

func (h *WorkflowHandler) FireEvent(c *gin.Context) {
	userID, workspaceID, ok := h.userAndParam(c, "workspaceId")
	if !ok {
		return
	}

	var req dto.FireEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runIDs, err := h.service.FireEvent(c.Request.Context(), userID, workspaceID, req.Event, req.Payload)
	if err != nil && len(runIDs) == 0 {
		h.writeError(c, err)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("event", req.Event).Warn("some event runs could not be started")
	}
	c.JSON(http.StatusAccepted, dto.FireEventResponse{RunIDs: runIDs})
}

func (h *WorkflowHandler) ListRuns(c *gin.Context) {
	userID, workflowID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}
	runs, err := h.service.ListRuns(c.Request.Context(), userID, workflowID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if runs == nil {
		runs = []domain.WorkflowRun{}
	}
	c.JSON(http.StatusOK, runs)
}

func (h *WorkflowHandler) GetRun(c *gin.Context) {
	userID, runID, ok := h.userAndParam(c, "id")
	if !ok {
		return
	}
	run, err := h.service.GetRun(c.Request.Context(), userID, runID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *WorkflowHandler) ListActions(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ActionKindsResponse{Actions: h.catalog.Kinds()})
}

func (h *WorkflowHandler) userAndParam(c *gin.Context, name string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.writeError(c, domain.ErrUnauthenticated)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (h *WorkflowHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrPreconditionDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrDefinitionNotFound), errors.Is(err, domain.ErrRunNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
