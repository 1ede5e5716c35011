package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/dto"
	apierrors "github.com/PaFunzFr/KanMind-backend/internal/errors"
	"github.com/PaFunzFr/KanMind-backend/internal/middleware"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/services"
	"github.com/PaFunzFr/KanMind-backend/internal/utils"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the requester, optionally filtered
// by board, status, and priority.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{}

	if boardIDStr := c.Query("board_id"); boardIDStr != "" {
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid board_id")
			return
		}
		input.BoardID = &boardID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := models.TaskPriority(priorityStr)
		if !priority.Valid() {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = &priority
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(identity, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// ListAssignedTasks returns tasks where the requester is the assignee.
func (h *TaskHandler) ListAssignedTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListAssigned(identity, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// ListReviewingTasks returns tasks where the requester is the reviewer.
func (h *TaskHandler) ListReviewingTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListReviewing(identity, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a single task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	identity, taskID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(identity, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task on a board the requester is a member of.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Board       uint64     `json:"board" binding:"required"`
		AssigneeID  *uint64    `json:"assignee_id"`
		ReviewerID  *uint64    `json:"reviewer_id"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(identity, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		BoardID:     req.Board,
		AssigneeID:  req.AssigneeID,
		ReviewerID:  req.ReviewerID,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to a task. An explicit JSON null for
// assignee_id, reviewer_id, or due_date clears the field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, taskID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	// Raw JSON detects which fields were sent, including explicit nulls.
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput

	if raw, sent := rawReq["title"]; sent {
		title, ok := raw.(string)
		if !ok {
			apierrors.BadRequest(c, "Invalid title")
			return
		}
		input.Title = &title
	}
	if raw, sent := rawReq["description"]; sent {
		description, ok := raw.(string)
		if !ok {
			apierrors.BadRequest(c, "Invalid description")
			return
		}
		input.Description = &description
	}
	if raw, sent := rawReq["status"]; sent {
		statusStr, ok := raw.(string)
		if !ok {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}
	if raw, sent := rawReq["priority"]; sent {
		priorityStr, ok := raw.(string)
		if !ok {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		priority := models.TaskPriority(priorityStr)
		input.Priority = &priority
	}
	if raw, sent := rawReq["due_date"]; sent {
		if raw == nil {
			input.ClearDueDate = true
		} else if dueDateStr, ok := raw.(string); ok {
			parsed, err := time.Parse(time.RFC3339, dueDateStr)
			if err != nil {
				apierrors.BadRequest(c, "Invalid due_date")
				return
			}
			input.DueDate = &parsed
		} else {
			apierrors.BadRequest(c, "Invalid due_date")
			return
		}
	}
	if raw, sent := rawReq["assignee_id"]; sent {
		id, clear, ok := parseOptionalID(raw)
		if !ok {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		input.AssigneeID = id
		input.ClearAssignee = clear
	}
	if raw, sent := rawReq["reviewer_id"]; sent {
		id, clear, ok := parseOptionalID(raw)
		if !ok {
			apierrors.BadRequest(c, "Invalid reviewer_id")
			return
		}
		input.ReviewerID = id
		input.ClearReviewer = clear
	}

	task, err := h.taskService.UpdateTask(identity, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task. Creator, board owner, or admin only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	identity, taskID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(identity, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// SuggestTasks generates task suggestions for a board from free text.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	type SuggestTasksRequest struct {
		Text  string `json:"text" binding:"required"`
		Board uint64 `json:"board" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tasks, err := h.taskService.SuggestTasks(c.Request.Context(), identity, services.SuggestTasksInput{
		Text:    req.Text,
		BoardID: req.Board,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}

// parseOptionalID interprets a JSON value as either an id or an explicit null.
func parseOptionalID(raw any) (id *uint64, clear bool, ok bool) {
	if raw == nil {
		return nil, true, true
	}

	num, isNum := raw.(float64)
	if !isNum || num < 0 || num != float64(uint64(num)) {
		return nil, false, false
	}

	value := uint64(num)
	return &value, false, true
}

func (h *TaskHandler) identity(c *gin.Context) (authz.Identity, bool) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return identity, false
	}
	return identity, true
}

func (h *TaskHandler) identityAndParam(c *gin.Context) (identity authz.Identity, taskID uint64, ok bool) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return identity, 0, false
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return identity, 0, false
	}

	return identity, taskID, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskAccessDenied),
		errors.Is(err, services.ErrNotBoardMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrDescriptionTooLong),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidAssignment):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAINotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksSuggested),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
