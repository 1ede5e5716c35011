package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/dto"
	apierrors "github.com/PaFunzFr/KanMind-backend/internal/errors"
	"github.com/PaFunzFr/KanMind-backend/internal/middleware"
	"github.com/PaFunzFr/KanMind-backend/internal/services"
)

// CommentHandler coordinates comment HTTP handlers.
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// ListComments returns the task's comments, newest first. Non-members of the
// task's board get an empty list rather than an error.
func (h *CommentHandler) ListComments(c *gin.Context) {
	identity, taskID, ok := h.identityAndTask(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(identity, taskID)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}

// CreateComment adds a comment to a task.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	identity, taskID, ok := h.identityAndTask(c)
	if !ok {
		return
	}

	type CreateCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.CreateComment(identity, taskID, req.Content)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// DeleteComment deletes a comment. Author or admin only.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	identity, taskID, ok := h.identityAndTask(c)
	if !ok {
		return
	}

	commentID, err := strconv.ParseUint(c.Param("commentId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid comment ID")
		return
	}

	if err := h.commentService.DeleteComment(identity, taskID, commentID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

func (h *CommentHandler) identityAndTask(c *gin.Context) (identity authz.Identity, taskID uint64, ok bool) {
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

func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCommentAccessDenied),
		errors.Is(err, services.ErrNotBoardMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrCommentTooLong):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
