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

// BoardHandler coordinates board HTTP handlers.
type BoardHandler struct {
	boardService *services.BoardService
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoard creates a new board owned by the requester.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	type CreateBoardRequest struct {
		Title   string   `json:"title" binding:"required"`
		Members []uint64 `json:"members"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(identity, services.CreateBoardInput{
		Title:     req.Title,
		MemberIDs: req.Members,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBoardDTO(*board))
}

// ListBoards returns the boards visible to the requester.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	boards, err := h.boardService.ListBoards(identity)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch boards")
		return
	}

	boardDTOs := make([]dto.BoardDTO, len(boards))
	for i, board := range boards {
		boardDTOs[i] = dto.ToBoardDTO(board)
	}

	c.JSON(http.StatusOK, gin.H{
		"boards": boardDTOs,
	})
}

// GetBoard returns a single board with members and tasks.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	identity, boardID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(identity, boardID)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDetailDTO(*board))
}

// UpdateBoard updates the title and/or replaces the member set. Removing a
// member also unassigns them from this board's tasks.
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	identity, boardID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	type UpdateBoardRequest struct {
		Title   *string   `json:"title"`
		Members *[]uint64 `json:"members"`
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateBoardInput{Title: req.Title}
	if req.Members != nil {
		input.MemberIDs = *req.Members
	}

	board, err := h.boardService.UpdateBoard(identity, boardID, input)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDetailDTO(*board))
}

// DeleteBoard removes a board with all of its tasks.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	identity, boardID, ok := h.identityAndParam(c)
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(identity, boardID); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

func (h *BoardHandler) identity(c *gin.Context) (authz.Identity, bool) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return identity, false
	}
	return identity, true
}

func (h *BoardHandler) identityAndParam(c *gin.Context) (identity authz.Identity, boardID uint64, ok bool) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return identity, 0, false
	}

	boardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid board ID")
		return identity, 0, false
	}

	return identity, boardID, true
}

func respondBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBoardNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrBoardAccessDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrDuplicateTitle):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidBoardTitle),
		errors.Is(err, services.ErrBoardTitleTooLong),
		errors.Is(err, services.ErrUnknownBoardMember):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
